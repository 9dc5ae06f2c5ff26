// Package economy provides the zoo's ledger: balance, transactions, daily
// settlement and loans.
package economy

import (
	"fmt"
	"log/slog"

	"github.com/talgya/zoo-sim/internal/signal"
)

// DefaultStartingFunds is the balance of a new zoo.
const DefaultStartingFunds int64 = 50000

// Category groups transactions for reporting.
type Category uint8

const (
	Miscellaneous Category = iota
	AnimalPurchase
	AnimalFood
	BuildingPurchase
	BuildingMaintenance
	StaffSalary
	VisitorTicket
	VisitorFood
	Research
	Loan
)

var categoryNames = [...]string{
	Miscellaneous:       "Miscellaneous",
	AnimalPurchase:      "Animal Purchase",
	AnimalFood:          "Animal Food",
	BuildingPurchase:    "Building Purchase",
	BuildingMaintenance: "Building Maintenance",
	StaffSalary:         "Staff Salary",
	VisitorTicket:       "Visitor Ticket",
	VisitorFood:         "Visitor Food",
	Research:            "Research",
	Loan:                "Loan",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "Unknown"
}

// MarshalText renders the category name in JSON.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Transaction is one ledger entry.
type Transaction struct {
	Amount   int64    `json:"amount"`
	Reason   string   `json:"reason"`
	Expense  bool     `json:"expense"`
	Category Category `json:"category"`
	Day      int      `json:"day"`
	Time     float64  `json:"time"` // in-game hour
}

// Report partitions a period's transactions.
type Report struct {
	Day          int           `json:"day"`
	TotalIncome  int64         `json:"total_income"`
	TotalExpense int64         `json:"total_expense"`
	Net          int64         `json:"net"`
	Income       []Transaction `json:"income"`
	Expenses     []Transaction `json:"expenses"`
}

// Timekeeper stamps transactions. *clock.Clock satisfies it.
type Timekeeper interface {
	Now() (day int, timeOfDay float64)
}

// Ledger tracks a non-negative balance. Not safe for concurrent use.
type Ledger struct {
	balance int64
	debt    int64
	log     []Transaction
	daily   []Transaction // expenses of the last closed period
	clock   Timekeeper

	FundsChanged         signal.Signal[int64]
	TransactionCompleted signal.Signal[Transaction]
	Bankruptcy           signal.Signal[int64]
	DebtChanged          signal.Signal[int64]
}

// NewLedger creates a ledger. clock may be nil, in which case transactions carry zero stamps.
func NewLedger(startingFunds int64, clock Timekeeper) *Ledger {
	if startingFunds < 0 {
		startingFunds = 0
	}
	slog.Info("ledger opened", "funds", startingFunds)
	return &Ledger{balance: startingFunds, clock: clock}
}

// Balance returns current funds.
func (l *Ledger) Balance() int64 { return l.balance }

// Debt returns the outstanding loan balance.
func (l *Ledger) Debt() int64 { return l.debt }

// TrySpend debits amount if funds allow. Non-positive amounts and overdrafts
// are rejected without any state change.
func (l *Ledger) TrySpend(amount int64, reason string) bool {
	return l.Spend(amount, Miscellaneous, reason)
}

// Spend is TrySpend with a reporting category.
func (l *Ledger) Spend(amount int64, cat Category, reason string) bool {
	if amount <= 0 {
		slog.Warn("spend rejected: invalid amount", "amount", amount, "reason", reason)
		return false
	}
	if amount > l.balance {
		slog.Warn("spend rejected: insufficient funds", "have", l.balance, "need", amount, "reason", reason)
		return false
	}

	l.balance -= amount
	tx := l.record(amount, cat, reason, true)

	slog.Debug("spent", "amount", amount, "reason", reason, "balance", l.balance)
	l.FundsChanged.Emit(l.balance)
	l.TransactionCompleted.Emit(tx)

	if l.balance <= 0 {
		slog.Warn("bankruptcy: funds have reached zero")
		l.Bankruptcy.Emit(l.balance)
	}
	return true
}

// AddIncome credits a positive amount.
func (l *Ledger) AddIncome(amount int64, reason string) bool {
	return l.Earn(amount, Miscellaneous, reason)
}

// Earn is AddIncome with a reporting category.
func (l *Ledger) Earn(amount int64, cat Category, reason string) bool {
	if amount <= 0 {
		slog.Warn("income rejected: invalid amount", "amount", amount, "reason", reason)
		return false
	}

	l.balance += amount
	tx := l.record(amount, cat, reason, false)

	slog.Debug("income", "amount", amount, "reason", reason, "balance", l.balance)
	l.FundsChanged.Emit(l.balance)
	l.TransactionCompleted.Emit(tx)
	return true
}

func (l *Ledger) record(amount int64, cat Category, reason string, expense bool) Transaction {
	tx := Transaction{Amount: amount, Reason: reason, Expense: expense, Category: cat}
	if l.clock != nil {
		tx.Day, tx.Time = l.clock.Now()
	}
	l.log = append(l.log, tx)
	return tx
}

// ProcessDailyExpenses closes the accounting period: the expense entries of
// the working log become the daily snapshot and the log is cleared.
// Recurring costs are not charged here.
func (l *Ledger) ProcessDailyExpenses() {
	daily := make([]Transaction, 0, len(l.log))
	var total int64
	for _, tx := range l.log {
		if tx.Expense {
			daily = append(daily, tx)
			total += tx.Amount
		}
	}
	l.daily = daily
	l.log = nil

	slog.Info("daily expenses processed", "entries", len(daily), "total", total, "balance", l.balance)
}

// DailyExpenseLog returns the expense snapshot of the last closed period.
func (l *Ledger) DailyExpenseLog() []Transaction {
	out := make([]Transaction, len(l.daily))
	copy(out, l.daily)
	return out
}

// Transactions returns a copy of the current period's log.
func (l *Ledger) Transactions() []Transaction {
	out := make([]Transaction, len(l.log))
	copy(out, l.log)
	return out
}

// DailyReport partitions the current period into income and expenses.
func (l *Ledger) DailyReport() Report {
	r := Report{Income: []Transaction{}, Expenses: []Transaction{}}
	if l.clock != nil {
		r.Day, _ = l.clock.Now()
	}
	for _, tx := range l.log {
		if tx.Expense {
			r.TotalExpense += tx.Amount
			r.Expenses = append(r.Expenses, tx)
		} else {
			r.TotalIncome += tx.Amount
			r.Income = append(r.Income, tx)
		}
	}
	r.Net = r.TotalIncome - r.TotalExpense
	return r
}

// TakeLoan credits amount and adds it to the debt.
func (l *Ledger) TakeLoan(amount int64) bool {
	if amount <= 0 {
		slog.Warn("loan rejected: invalid amount", "amount", amount)
		return false
	}
	l.debt += amount
	l.Earn(amount, Loan, fmt.Sprintf("Loan taken ($%d)", amount))
	slog.Info("loan taken", "amount", amount, "debt", l.debt)
	l.DebtChanged.Emit(l.debt)
	return true
}

// RepayLoan pays back up to amount, never more than the debt.
func (l *Ledger) RepayLoan(amount int64) bool {
	if amount <= 0 || l.debt <= 0 {
		return false
	}
	pay := min(amount, l.debt)
	if !l.Spend(pay, Loan, fmt.Sprintf("Loan repayment ($%d)", pay)) {
		return false
	}
	l.debt -= pay
	slog.Info("loan repaid", "amount", pay, "debt", l.debt)
	l.DebtChanged.Emit(l.debt)
	return true
}

// AutoRepay makes the daily installment: a tenth of the debt or 500, whichever
// is greater, capped at the debt itself.
func (l *Ledger) AutoRepay() bool {
	if l.debt <= 0 {
		return false
	}
	return l.RepayLoan(max(l.debt/10, min(500, l.debt)))
}

// Restore sets balance and debt from a save without notifications.
// The transaction log starts empty.
func (l *Ledger) Restore(balance, debt int64) {
	l.balance = max(balance, 0)
	l.debt = max(debt, 0)
	l.log = nil
	l.daily = nil
}
