package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/talgya/zoo-sim/internal/animals"
	"github.com/talgya/zoo-sim/internal/economy"
	"github.com/talgya/zoo-sim/internal/enclosures"
	"github.com/talgya/zoo-sim/internal/research"
	"github.com/talgya/zoo-sim/internal/staff"
	"github.com/talgya/zoo-sim/internal/weather"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
	ErrInvalid           = errors.New("invalid request")
)

// BuyAnimal purchases an animal and houses it. enclosure 0 leaves it unhoused.
func (s *Simulation) BuyAnimal(species, name string, enclosure uint64) (animals.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	species, name = strings.TrimSpace(species), strings.TrimSpace(name)
	if species == "" || name == "" {
		return 0, fmt.Errorf("%w: species and name are required", ErrInvalid)
	}
	if err := s.checkRoom(enclosure); err != nil {
		return 0, err
	}
	price := s.cfg.Economy.AnimalPrice
	if !s.Ledger.Spend(price, economy.AnimalPurchase, "buy "+species) {
		return 0, fmt.Errorf("%w: %s costs %d", ErrInsufficientFunds, species, price)
	}
	id, _ := s.Animals.Add(species, name, enclosure)

	slog.Info("animal purchased", "id", id, "species", species, "name", name, "enclosure", enclosure)
	s.emit("animal", fmt.Sprintf("%s the %s joined the zoo", name, species), map[string]any{
		"animal": uint64(id), "species": species, "price": price,
	})
	return id, nil
}

// MoveAnimal rehouses an animal.
func (s *Simulation) MoveAnimal(id animals.ID, enclosure uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.Animals.Get(id)
	if !ok {
		return fmt.Errorf("animal %d: %w", id, ErrNotFound)
	}
	if a.Enclosure == enclosure {
		return nil
	}
	if err := s.checkRoom(enclosure); err != nil {
		return err
	}
	s.Animals.Move(id, enclosure)
	return nil
}

// FeedAnimal pays for a meal and tops up an animal's hunger and thirst.
func (s *Simulation) FeedAnimal(id animals.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.Animals.Get(id)
	if !ok {
		return fmt.Errorf("animal %d: %w", id, ErrNotFound)
	}
	cost := s.cfg.Economy.FoodPerAnimal
	if cost > 0 && !s.Ledger.Spend(cost, economy.AnimalFood, "feed "+a.Name) {
		return fmt.Errorf("%w: a meal costs %d", ErrInsufficientFunds, cost)
	}
	amount := s.careAmount()
	a.Needs.Feed(amount)
	a.Needs.Water(amount)
	return nil
}

// checkRoom validates that an enclosure exists and has a free place.
func (s *Simulation) checkRoom(enclosure uint64) error {
	if enclosure == 0 {
		return nil
	}
	e, ok := s.Enclosures.Get(enclosures.ID(enclosure))
	if !ok {
		return fmt.Errorf("enclosure %d: %w", enclosure, ErrNotFound)
	}
	if s.Animals.InEnclosure(enclosure) >= e.Capacity {
		return fmt.Errorf("%w: enclosure %q is full", ErrInvalid, e.Name)
	}
	return nil
}

// BuildEnclosure buys a new enclosure. A non-positive capacity uses the default.
func (s *Simulation) BuildEnclosure(name string, capacity int) (enclosures.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: enclosure name is required", ErrInvalid)
	}
	price := s.cfg.Economy.EnclosurePrice
	if !s.Ledger.Spend(price, economy.BuildingPurchase, "build "+name) {
		return 0, fmt.Errorf("%w: an enclosure costs %d", ErrInsufficientFunds, price)
	}
	id, _ := s.Enclosures.Add(name, capacity)
	s.emit("building", "Built enclosure "+name, map[string]any{"enclosure": uint64(id), "price": price})
	return id, nil
}

// RepairEnclosure restores an enclosure to full condition and returns the cost.
func (s *Simulation) RepairEnclosure(id enclosures.ID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cost, ok := s.Enclosures.RepairCost(id)
	if !ok {
		return 0, fmt.Errorf("enclosure %d: %w", id, ErrNotFound)
	}
	if cost == 0 {
		return 0, nil
	}
	if !s.Ledger.Spend(cost, economy.BuildingMaintenance, fmt.Sprintf("repair enclosure %d", id)) {
		return 0, fmt.Errorf("%w: repair costs %d", ErrInsufficientFunds, cost)
	}
	s.Enclosures.Repair(id)
	return cost, nil
}

// Hire adds an employee. Salaries are charged daily, not up front.
func (s *Simulation) Hire(role, name string) (staff.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := staff.ParseRole(role)
	if !ok {
		return 0, fmt.Errorf("%w: unknown role %q", ErrInvalid, role)
	}
	id, ok := s.Staff.Hire(r, name)
	if !ok {
		return 0, fmt.Errorf("%w: staff name is required", ErrInvalid)
	}
	s.emit("staff", fmt.Sprintf("Hired %s as %s", strings.TrimSpace(name), r), map[string]any{"staff": uint64(id)})
	return id, nil
}

// Fire lets an employee go.
func (s *Simulation) Fire(id staff.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.Staff.Get(id)
	if !ok || !s.Staff.Fire(id) {
		return fmt.Errorf("staff %d: %w", id, ErrNotFound)
	}
	s.emit("staff", fmt.Sprintf("%s (%s) left the zoo", m.Name, m.Role), map[string]any{"staff": uint64(id)})
	return nil
}

// AssignStaff posts an employee to an enclosure. 0 unassigns.
func (s *Simulation) AssignStaff(id staff.ID, enclosure uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if enclosure != 0 {
		if _, ok := s.Enclosures.Get(enclosures.ID(enclosure)); !ok {
			return fmt.Errorf("enclosure %d: %w", enclosure, ErrNotFound)
		}
	}
	if !s.Staff.Assign(id, enclosure) {
		return fmt.Errorf("staff %d: %w", id, ErrNotFound)
	}
	return nil
}

// StartResearch pays for and begins a topic.
func (s *Simulation) StartResearch(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ok, why := s.Research.CanStart(id); !ok {
		return fmt.Errorf("%w: %s", ErrInvalid, why)
	}
	topic, _ := research.Lookup(id)
	if !s.Ledger.Spend(topic.Cost, economy.Research, "research "+id) {
		return fmt.Errorf("%w: %s costs %d", ErrInsufficientFunds, id, topic.Cost)
	}
	s.Research.Start(id)
	return nil
}

// CancelResearch abandons the running topic without a refund.
func (s *Simulation) CancelResearch() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Research.Cancel() {
		return fmt.Errorf("%w: no research in progress", ErrInvalid)
	}
	return nil
}

// TakeLoan borrows amount.
func (s *Simulation) TakeLoan(amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Ledger.TakeLoan(amount) {
		return fmt.Errorf("%w: loan amount must be positive", ErrInvalid)
	}
	s.emit("finance", fmt.Sprintf("Borrowed %d", amount), map[string]any{"debt": s.Ledger.Debt()})
	return nil
}

// RepayLoan pays back up to amount of the outstanding debt.
func (s *Simulation) RepayLoan(amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount <= 0 || s.Ledger.Debt() == 0 {
		return fmt.Errorf("%w: nothing to repay", ErrInvalid)
	}
	if !s.Ledger.RepayLoan(amount) {
		return fmt.Errorf("%w: cannot repay %d", ErrInsufficientFunds, min(amount, s.Ledger.Debt()))
	}
	return nil
}

// ForceWeather overrides the current weather.
func (s *Simulation) ForceWeather(name string) error {
	st, ok := weather.Parse(name)
	if !ok {
		return fmt.Errorf("%w: unknown weather %q", ErrInvalid, name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Weather.Force(st)
	return nil
}

// Pause freezes game time.
func (s *Simulation) Pause() {
	s.Do(s.Clock.Pause)
}

// Resume unfreezes game time.
func (s *Simulation) Resume() {
	s.Do(s.Clock.Resume)
}

// SetTimeScale sets game-seconds per real second.
func (s *Simulation) SetTimeScale(v float64) error {
	if v < 0 {
		return fmt.Errorf("%w: time scale must be >= 0", ErrInvalid)
	}
	s.Do(func() { s.Clock.SetTimeScale(v) })
	return nil
}

// SkipDay jumps to the start of the next day, running the full day boundary.
func (s *Simulation) SkipDay() {
	s.mu.Lock()
	s.Clock.AdvanceToNextDay()
	ended := s.takeEndedDays()
	s.mu.Unlock()

	s.runDayHooks(ended)
}
