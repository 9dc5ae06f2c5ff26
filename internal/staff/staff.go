// Package staff keeps the zoo's employee records and payroll.
package staff

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/talgya/zoo-sim/internal/signal"
)

// Role is an employee's job.
type Role uint8

const (
	Zookeeper Role = iota
	Veterinarian
	Janitor
	Mechanic
	Guide
)

var roleNames = map[Role]string{
	Zookeeper:    "Zookeeper",
	Veterinarian: "Veterinarian",
	Janitor:      "Janitor",
	Mechanic:     "Mechanic",
	Guide:        "Guide",
}

func (r Role) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return "Unknown"
}

// ParseRole maps a role name to its value, case-insensitively.
func ParseRole(s string) (Role, bool) {
	for r, n := range roleNames {
		if strings.EqualFold(n, s) {
			return r, true
		}
	}
	return 0, false
}

// DefaultSalary is the daily wage of a new hire in each role.
func DefaultSalary(r Role) int64 {
	switch r {
	case Zookeeper:
		return 100
	case Veterinarian:
		return 200
	case Janitor:
		return 75
	case Mechanic:
		return 125
	case Guide:
		return 90
	default:
		return 100
	}
}

// ID identifies an employee.
type ID uint64

// Member is one employee record.
type Member struct {
	ID        ID      `json:"id" db:"id"`
	Name      string  `json:"name" db:"name"`
	Role      Role    `json:"role" db:"role"`
	Salary    int64   `json:"salary" db:"salary"`
	Skill     float64 `json:"skill" db:"skill"`
	Enclosure uint64  `json:"enclosure" db:"enclosure_id"` // 0 when unassigned
}

// Roster holds every employee, in hiring order.
type Roster struct {
	members []Member
	nextID  ID

	Hired signal.Signal[ID]
	Fired signal.Signal[ID]
}

// NewRoster creates an empty staff roster.
func NewRoster() *Roster {
	return &Roster{nextID: 1}
}

// Hire adds an employee at the role's default salary. Empty names are rejected.
func (r *Roster) Hire(role Role, name string) (ID, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		slog.Warn("hire rejected: empty name", "role", role.String())
		return 0, false
	}
	if _, ok := roleNames[role]; !ok {
		slog.Warn("hire rejected: unknown role", "role", int(role))
		return 0, false
	}

	m := Member{
		ID:     r.nextID,
		Name:   name,
		Role:   role,
		Salary: DefaultSalary(role),
		Skill:  0.5,
	}
	r.nextID++
	r.members = append(r.members, m)

	slog.Info("staff hired", "id", m.ID, "name", m.Name, "role", role.String(), "salary", m.Salary, "total", len(r.members))
	r.Hired.Emit(m.ID)
	return m.ID, true
}

// Fire removes an employee.
func (r *Roster) Fire(id ID) bool {
	i := r.index(id)
	if i < 0 {
		slog.Warn("fire: no staff member", "id", id)
		return false
	}
	name := r.members[i].Name
	r.members = append(r.members[:i], r.members[i+1:]...)

	slog.Info("staff fired", "id", id, "name", name, "total", len(r.members))
	r.Fired.Emit(id)
	return true
}

// Assign puts an employee on an enclosure; 0 unassigns.
func (r *Roster) Assign(id ID, enclosure uint64) bool {
	i := r.index(id)
	if i < 0 {
		slog.Warn("assign: no staff member", "id", id)
		return false
	}
	r.members[i].Enclosure = enclosure
	slog.Debug("staff assigned", "id", id, "enclosure", enclosure)
	return true
}

// Get returns a copy of one employee record.
func (r *Roster) Get(id ID) (Member, bool) {
	i := r.index(id)
	if i < 0 {
		return Member{}, false
	}
	return r.members[i], true
}

// Members returns copies of all records in hiring order.
func (r *Roster) Members() []Member {
	out := make([]Member, len(r.members))
	copy(out, r.members)
	return out
}

// Count returns the headcount.
func (r *Roster) Count() int { return len(r.members) }

// CountRole returns the headcount of one role.
func (r *Roster) CountRole(role Role) int {
	n := 0
	for _, m := range r.members {
		if m.Role == role {
			n++
		}
	}
	return n
}

// DailySalaryCost sums every salary.
func (r *Roster) DailySalaryCost() int64 {
	var total int64
	for _, m := range r.members {
		total += m.Salary
	}
	return total
}

// Restore replaces the roster from a save without notifications.
func (r *Roster) Restore(members []Member) {
	r.members = r.members[:0]
	r.nextID = 1
	for _, m := range members {
		if m.ID == 0 {
			continue
		}
		r.members = append(r.members, m)
		if m.ID >= r.nextID {
			r.nextID = m.ID + 1
		}
	}
	sort.SliceStable(r.members, func(i, j int) bool { return r.members[i].ID < r.members[j].ID })
}

func (r *Roster) index(id ID) int {
	for i := range r.members {
		if r.members[i].ID == id {
			return i
		}
	}
	return -1
}
