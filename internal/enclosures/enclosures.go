// Package enclosures tracks the zoo's animal habitats and their upkeep.
package enclosures

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/talgya/zoo-sim/internal/signal"
)

// ID is a stable enclosure handle. Zero means "no enclosure".
type ID uint64

// DefaultCapacity is how many animals an enclosure holds unless told otherwise.
const DefaultCapacity = 5

// Enclosure is one habitat.
type Enclosure struct {
	ID          ID      `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Capacity    int     `json:"capacity" db:"capacity"`
	Condition   float64 `json:"condition" db:"condition"` // 0–1
	Maintenance int64   `json:"maintenance" db:"maintenance"`
}

// ConditionChange is raised when an enclosure's condition moves.
type ConditionChange struct {
	ID        ID
	Condition float64
}

// Config holds upkeep tuning.
type Config struct {
	DailyDegrade       float64 `yaml:"daily_degrade"`       // condition lost per day
	DefaultMaintenance int64   `yaml:"default_maintenance"` // per enclosure per day
	FullRepairCost     int64   `yaml:"full_repair_cost"`    // cost of repairing from 0 to 1
}

// DefaultConfig returns standard upkeep values.
func DefaultConfig() Config {
	return Config{
		DailyDegrade:       0.02,
		DefaultMaintenance: 50,
		FullRepairCost:     500,
	}
}

// Registry owns every enclosure.
type Registry struct {
	cfg    Config
	items  map[ID]*Enclosure
	nextID ID

	ConditionChanged signal.Signal[ConditionChange]
	CountChanged     signal.Signal[int]
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg Config) *Registry {
	return &Registry{cfg: cfg, items: make(map[ID]*Enclosure), nextID: 1}
}

// Add builds a new enclosure in perfect condition. capacity ≤ 0 uses DefaultCapacity.
func (r *Registry) Add(name string, capacity int) (ID, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		slog.Warn("enclosure rejected: empty name")
		return 0, false
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	id := r.nextID
	r.nextID++
	r.items[id] = &Enclosure{
		ID:          id,
		Name:        name,
		Capacity:    capacity,
		Condition:   1,
		Maintenance: r.cfg.DefaultMaintenance,
	}
	slog.Info("enclosure built", "id", id, "name", name, "capacity", capacity)
	r.CountChanged.Emit(len(r.items))
	return id, true
}

// Remove demolishes an enclosure.
func (r *Registry) Remove(id ID) bool {
	e, ok := r.items[id]
	if !ok {
		return false
	}
	delete(r.items, id)
	slog.Info("enclosure removed", "id", id, "name", e.Name)
	r.CountChanged.Emit(len(r.items))
	return true
}

// Get returns a copy of an enclosure.
func (r *Registry) Get(id ID) (Enclosure, bool) {
	e, ok := r.items[id]
	if !ok {
		return Enclosure{}, false
	}
	return *e, true
}

// List returns copies of all enclosures ordered by ID.
func (r *Registry) List() []Enclosure {
	out := make([]Enclosure, 0, len(r.items))
	for _, e := range r.items {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of enclosures.
func (r *Registry) Count() int { return len(r.items) }

// MeanCondition averages condition. ok is false when there are no enclosures.
func (r *Registry) MeanCondition() (float64, bool) {
	if len(r.items) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, e := range r.items {
		sum += e.Condition
	}
	return sum / float64(len(r.items)), true
}

// Degrade lowers one enclosure's condition, clamped at 0.
func (r *Registry) Degrade(id ID, amount float64) bool {
	e, ok := r.items[id]
	if !ok || amount <= 0 {
		return false
	}
	r.setCondition(e, e.Condition-amount)
	return true
}

// DegradeAll applies the configured daily wear to every enclosure.
func (r *Registry) DegradeAll() {
	if r.cfg.DailyDegrade <= 0 {
		return
	}
	for _, e := range r.List() {
		r.Degrade(e.ID, r.cfg.DailyDegrade)
	}
}

// RepairCost is what a full repair of id costs now.
func (r *Registry) RepairCost(id ID) (int64, bool) {
	e, ok := r.items[id]
	if !ok {
		return 0, false
	}
	return int64(math.Ceil((1 - e.Condition) * float64(r.cfg.FullRepairCost))), true
}

// Repair restores an enclosure to full condition. The caller pays RepairCost first.
func (r *Registry) Repair(id ID) bool {
	e, ok := r.items[id]
	if !ok {
		return false
	}
	r.setCondition(e, 1)
	return true
}

// MaintenanceCost sums every enclosure's daily upkeep.
func (r *Registry) MaintenanceCost() int64 {
	var total int64
	for _, e := range r.items {
		total += e.Maintenance
	}
	return total
}

// Restore replaces the registry from a save without notifications.
func (r *Registry) Restore(list []Enclosure) {
	r.items = make(map[ID]*Enclosure, len(list))
	r.nextID = 1
	for _, e := range list {
		if e.ID == 0 {
			continue
		}
		cp := e
		cp.Condition = clamp01(cp.Condition)
		r.items[cp.ID] = &cp
		if cp.ID >= r.nextID {
			r.nextID = cp.ID + 1
		}
	}
}

func (r *Registry) setCondition(e *Enclosure, v float64) {
	v = clamp01(v)
	if v == e.Condition {
		return
	}
	e.Condition = v
	r.ConditionChanged.Emit(ConditionChange{ID: e.ID, Condition: v})
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
