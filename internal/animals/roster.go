package animals

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/talgya/zoo-sim/internal/signal"
)

// ID is a stable handle for an animal in a Roster. Zero is never issued.
type ID uint64

// Animal is one resident of the zoo.
type Animal struct {
	ID        ID
	Species   string
	Name      string
	Enclosure uint64 // enclosure handle, 0 when unhoused
	Needs     *Needs

	changedSub  signal.Handle
	criticalSub signal.Handle
}

// Record is the persisted shape of an animal.
type Record struct {
	ID        ID                   `json:"id"`
	Species   string               `json:"species"`
	Name      string               `json:"name"`
	Enclosure uint64               `json:"enclosure"`
	Needs     [NumChannels]float64 `json:"needs"`
}

// NeedEvent tags a need notification with the animal it came from.
type NeedEvent struct {
	Animal  ID
	Channel Channel
	Value   float64
}

// RosterConfig controls the needs model of every animal the roster creates.
type RosterConfig struct {
	Rates        Rates
	Threshold    float64
	TickInterval float64 // seconds between each animal's decay steps
}

// DefaultRosterConfig returns default rates, a 0.15 threshold and a one-second cadence.
func DefaultRosterConfig() RosterConfig {
	return RosterConfig{
		Rates:        DefaultRates(),
		Threshold:    DefaultCriticalThreshold,
		TickInterval: 1,
	}
}

// Roster owns every live animal. Lookups by a removed ID return false.
type Roster struct {
	cfg     RosterConfig
	animals map[ID]*Animal
	nextID  ID

	NeedChanged  signal.Signal[NeedEvent]
	NeedCritical signal.Signal[NeedEvent]
	CountChanged signal.Signal[int]
}

// NewRoster creates an empty roster.
func NewRoster(cfg RosterConfig) *Roster {
	return &Roster{
		cfg:     cfg,
		animals: make(map[ID]*Animal),
		nextID:  1,
	}
}

// Add creates an animal with full needs. Empty species or names are rejected.
func (r *Roster) Add(species, name string, enclosure uint64) (ID, bool) {
	species = strings.TrimSpace(species)
	name = strings.TrimSpace(name)
	if species == "" || name == "" {
		slog.Warn("animal rejected: missing species or name", "species", species, "name", name)
		return 0, false
	}

	id := r.nextID
	r.nextID++
	a := &Animal{
		ID:        id,
		Species:   species,
		Name:      name,
		Enclosure: enclosure,
		Needs:     NewNeeds(r.cfg.Rates, r.cfg.Threshold, r.cfg.TickInterval),
	}
	r.attach(a)

	slog.Info("animal added", "id", id, "species", species, "name", name)
	r.CountChanged.Emit(len(r.animals))
	return id, true
}

func (r *Roster) attach(a *Animal) {
	id := a.ID
	a.changedSub = a.Needs.Changed.Subscribe(func(c NeedChange) {
		r.NeedChanged.Emit(NeedEvent{Animal: id, Channel: c.Channel, Value: c.Value})
	})
	a.criticalSub = a.Needs.Critical.Subscribe(func(c Channel) {
		r.NeedCritical.Emit(NeedEvent{Animal: id, Channel: c, Value: a.Needs.Value(c)})
	})
	r.animals[id] = a
}

// Remove drops an animal. Returns false for an unknown ID.
func (r *Roster) Remove(id ID) bool {
	a, ok := r.animals[id]
	if !ok {
		return false
	}
	a.Needs.Changed.Unsubscribe(a.changedSub)
	a.Needs.Critical.Unsubscribe(a.criticalSub)
	delete(r.animals, id)

	slog.Info("animal removed", "id", id, "species", a.Species, "name", a.Name)
	r.CountChanged.Emit(len(r.animals))
	return true
}

// Get looks up an animal by handle.
func (r *Roster) Get(id ID) (*Animal, bool) {
	a, ok := r.animals[id]
	return a, ok
}

// Move rehouses an animal. Returns false for an unknown ID.
func (r *Roster) Move(id ID, enclosure uint64) bool {
	a, ok := r.animals[id]
	if !ok {
		return false
	}
	a.Enclosure = enclosure
	return true
}

// Animals returns every animal ordered by ID.
func (r *Roster) Animals() []*Animal {
	out := make([]*Animal, 0, len(r.animals))
	for _, a := range r.animals {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Advance runs each animal's own needs cadence, in ID order.
func (r *Roster) Advance(dt float64) {
	for _, a := range r.Animals() {
		a.Needs.Advance(dt)
	}
}

// Count returns the number of live animals.
func (r *Roster) Count() int { return len(r.animals) }

// SpeciesCount returns the number of distinct species.
func (r *Roster) SpeciesCount() int {
	seen := make(map[string]struct{}, len(r.animals))
	for _, a := range r.animals {
		seen[a.Species] = struct{}{}
	}
	return len(seen)
}

// InEnclosure counts the animals housed in one enclosure.
func (r *Roster) InEnclosure(enclosure uint64) int {
	n := 0
	for _, a := range r.animals {
		if a.Enclosure == enclosure {
			n++
		}
	}
	return n
}

// MeanHappiness averages the happiness channel. ok is false when the roster is empty.
func (r *Roster) MeanHappiness() (mean float64, ok bool) {
	if len(r.animals) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, a := range r.animals {
		sum += a.Needs.Value(Happiness)
	}
	return sum / float64(len(r.animals)), true
}

// CriticalCount returns how many animals have at least one critical need.
func (r *Roster) CriticalCount() int {
	n := 0
	for _, a := range r.animals {
		if a.Needs.AnyCritical() {
			n++
		}
	}
	return n
}

// Tend boosts the most urgent need of up to n animals, neediest first.
// Returns how many animals were cared for.
func (r *Roster) Tend(n int, amount float64) int {
	if n <= 0 || amount <= 0 {
		return 0
	}
	list := r.Animals()
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Needs.Wellbeing() < list[j].Needs.Wellbeing()
	})
	if n > len(list) {
		n = len(list)
	}
	for _, a := range list[:n] {
		a.Needs.Boost(a.Needs.MostUrgent(), amount)
	}
	return n
}

// Records exports the roster for saving.
func (r *Roster) Records() []Record {
	list := r.Animals()
	out := make([]Record, len(list))
	for i, a := range list {
		out[i] = Record{
			ID:        a.ID,
			Species:   a.Species,
			Name:      a.Name,
			Enclosure: a.Enclosure,
			Needs:     a.Needs.Values(),
		}
	}
	return out
}

// Restore replaces the roster with saved records, keeping their IDs.
// No count or need notifications are raised.
func (r *Roster) Restore(records []Record) {
	for id := range r.animals {
		a := r.animals[id]
		a.Needs.Changed.Unsubscribe(a.changedSub)
		a.Needs.Critical.Unsubscribe(a.criticalSub)
	}
	r.animals = make(map[ID]*Animal, len(records))
	r.nextID = 1

	for _, rec := range records {
		if rec.ID == 0 {
			slog.Warn("skipping saved animal without id", "name", rec.Name)
			continue
		}
		a := &Animal{
			ID:        rec.ID,
			Species:   rec.Species,
			Name:      rec.Name,
			Enclosure: rec.Enclosure,
			Needs:     NewNeeds(r.cfg.Rates, r.cfg.Threshold, r.cfg.TickInterval),
		}
		a.Needs.Restore(rec.Needs)
		r.attach(a)
		if rec.ID >= r.nextID {
			r.nextID = rec.ID + 1
		}
	}
}
