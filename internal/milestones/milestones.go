// Package milestones awards one-shot achievements against snapshots of zoo state.
package milestones

import (
	"log/slog"
	"sort"

	"github.com/talgya/zoo-sim/internal/signal"
)

// ID names a milestone.
type ID string

const (
	FirstSteps ID = "FirstSteps"
	GrowingZoo ID = "GrowingZoo"
	Popular    ID = "Popular"
	Paradise   ID = "Paradise"
	FiveStars  ID = "FiveStars"
	Tycoon     ID = "Tycoon"
)

// Snapshot is the zoo state milestones are judged against.
type Snapshot struct {
	Animals    int
	Species    int
	Enclosures int
	Visitors   int
	Rating     float64
	Balance    int64
}

// Milestone is one achievement definition.
type Milestone struct {
	ID          ID
	Description string
	Reward      int64 // paid once when achieved
	Met         func(Snapshot) bool
}

// Definitions is the fixed milestone list, in check order.
var Definitions = []Milestone{
	{FirstSteps, "Own an animal and an enclosure", 1000, func(s Snapshot) bool {
		return s.Animals >= 1 && s.Enclosures >= 1
	}},
	{GrowingZoo, "Keep 5 animals of at least 3 species", 2500, func(s Snapshot) bool {
		return s.Animals >= 5 && s.Species >= 3
	}},
	{Popular, "Host 20 visitors at once", 2500, func(s Snapshot) bool {
		return s.Visitors >= 20
	}},
	{Paradise, "Reach a 4 star rating", 5000, func(s Snapshot) bool {
		return s.Rating >= 4.0
	}},
	{FiveStars, "Reach a 5 star rating", 10000, func(s Snapshot) bool {
		return s.Rating >= 4.95
	}},
	{Tycoon, "Hold 50,000 in the bank", 0, func(s Snapshot) bool {
		return s.Balance >= 50000
	}},
}

// Lookup finds a definition by ID.
func Lookup(id ID) (Milestone, bool) {
	for _, m := range Definitions {
		if m.ID == id {
			return m, true
		}
	}
	return Milestone{}, false
}

// Tracker holds the achieved set. Achievements are never revoked.
type Tracker struct {
	snapshot func() Snapshot
	achieved map[ID]struct{}
	order    []ID

	Achieved signal.Signal[Milestone]
}

// NewTracker creates a tracker. snapshot may be nil, in which case CheckAll does nothing.
func NewTracker(snapshot func() Snapshot) *Tracker {
	return &Tracker{snapshot: snapshot, achieved: make(map[ID]struct{})}
}

// CheckAll evaluates every outstanding milestone and returns the newly achieved ones.
func (t *Tracker) CheckAll() []ID {
	if t.snapshot == nil {
		slog.Warn("milestone check skipped: no snapshot source")
		return nil
	}
	s := t.snapshot()

	var awarded []ID
	for _, m := range Definitions {
		if _, done := t.achieved[m.ID]; done {
			continue
		}
		if !m.Met(s) {
			continue
		}
		t.achieved[m.ID] = struct{}{}
		t.order = append(t.order, m.ID)
		awarded = append(awarded, m.ID)

		slog.Info("milestone achieved", "milestone", string(m.ID), "total", len(t.achieved))
		t.Achieved.Emit(m)
	}
	return awarded
}

// IsAchieved reports whether id has been awarded.
func (t *Tracker) IsAchieved(id ID) bool {
	_, ok := t.achieved[id]
	return ok
}

// List returns achieved IDs in award order.
func (t *Tracker) List() []ID {
	out := make([]ID, len(t.order))
	copy(out, t.order)
	return out
}

// Restore re-seeds the achieved set from a save without notifications.
// Unknown IDs are dropped.
func (t *Tracker) Restore(ids []ID) {
	t.achieved = make(map[ID]struct{}, len(ids))
	t.order = t.order[:0]
	sorted := append([]ID(nil), ids...)
	sort.SliceStable(sorted, func(i, j int) bool { return rank(sorted[i]) < rank(sorted[j]) })
	for _, id := range sorted {
		if _, ok := Lookup(id); !ok {
			slog.Warn("unknown milestone in save", "milestone", string(id))
			continue
		}
		if _, dup := t.achieved[id]; dup {
			continue
		}
		t.achieved[id] = struct{}{}
		t.order = append(t.order, id)
	}
}

func rank(id ID) int {
	for i, m := range Definitions {
		if m.ID == id {
			return i
		}
	}
	return len(Definitions)
}
