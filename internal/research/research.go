// Package research runs the zoo's research queue: one topic at a time,
// progressing in real seconds until complete.
package research

import (
	"log/slog"
	"strings"

	"github.com/talgya/zoo-sim/internal/signal"
)

// DefaultDuration is how long a topic takes, in seconds.
const DefaultDuration = 300.0

// Topic is one researchable item.
type Topic struct {
	ID   string `json:"id"`
	Cost int64  `json:"cost"`
	Tier int    `json:"tier"`
}

// Topics is the built-in research list.
var Topics = []Topic{
	{"BetterFeed", 1000, 0},
	{"VeterinaryMedicine", 1500, 0},
	{"EnrichedEnclosures", 1500, 0},
	{"BreedingProgram", 2500, 1},
	{"VisitorAmenities", 2000, 1},
	{"ConservationEfforts", 3000, 1},
	{"AdvancedHabitats", 4000, 2},
	{"NighttimeExhibits", 4000, 2},
	{"EducationalPrograms", 3000, 2},
	{"SustainableEnergy", 5000, 3},
}

// Lookup finds a topic by ID.
func Lookup(id string) (Topic, bool) {
	for _, t := range Topics {
		if t.ID == id {
			return t, true
		}
	}
	return Topic{}, false
}

// Progress describes the running topic.
type Progress struct {
	Current  string  `json:"current"`
	Elapsed  float64 `json:"elapsed"`
	Fraction float64 `json:"fraction"`
}

// Queue tracks the active topic and everything completed.
type Queue struct {
	duration  float64
	current   string
	elapsed   float64
	completed map[string]bool

	Started   signal.Signal[string]
	Completed signal.Signal[string]
}

// NewQueue creates an idle queue. A non-positive duration uses DefaultDuration.
func NewQueue(duration float64) *Queue {
	if duration <= 0 {
		duration = DefaultDuration
	}
	slog.Info("research initialized", "topics", len(Topics), "duration", duration)
	return &Queue{duration: duration, completed: make(map[string]bool)}
}

// CanStart reports whether id could be started right now, and why not.
func (q *Queue) CanStart(id string) (bool, string) {
	switch {
	case strings.TrimSpace(id) == "":
		return false, "empty research id"
	case q.current != "":
		return false, "research already in progress"
	case q.completed[id]:
		return false, "already researched"
	}
	if _, ok := Lookup(id); !ok {
		return false, "unknown research topic"
	}
	return true, ""
}

// Start begins researching id.
func (q *Queue) Start(id string) bool {
	if ok, why := q.CanStart(id); !ok {
		slog.Warn("research not started", "topic", id, "reason", why)
		return false
	}
	q.current = id
	q.elapsed = 0
	slog.Info("research started", "topic", id, "duration", q.duration)
	q.Started.Emit(id)
	return true
}

// Tick advances the active topic and completes it when its duration elapses.
func (q *Queue) Tick(dt float64) {
	if q.current == "" || dt <= 0 {
		return
	}
	q.elapsed += dt
	if q.elapsed < q.duration {
		return
	}
	done := q.current
	q.completed[done] = true
	q.current = ""
	q.elapsed = 0
	slog.Info("research completed", "topic", done, "total", len(q.completed))
	q.Completed.Emit(done)
}

// Cancel abandons the active topic. Progress is lost.
func (q *Queue) Cancel() bool {
	if q.current == "" {
		return false
	}
	slog.Info("research cancelled", "topic", q.current, "percent", q.elapsed/q.duration*100)
	q.current = ""
	q.elapsed = 0
	return true
}

// Progress returns the active topic and its completion fraction.
func (q *Queue) Progress() Progress {
	p := Progress{Current: q.current, Elapsed: q.elapsed}
	if q.current != "" {
		p.Fraction = min(1, q.elapsed/q.duration)
	}
	return p
}

// IsResearched reports whether id is complete.
func (q *Queue) IsResearched(id string) bool { return q.completed[id] }

// Available lists topics that are neither complete nor in progress, in table order.
func (q *Queue) Available() []string {
	var out []string
	for _, t := range Topics {
		if q.completed[t.ID] || t.ID == q.current {
			continue
		}
		out = append(out, t.ID)
	}
	return out
}

// CompletedList returns finished topics in table order.
func (q *Queue) CompletedList() []string {
	var out []string
	for _, t := range Topics {
		if q.completed[t.ID] {
			out = append(out, t.ID)
		}
	}
	return out
}

// Restore sets queue state from a save without notifications.
func (q *Queue) Restore(current string, elapsed float64, completed []string) {
	q.completed = make(map[string]bool, len(completed))
	for _, id := range completed {
		if _, ok := Lookup(id); ok {
			q.completed[id] = true
		}
	}
	q.current, q.elapsed = "", 0
	if _, ok := Lookup(current); ok && !q.completed[current] {
		q.current = current
		q.elapsed = max(0, elapsed)
	}
}
