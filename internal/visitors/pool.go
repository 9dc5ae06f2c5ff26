// Package visitors tracks the guests currently in the zoo and how happy they are.
package visitors

import (
	"log/slog"
	"math"

	"github.com/talgya/zoo-sim/internal/signal"
)

const (
	DefaultCapacity   = 50
	DefaultAttraction = 10

	neutralSatisfaction = 50.0
	baseSatisfaction    = 75.0
	crowdingThreshold   = 0.7
	satisfactionEpsilon = 0.1
)

// MultiplierSource supplies the spawn multiplier derived from the zoo rating.
type MultiplierSource interface {
	VisitorSpawnMultiplier() float64
}

// Report summarizes the pool for display.
type Report struct {
	Count        int     `json:"count"`
	Capacity     int     `json:"capacity"`
	Satisfaction float64 `json:"satisfaction"`
	Attraction   int     `json:"attraction"`
	Today        int     `json:"today"`
	AllTime      int64   `json:"all_time"`
}

// Pool is the visitor population. Not safe for concurrent use.
type Pool struct {
	count        int
	capacity     int
	satisfaction float64
	base         int
	rating       MultiplierSource

	today   int
	allTime int64

	CountChanged        signal.Signal[int]
	SatisfactionChanged signal.Signal[float64]
}

// NewPool creates an empty pool. rating may be nil; the multiplier is then 1.
func NewPool(capacity, baseAttraction int, rating MultiplierSource) *Pool {
	if capacity < 0 {
		capacity = 0
	}
	if baseAttraction <= 0 {
		baseAttraction = DefaultAttraction
	}
	slog.Info("visitor pool initialized", "capacity", capacity)
	return &Pool{
		capacity:     capacity,
		satisfaction: neutralSatisfaction,
		base:         baseAttraction,
		rating:       rating,
	}
}

// SetRating wires the multiplier source after construction.
func (p *Pool) SetRating(r MultiplierSource) { p.rating = r }

// Spawn admits up to n visitors, clamped to free capacity. Returns how many entered.
func (p *Pool) Spawn(n int) int {
	if n <= 0 {
		return 0
	}
	free := p.capacity - p.count
	actual := min(n, free)
	if actual <= 0 {
		slog.Debug("zoo at capacity", "count", p.count, "capacity", p.capacity)
		return 0
	}
	old := p.count
	p.count += actual
	p.today += actual
	p.allTime += int64(actual)

	slog.Debug("visitors spawned", "requested", n, "admitted", actual, "from", old, "to", p.count)
	p.CountChanged.Emit(p.count)
	return actual
}

// DespawnAll empties the zoo.
func (p *Pool) DespawnAll() {
	if p.count == 0 {
		return
	}
	slog.Info("despawning all visitors", "count", p.count)
	p.count = 0
	p.CountChanged.Emit(0)
}

// Leave sends up to n visitors home early. Returns how many left.
func (p *Pool) Leave(n int) int {
	gone := min(max(n, 0), p.count)
	if gone == 0 {
		return 0
	}
	p.count -= gone
	slog.Debug("visitors left early", "left", gone, "remaining", p.count)
	p.CountChanged.Emit(p.count)
	return gone
}

// UpdateSatisfaction recomputes the crowding model: neutral when empty,
// otherwise 75 minus one point per percent of occupancy above 70%.
func (p *Pool) UpdateSatisfaction() {
	old := p.satisfaction

	if p.count == 0 || p.capacity == 0 {
		p.satisfaction = neutralSatisfaction
	} else {
		occupancy := float64(p.count) / float64(p.capacity)
		penalty := 0.0
		if occupancy > crowdingThreshold {
			penalty = (occupancy - crowdingThreshold) * 100
		}
		p.satisfaction = math.Max(0, math.Min(100, baseSatisfaction-penalty))
	}

	if math.Abs(old-p.satisfaction) > satisfactionEpsilon {
		p.SatisfactionChanged.Emit(p.satisfaction)
	}
}

// AttractionScore is how many visitors the zoo draws per hour before noise:
// floor(satisfaction fraction × base × rating multiplier), at least 1.
func (p *Pool) AttractionScore() int {
	mult := 1.0
	if p.rating != nil {
		mult = p.rating.VisitorSpawnMultiplier()
	}
	score := int(math.Floor(p.satisfaction / 100 * float64(p.base) * mult))
	return max(1, score)
}

// SetCapacity changes the limit. Visitors above the new limit leave.
func (p *Pool) SetCapacity(c int) {
	if c < 0 {
		slog.Warn("negative visitor capacity ignored", "requested", c)
		return
	}
	p.capacity = c
	if p.count > c {
		p.count = c
		p.CountChanged.Emit(p.count)
	}
}

// StartDay resets the daily visit counter.
func (p *Pool) StartDay() { p.today = 0 }

// Count returns visitors currently in the zoo.
func (p *Pool) Count() int { return p.count }

// Capacity returns the visitor limit.
func (p *Pool) Capacity() int { return p.capacity }

// Satisfaction returns average satisfaction in [0,100].
func (p *Pool) Satisfaction() float64 { return p.satisfaction }

// Report returns a snapshot for display.
func (p *Pool) Report() Report {
	return Report{
		Count:        p.count,
		Capacity:     p.capacity,
		Satisfaction: p.satisfaction,
		Attraction:   p.AttractionScore(),
		Today:        p.today,
		AllTime:      p.allTime,
	}
}

// Restore sets pool state from a save without notifications.
func (p *Pool) Restore(count int, satisfaction float64, allTime int64) {
	p.count = max(0, min(count, p.capacity))
	p.satisfaction = math.Max(0, math.Min(100, satisfaction))
	p.allTime = max(allTime, 0)
}
