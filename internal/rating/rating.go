// Package rating computes the zoo's 0–5 star rating from five sub-scores.
package rating

import (
	"log/slog"
	"math"

	"github.com/talgya/zoo-sim/internal/signal"
)

// Sub-score weights. They sum to 1.
const (
	WeightDiversity    = 0.25
	WeightHappiness    = 0.25
	WeightSatisfaction = 0.20
	WeightEnclosure    = 0.15
	WeightAmenity      = 0.15
)

const (
	MaxStars  = 5.0
	Tolerance = 0.05

	speciesForFullScore = 5
	staffForFullScore   = 5
)

// Fallbacks used when a collaborator is missing or has nothing to report.
const (
	DefaultHappiness    = 0.5
	DefaultSatisfaction = 0.5
	DefaultEnclosure    = 0.5
	DefaultAmenity      = 0.3
)

// AnimalStats is read from the animal roster.
type AnimalStats interface {
	SpeciesCount() int
	MeanHappiness() (float64, bool)
}

// VisitorStats is read from the visitor pool.
type VisitorStats interface {
	Satisfaction() float64 // 0–100
}

// EnclosureStats is read from the enclosure registry.
type EnclosureStats interface {
	MeanCondition() (float64, bool)
}

// StaffStats is read from the staff roster.
type StaffStats interface {
	Count() int
}

// Scores holds the five [0,1] sub-scores.
type Scores struct {
	Diversity    float64 `json:"diversity"`
	Happiness    float64 `json:"happiness"`
	Satisfaction float64 `json:"satisfaction"`
	Enclosure    float64 `json:"enclosure"`
	Amenity      float64 `json:"amenity"`
}

// Composite combines sub-scores into stars. Inputs are clamped, so the result is always in [0,5].
func Composite(s Scores) float64 {
	total := clamp01(s.Diversity)*WeightDiversity +
		clamp01(s.Happiness)*WeightHappiness +
		clamp01(s.Satisfaction)*WeightSatisfaction +
		clamp01(s.Enclosure)*WeightEnclosure +
		clamp01(s.Amenity)*WeightAmenity
	return math.Max(0, math.Min(MaxStars, total*MaxStars))
}

// Sources bundles the collaborators a Rating reads. Any field may be nil.
type Sources struct {
	Animals    AnimalStats
	Visitors   VisitorStats
	Enclosures EnclosureStats
	Staff      StaffStats
}

// Rating holds the last computed rating.
type Rating struct {
	src    Sources
	scores Scores
	value  float64

	Changed signal.Signal[float64]
}

// New creates a rating at zero stars.
func New(src Sources) *Rating {
	return &Rating{src: src}
}

// Recalculate pulls fresh snapshots from every source and recomputes from scratch.
// Changed fires only when the rating moves by more than Tolerance.
func (r *Rating) Recalculate() float64 {
	s := Scores{
		Happiness:    DefaultHappiness,
		Satisfaction: DefaultSatisfaction,
		Enclosure:    DefaultEnclosure,
		Amenity:      DefaultAmenity,
	}

	if r.src.Animals != nil {
		s.Diversity = clamp01(float64(r.src.Animals.SpeciesCount()) / speciesForFullScore)
		if h, ok := r.src.Animals.MeanHappiness(); ok {
			s.Happiness = clamp01(h)
		}
	} else {
		slog.Debug("rating: no animal source")
	}
	if r.src.Visitors != nil {
		s.Satisfaction = clamp01(r.src.Visitors.Satisfaction() / 100)
	}
	if r.src.Enclosures != nil {
		if c, ok := r.src.Enclosures.MeanCondition(); ok {
			s.Enclosure = clamp01(c)
		}
	}
	if r.src.Staff != nil {
		s.Amenity = clamp01(float64(r.src.Staff.Count()) / staffForFullScore)
	}

	old := r.value
	r.scores = s
	r.value = Composite(s)

	if math.Abs(r.value-old) > Tolerance {
		slog.Info("rating changed", "from", round2(old), "to", round2(r.value))
		r.Changed.Emit(r.value)
	}
	return r.value
}

// Value returns the current rating in stars.
func (r *Rating) Value() float64 { return r.value }

// Scores returns the sub-scores behind the current rating.
func (r *Rating) Scores() Scores { return r.scores }

// VisitorSpawnMultiplier is 1 + rating × 0.5.
func (r *Rating) VisitorSpawnMultiplier() float64 {
	return 1 + r.value*0.5
}

// Restore sets the rating from a save without notifications.
func (r *Rating) Restore(value float64) {
	r.value = math.Max(0, math.Min(MaxStars, value))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
