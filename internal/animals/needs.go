// Package animals models zoo animals and their six-channel biological needs.
// Every channel is a [0,1] fulfillment value that decays over time and is
// replenished by keeper actions.
package animals

import (
	"log/slog"

	"github.com/talgya/zoo-sim/internal/signal"
)

// Channel enumerates the need channels. The order is also the tie-break
// priority for MostUrgent: hunger first.
type Channel uint8

const (
	Hunger Channel = iota
	Thirst
	Energy
	Health
	Happiness
	Social
)

// NumChannels is the number of need channels.
const NumChannels = 6

// Channels lists every channel in priority order.
var Channels = [NumChannels]Channel{Hunger, Thirst, Energy, Health, Happiness, Social}

// String returns the channel name.
func (c Channel) String() string {
	switch c {
	case Hunger:
		return "Hunger"
	case Thirst:
		return "Thirst"
	case Energy:
		return "Energy"
	case Health:
		return "Health"
	case Happiness:
		return "Happiness"
	case Social:
		return "Social"
	default:
		return "Unknown"
	}
}

// ParseChannel maps a channel name back to its value.
func ParseChannel(name string) (Channel, bool) {
	for _, c := range Channels {
		if c.String() == name {
			return c, true
		}
	}
	return 0, false
}

// DefaultCriticalThreshold is the value below which a channel is urgent.
const DefaultCriticalThreshold = 0.15

// Coupling thresholds between channels.
const (
	tiredThreshold    = 0.2 // energy below this makes happiness decay faster
	starvingThreshold = 0.1 // hunger or thirst below this damages health
)

// Rates holds per-channel decay rates (units per second) and the coupling penalties.
type Rates struct {
	Hunger    float64 `yaml:"hunger"`
	Thirst    float64 `yaml:"thirst"`
	Energy    float64 `yaml:"energy"`
	Health    float64 `yaml:"health"`
	Happiness float64 `yaml:"happiness"`
	Social    float64 `yaml:"social"`

	TiredHappinessPenalty float64 `yaml:"tired_happiness_penalty"` // added to happiness decay when energy is low
	StarvingHealthDamage  float64 `yaml:"starving_health_damage"`  // extra health decay when hungry or thirsty
}

// DefaultRates returns the standard decay rates for a zoo animal.
func DefaultRates() Rates {
	return Rates{
		Hunger:                0.005,
		Thirst:                0.007,
		Energy:                0.003,
		Health:                0,
		Happiness:             0.002,
		Social:                0.004,
		TiredHappinessPenalty: 0.004,
		StarvingHealthDamage:  0.002,
	}
}

// NeedChange is raised when a channel's value changes.
type NeedChange struct {
	Channel Channel
	Value   float64
}

// Needs is one animal's need state. Not safe for concurrent use.
type Needs struct {
	values    [NumChannels]float64
	rates     Rates
	threshold float64

	// Own tick cadence, independent of the world clock.
	interval float64
	elapsed  float64

	Changed  signal.Signal[NeedChange]
	Critical signal.Signal[Channel]
}

// NewNeeds creates a fully satisfied need state.
// tickInterval is how many seconds accumulate before decay is applied; 0 decays every Advance.
func NewNeeds(rates Rates, threshold, tickInterval float64) *Needs {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultCriticalThreshold
	}
	if tickInterval < 0 {
		tickInterval = 0
	}
	n := &Needs{
		rates:     rates,
		threshold: threshold,
		interval:  tickInterval,
	}
	for i := range n.values {
		n.values[i] = 1
	}
	return n
}

// Advance accumulates real time and applies decay once the tick interval has elapsed.
func (n *Needs) Advance(dt float64) {
	if dt <= 0 {
		return
	}
	n.elapsed += dt
	if n.elapsed < n.interval {
		return
	}
	step := n.elapsed
	n.elapsed = 0
	n.Tick(step)
}

// Tick applies dt seconds of decay to every channel, including the coupling rules.
func (n *Needs) Tick(dt float64) {
	n.Decay(Hunger, n.rates.Hunger, dt)
	n.Decay(Thirst, n.rates.Thirst, dt)
	n.Decay(Energy, n.rates.Energy, dt)
	n.Decay(Health, n.rates.Health, dt)
	n.Decay(Social, n.rates.Social, dt)

	// Low energy makes the animal unhappier faster.
	happiness := n.rates.Happiness
	if n.values[Energy] < tiredThreshold {
		happiness += n.rates.TiredHappinessPenalty
	}
	n.Decay(Happiness, happiness, dt)

	// Starvation or dehydration wears down health.
	if n.values[Hunger] < starvingThreshold || n.values[Thirst] < starvingThreshold {
		n.Decay(Health, n.rates.StarvingHealthDamage, dt)
	}
}

// Decay lowers a channel by rate×dt. Raises Changed only when the clamped value
// moves, and Critical only on the downward crossing of the threshold.
func (n *Needs) Decay(c Channel, rate, dt float64) {
	if c >= NumChannels || rate <= 0 || dt <= 0 {
		return
	}
	old := n.values[c]
	n.set(c, old-rate*dt)

	if old >= n.threshold && n.values[c] < n.threshold {
		slog.Debug("need critical", "need", c.String(), "value", n.values[c])
		n.Critical.Emit(c)
	}
}

// Feed raises hunger fulfillment.
func (n *Needs) Feed(amount float64) bool { return n.boost(Hunger, amount) }

// Water raises thirst fulfillment.
func (n *Needs) Water(amount float64) bool { return n.boost(Thirst, amount) }

// RestEnergy raises energy.
func (n *Needs) RestEnergy(amount float64) bool { return n.boost(Energy, amount) }

// Socialize raises social fulfillment.
func (n *Needs) Socialize(amount float64) bool { return n.boost(Social, amount) }

// Heal raises health.
func (n *Needs) Heal(amount float64) bool { return n.boost(Health, amount) }

// Cheer raises happiness.
func (n *Needs) Cheer(amount float64) bool { return n.boost(Happiness, amount) }

// Boost raises any channel by amount. Unknown channels and non-positive amounts are rejected.
func (n *Needs) Boost(c Channel, amount float64) bool {
	if c >= NumChannels {
		slog.Warn("boost on unknown need channel", "channel", int(c))
		return false
	}
	return n.boost(c, amount)
}

func (n *Needs) boost(c Channel, amount float64) bool {
	if amount <= 0 {
		slog.Debug("non-positive need boost ignored", "need", c.String(), "amount", amount)
		return false
	}
	n.set(c, n.values[c]+amount)
	return true
}

// set clamps into [0,1] and notifies on an actual change.
func (n *Needs) set(c Channel, v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	if v == n.values[c] {
		return
	}
	n.values[c] = v
	n.Changed.Emit(NeedChange{Channel: c, Value: v})
}

// Value returns a channel's current value, or -1 for an unknown channel.
func (n *Needs) Value(c Channel) float64 {
	if c >= NumChannels {
		return -1
	}
	return n.values[c]
}

// Values returns all channels in Channels order.
func (n *Needs) Values() [NumChannels]float64 {
	return n.values
}

// Restore overwrites all channels from a save without notifications.
func (n *Needs) Restore(values [NumChannels]float64) {
	for i, v := range values {
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		n.values[i] = v
	}
}

// Threshold returns the critical threshold.
func (n *Needs) Threshold() float64 { return n.threshold }

// MostUrgent returns the lowest channel; ties go to the earlier channel in priority order.
func (n *Needs) MostUrgent() Channel {
	urgent := Hunger
	lowest := n.values[Hunger]
	for _, c := range Channels[1:] {
		if n.values[c] < lowest {
			lowest = n.values[c]
			urgent = c
		}
	}
	return urgent
}

// Wellbeing returns the unweighted mean of all channels.
func (n *Needs) Wellbeing() float64 {
	sum := 0.0
	for _, v := range n.values {
		sum += v
	}
	return sum / NumChannels
}

// AnyCritical reports whether any channel is below the threshold.
func (n *Needs) AnyCritical() bool {
	for _, v := range n.values {
		if v < n.threshold {
			return true
		}
	}
	return false
}
