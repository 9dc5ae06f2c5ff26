// Package events rolls random zoo incidents once per in-game hour while the zoo is open.
package events

import (
	"log/slog"

	"github.com/talgya/zoo-sim/internal/entropy"
	"github.com/talgya/zoo-sim/internal/signal"
)

// ID names a random event.
type ID string

const (
	None             ID = ""
	AnimalSick       ID = "AnimalSick"
	AnimalEscape     ID = "AnimalEscape"
	VIPVisitor       ID = "VIPVisitor"
	Inspection       ID = "Inspection"
	StormDamage      ID = "StormDamage"
	Protest          ID = "Protest"
	DonationReceived ID = "DonationReceived"
)

// Table is the fixed event list with relative weights.
var Table = []entropy.Weighted[ID]{
	{Value: AnimalSick, Weight: 25},
	{Value: AnimalEscape, Weight: 10},
	{Value: VIPVisitor, Weight: 20},
	{Value: Inspection, Weight: 15},
	{Value: StormDamage, Weight: 15},
	{Value: Protest, Weight: 5},
	{Value: DonationReceived, Weight: 10},
}

// Config controls when and how often events fire.
type Config struct {
	Chance    float64 `yaml:"chance"`     // per eligible hour
	OpenHour  int     `yaml:"open_hour"`  // inclusive
	CloseHour int     `yaml:"close_hour"` // inclusive
}

// DefaultConfig is a 15% chance per hour between 08:00 and 20:00.
func DefaultConfig() Config {
	return Config{Chance: 0.15, OpenHour: 8, CloseHour: 20}
}

// Roller holds the last rolled event.
type Roller struct {
	cfg  Config
	src  entropy.Source
	last ID

	Fired signal.Signal[ID]
}

// NewRoller creates a roller. A nil src draws from crypto/rand.
func NewRoller(cfg Config, src entropy.Source) *Roller {
	if cfg.Chance < 0 {
		cfg.Chance = 0
	}
	slog.Info("event roller initialized", "chance", cfg.Chance, "open", cfg.OpenHour, "close", cfg.CloseHour)
	return &Roller{cfg: cfg, src: entropy.OrCrypto(src)}
}

// InWindow reports whether hour is inside the operating window.
func (r *Roller) InWindow(hour int) bool {
	return hour >= r.cfg.OpenHour && hour <= r.cfg.CloseHour
}

// HandleHour rolls for an event at the given hour. Returns the event that fired, if any.
func (r *Roller) HandleHour(hour int) (ID, bool) {
	if !r.InWindow(hour) {
		return None, false
	}
	if !entropy.Chance(r.src, r.cfg.Chance) {
		return None, false
	}
	id, ok := entropy.Pick(r.src, Table)
	if !ok {
		return None, false
	}
	r.last = id
	slog.Info("random event fired", "event", string(id), "hour", hour)
	r.Fired.Emit(id)
	return id, true
}

// LastEvent returns the most recent event, or None.
func (r *Roller) LastEvent() ID { return r.last }

// Restore sets the last event from a save.
func (r *Roller) Restore(id ID) { r.last = id }
