// Package weather provides the zoo's seasonal weather model.
// Weather is re-sampled on a fixed period and on every season change, and
// maps to simulation modifiers (temperature, visitor turnout).
package weather

import (
	"log/slog"

	"github.com/talgya/zoo-sim/internal/entropy"
	"github.com/talgya/zoo-sim/internal/signal"
)

// State is the current sky.
type State uint8

const (
	Clear State = iota
	Cloudy
	Rain
	Storm
	Snow
	Fog
)

// States lists every weather state in table order.
var States = []State{Clear, Cloudy, Rain, Storm, Snow, Fog}

func (s State) String() string {
	switch s {
	case Clear:
		return "Clear"
	case Cloudy:
		return "Cloudy"
	case Rain:
		return "Rain"
	case Storm:
		return "Storm"
	case Snow:
		return "Snow"
	case Fog:
		return "Fog"
	default:
		return "Unknown"
	}
}

// Parse maps a state name back to its value.
func Parse(name string) (State, bool) {
	for _, s := range States {
		if s.String() == name {
			return s, true
		}
	}
	return Clear, false
}

// DefaultChangePeriod is how long a weather state holds, in seconds.
const DefaultChangePeriod = 300.0

// seasonWeights are the relative odds of {Clear, Cloudy, Rain, Storm, Snow, Fog}.
var seasonWeights = [4][6]float64{
	{30, 25, 25, 10, 0, 10}, // Spring
	{45, 20, 15, 10, 0, 10}, // Summer
	{20, 30, 25, 10, 5, 10}, // Autumn
	{15, 20, 10, 5, 35, 15}, // Winter
}

// Base temperatures per season, °C.
var seasonTemps = [4]float64{18, 28, 14, 2}

// Offsets subtracted from the season base.
var stateOffsets = map[State]float64{
	Clear:  0,
	Cloudy: 2,
	Rain:   5,
	Storm:  8,
	Snow:   15,
	Fog:    3,
}

// Model holds the weather state and its change timer. Not safe for concurrent use.
type Model struct {
	current State
	timer   float64
	period  float64
	season  int
	src     entropy.Source

	Changed signal.Signal[State]
}

// NewModel starts in clear weather. A non-positive period uses DefaultChangePeriod;
// a nil src draws from crypto/rand.
func NewModel(period float64, season int, src entropy.Source) *Model {
	if period <= 0 {
		period = DefaultChangePeriod
	}
	m := &Model{
		current: Clear,
		timer:   period,
		period:  period,
		season:  clampSeason(season),
		src:     entropy.OrCrypto(src),
	}
	slog.Info("weather initialized", "state", m.current.String(), "period", period)
	return m
}

// Tick counts the timer down and re-samples when it expires.
func (m *Model) Tick(dt float64) {
	if dt <= 0 {
		return
	}
	m.timer -= dt
	if m.timer > 0 {
		return
	}
	m.timer = m.period
	m.apply(m.pick())
}

// OnSeasonChanged caches the new season and re-samples immediately.
// The timer is left running.
func (m *Model) OnSeasonChanged(season int) {
	m.season = clampSeason(season)
	next := m.pick()
	slog.Info("season changed weather roll", "season", m.season, "weather", next.String())
	m.apply(next)
}

// Force sets the weather directly and resets the timer. Always notifies.
func (m *Model) Force(s State) bool {
	if int(s) >= len(States) {
		slog.Warn("force weather: unknown state", "state", int(s))
		return false
	}
	m.current = s
	m.timer = m.period
	slog.Info("weather forced", "state", s.String())
	m.Changed.Emit(s)
	return true
}

func (m *Model) apply(next State) {
	if next == m.current {
		return
	}
	m.current = next
	slog.Debug("weather changed", "state", next.String())
	m.Changed.Emit(next)
}

func (m *Model) pick() State {
	w := seasonWeights[m.season]
	options := make([]entropy.Weighted[State], len(States))
	for i, s := range States {
		options[i] = entropy.Weighted[State]{Value: s, Weight: w[i]}
	}
	s, _ := entropy.Pick(m.src, options)
	return s
}

// Current returns the weather state.
func (m *Model) Current() State { return m.current }

// Season returns the cached season index.
func (m *Model) Season() int { return m.season }

// Timer returns seconds until the next scheduled re-sample.
func (m *Model) Timer() float64 { return m.timer }

// Temperature derives the ambient temperature in °C.
func (m *Model) Temperature() float64 {
	return seasonTemps[m.season] - stateOffsets[m.current]
}

// Restore sets state, season and timer from a save without notifications.
func (m *Model) Restore(s State, season int, timer float64) {
	if int(s) < len(States) {
		m.current = s
	}
	m.season = clampSeason(season)
	if timer <= 0 || timer > m.period {
		timer = m.period
	}
	m.timer = timer
}

// Effects holds simulation-mapped weather modifiers.
type Effects struct {
	TempModifier float64 // -1 cold to +1 hot
	Attendance   float64 // multiplier on visitor arrivals
	Description  string
}

// Effects converts the current weather to simulation modifiers.
func (m *Model) Effects() Effects {
	e := Effects{Attendance: 1, Description: describe(m.current, m.season)}

	// 0°C = -1, 20°C = 0, 40°C = +1.
	e.TempModifier = (m.Temperature() - 20) / 20
	if e.TempModifier < -1 {
		e.TempModifier = -1
	}
	if e.TempModifier > 1 {
		e.TempModifier = 1
	}

	switch m.current {
	case Storm:
		e.Attendance = 0.4
	case Snow:
		e.Attendance = 0.6
	case Rain:
		e.Attendance = 0.7
	case Fog:
		e.Attendance = 0.9
	}
	return e
}

func describe(s State, season int) string {
	if s != Clear {
		switch s {
		case Cloudy:
			return "overcast skies"
		case Rain:
			return "steady rain"
		case Storm:
			return "thunderstorms"
		case Snow:
			return "falling snow"
		case Fog:
			return "thick fog"
		}
	}
	switch season {
	case 0:
		return "mild spring weather"
	case 1:
		return "warm summer sun"
	case 2:
		return "cool autumn breeze"
	case 3:
		return "crisp winter sky"
	default:
		return "fair weather"
	}
}

func clampSeason(s int) int {
	if s < 0 || s > 3 {
		return 0
	}
	return s
}
