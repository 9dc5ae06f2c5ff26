// Package clock advances in-game time and announces hour, day and season boundaries.
package clock

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/zoo-sim/internal/signal"
)

// Season constants.
const (
	SeasonSpring = 0
	SeasonSummer = 1
	SeasonAutumn = 2
	SeasonWinter = 3
)

// DaysPerSeason is the number of in-game days in one season.
const DaysPerSeason = 7

// SeasonName returns a human-readable season name.
func SeasonName(season int) string {
	switch season {
	case SeasonSpring:
		return "Spring"
	case SeasonSummer:
		return "Summer"
	case SeasonAutumn:
		return "Autumn"
	case SeasonWinter:
		return "Winter"
	default:
		return "Unknown"
	}
}

// SeasonForDay derives the season index of a 1-based day.
func SeasonForDay(day int) int {
	if day < 1 {
		day = 1
	}
	return ((day - 1) / DaysPerSeason) % 4
}

// Config holds the clock's starting state and sun arc.
type Config struct {
	TimeScale    float64 // game-seconds per real-second
	StartHour    float64 // time of day at construction
	StartDay     int
	SunriseHour  float64
	SunsetHour   float64
	DayStartHour float64 // where AdvanceToNextDay lands
}

// DefaultConfig matches a zoo opening at 6 AM on day 1 with one game minute per real second.
func DefaultConfig() Config {
	return Config{
		TimeScale:    60,
		StartHour:    6,
		StartDay:     1,
		SunriseHour:  6,
		SunsetHour:   18,
		DayStartHour: 6,
	}
}

// Clock tracks time of day, day number and season.
// It is driven by Tick and is not safe for concurrent use.
type Clock struct {
	timeOfDay    float64
	day          int
	season       int
	timeScale    float64
	paused       bool
	previousHour int

	sunrise, sunset float64
	dayStart        float64

	// Notifications, in the order Tick raises them.
	DayChanged       signal.Signal[int]
	SeasonChanged    signal.Signal[int]
	HourChanged      signal.Signal[int]
	TimeOfDayChanged signal.Signal[float64]
}

// New creates a clock from cfg. Out-of-range fields fall back to defaults.
func New(cfg Config) *Clock {
	def := DefaultConfig()
	if cfg.StartDay < 1 {
		cfg.StartDay = def.StartDay
	}
	if cfg.TimeScale < 0 {
		cfg.TimeScale = 0
	}
	if cfg.SunsetHour <= cfg.SunriseHour || cfg.SunriseHour < 0 || cfg.SunsetHour > 24 {
		cfg.SunriseHour, cfg.SunsetHour = def.SunriseHour, def.SunsetHour
	}
	if cfg.DayStartHour < 0 || cfg.DayStartHour >= 24 {
		cfg.DayStartHour = def.DayStartHour
	}

	c := &Clock{
		timeOfDay: normalizeHour(cfg.StartHour),
		day:       cfg.StartDay,
		timeScale: cfg.TimeScale,
		sunrise:   cfg.SunriseHour,
		sunset:    cfg.SunsetHour,
		dayStart:  cfg.DayStartHour,
	}
	c.season = SeasonForDay(c.day)
	c.previousHour = int(math.Floor(c.timeOfDay))

	slog.Debug("clock initialized", "day", c.day, "season", SeasonName(c.season), "time", c.FormattedTime())
	return c
}

// Tick advances time by a real-time delta in seconds. Does nothing while paused.
//
// Boundary notifications are raised in a fixed order: every day rollover
// (each followed by its season change, if any), then the hour change, then
// the unconditional time-of-day update.
func (c *Clock) Tick(realDelta float64) {
	if c.paused {
		return
	}
	if realDelta < 0 {
		realDelta = 0
	}

	c.timeOfDay += realDelta * c.timeScale / 3600

	for c.timeOfDay >= 24 {
		c.timeOfDay -= 24
		c.day++
		slog.Debug("new day", "day", c.day)
		c.DayChanged.Emit(c.day)
		c.updateSeason()
	}

	hour := int(math.Floor(c.timeOfDay))
	if hour != c.previousHour {
		c.previousHour = hour
		c.HourChanged.Emit(hour)
	}

	c.TimeOfDayChanged.Emit(c.timeOfDay)
}

func (c *Clock) updateSeason() {
	next := SeasonForDay(c.day)
	if next == c.season {
		return
	}
	c.season = next
	slog.Info("season changed", "day", c.day, "season", SeasonName(next))
	c.SeasonChanged.Emit(next)
}

// Pause stops time from advancing.
func (c *Clock) Pause() {
	c.paused = true
	slog.Info("time paused")
}

// Resume restarts time.
func (c *Clock) Resume() {
	c.paused = false
	slog.Info("time resumed")
}

// Paused reports whether the clock is paused.
func (c *Clock) Paused() bool { return c.paused }

// SetTimeScale sets game-seconds per real-second. Negative values clamp to 0.
func (c *Clock) SetTimeScale(v float64) {
	if v < 0 {
		slog.Warn("negative time scale ignored", "requested", v)
		v = 0
	}
	c.timeScale = v
	slog.Info("time scale set", "scale", v)
}

// TimeScale returns game-seconds per real-second.
func (c *Clock) TimeScale() float64 { return c.timeScale }

// AdvanceToNextDay skips to the start hour of the following day.
// Raises day-changed and, if the season rolls over, season-changed.
func (c *Clock) AdvanceToNextDay() {
	c.day++
	c.timeOfDay = c.dayStart
	c.previousHour = int(math.Floor(c.dayStart))

	slog.Info("advanced to next day", "day", c.day)
	c.DayChanged.Emit(c.day)
	c.updateSeason()
}

// Restore sets the clock to a saved position without raising notifications.
func (c *Clock) Restore(day int, timeOfDay float64) {
	if day < 1 {
		day = 1
	}
	c.day = day
	c.timeOfDay = normalizeHour(timeOfDay)
	c.season = SeasonForDay(day)
	c.previousHour = int(math.Floor(c.timeOfDay))
}

// TimeOfDay returns hours since midnight in [0, 24).
func (c *Clock) TimeOfDay() float64 { return c.timeOfDay }

// Hour returns the whole hour of the day.
func (c *Clock) Hour() int { return c.previousHour }

// Day returns the 1-based day number.
func (c *Clock) Day() int { return c.day }

// Season returns the season index (0..3).
func (c *Clock) Season() int { return c.season }

// Now returns the day and time of day, for timestamping.
func (c *Clock) Now() (day int, timeOfDay float64) {
	return c.day, c.timeOfDay
}

// TimeOfDayPercent returns the fraction of the day elapsed.
func (c *Clock) TimeOfDayPercent() float64 {
	return c.timeOfDay / 24
}

// FormattedTime returns the time of day as HH:MM.
func (c *Clock) FormattedTime() string {
	hours := int(math.Floor(c.timeOfDay))
	minutes := int(math.Floor((c.timeOfDay - float64(hours)) * 60))
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

// SunDirection returns the sun's pitch and yaw in degrees.
// Pitch follows a half-sine arc above the horizon between sunrise and sunset
// and a mirrored arc below it at night. Yaw sweeps 0–360 over the day.
func (c *Clock) SunDirection() (pitch, yaw float64) {
	t := c.timeOfDay
	dayLen := c.sunset - c.sunrise
	nightLen := 24 - dayLen

	if t >= c.sunrise && t <= c.sunset {
		progress := (t - c.sunrise) / dayLen
		pitch = math.Sin(progress*math.Pi) * 90
	} else {
		var progress float64
		if t > c.sunset {
			progress = (t - c.sunset) / nightLen
		} else {
			progress = (t + 24 - c.sunset) / nightLen
		}
		pitch = -math.Sin(progress*math.Pi) * 90
	}

	yaw = t / 24 * 360
	return pitch, yaw
}

func normalizeHour(h float64) float64 {
	h = math.Mod(h, 24)
	if h < 0 {
		h += 24
	}
	return h
}
