// Package config loads the zoo's YAML tuning file on top of built-in defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/zoo-sim/internal/animals"
	"github.com/talgya/zoo-sim/internal/enclosures"
	"github.com/talgya/zoo-sim/internal/events"
	"github.com/talgya/zoo-sim/internal/research"
	"github.com/talgya/zoo-sim/internal/visitors"
	"github.com/talgya/zoo-sim/internal/weather"
)

type Tuning struct {
	Seed        int64             `yaml:"seed"` // 0 = crypto/rand
	Clock       Clock             `yaml:"clock"`
	Needs       Needs             `yaml:"needs"`
	Economy     Economy           `yaml:"economy"`
	Enclosures  enclosures.Config `yaml:"enclosures"`
	Weather     Weather           `yaml:"weather"`
	Events      events.Config     `yaml:"events"`
	Visitors    Visitors          `yaml:"visitors"`
	Research    Research          `yaml:"research"`
	Persistence Persistence       `yaml:"persistence"`
	API         API               `yaml:"api"`
}

type Clock struct {
	TimeScale    float64 `yaml:"time_scale"`
	StartHour    float64 `yaml:"start_hour"`
	SunriseHour  float64 `yaml:"sunrise_hour"`
	SunsetHour   float64 `yaml:"sunset_hour"`
	DayStartHour float64 `yaml:"day_start_hour"`
	FrameMs      int     `yaml:"frame_ms"` // real milliseconds between frames
}

type Needs struct {
	Rates             animals.Rates `yaml:"rates"`
	CriticalThreshold float64       `yaml:"critical_threshold"`
	TickInterval      float64       `yaml:"tick_interval"`
	KeeperCareAmount  float64       `yaml:"keeper_care_amount"`  // boost per tended animal
	AnimalsPerKeeper  int           `yaml:"animals_per_keeper"` // tended each hour
}

type Economy struct {
	StartingFunds  int64 `yaml:"starting_funds"`
	TicketPrice    int64 `yaml:"ticket_price"`
	FoodPerAnimal  int64 `yaml:"food_per_animal"`
	AnimalPrice    int64 `yaml:"animal_price"`
	EnclosurePrice int64 `yaml:"enclosure_price"`
	AutoRepayLoans bool  `yaml:"auto_repay_loans"`
}

type Weather struct {
	ChangePeriod float64 `yaml:"change_period"`
}

type Visitors struct {
	Capacity       int `yaml:"capacity"`
	BaseAttraction int `yaml:"base_attraction"`
	AmenityBonus   int `yaml:"amenity_bonus"` // capacity added by VisitorAmenities research
}

type Research struct {
	Duration float64 `yaml:"duration"`
}

type Persistence struct {
	DBPath       string `yaml:"db_path"`
	SnapshotDir  string `yaml:"snapshot_dir"`
	SaveEveryDay bool   `yaml:"save_every_day"`
}

type API struct {
	Port        int    `yaml:"port"`
	AdminKeyEnv string `yaml:"admin_key_env"` // environment variable holding the bearer token
	SaveLimit   int    `yaml:"save_limit"`    // saves allowed per caller per window
	SaveWindow  int    `yaml:"save_window"`   // seconds
}

// Default returns the tuning the zoo runs with when no file is given.
func Default() Tuning {
	return Tuning{
		Clock: Clock{
			TimeScale:    60,
			StartHour:    6,
			SunriseHour:  6,
			SunsetHour:   18,
			DayStartHour: 6,
			FrameMs:      100,
		},
		Needs: Needs{
			Rates:             animals.DefaultRates(),
			CriticalThreshold: animals.DefaultCriticalThreshold,
			TickInterval:      1,
			KeeperCareAmount:  0.35,
			AnimalsPerKeeper:  4,
		},
		Economy: Economy{
			StartingFunds:  50000,
			TicketPrice:    20,
			FoodPerAnimal:  5,
			AnimalPrice:    1000,
			EnclosurePrice: 2000,
			AutoRepayLoans: true,
		},
		Enclosures: enclosures.DefaultConfig(),
		Weather:    Weather{ChangePeriod: weather.DefaultChangePeriod},
		Events:     events.DefaultConfig(),
		Visitors: Visitors{
			Capacity:       visitors.DefaultCapacity,
			BaseAttraction: visitors.DefaultAttraction,
			AmenityBonus:   25,
		},
		Research: Research{Duration: research.DefaultDuration},
		Persistence: Persistence{
			DBPath:       "data/zoo.db",
			SnapshotDir:  "data/snapshots",
			SaveEveryDay: true,
		},
		API: API{
			Port:        8080,
			AdminKeyEnv: "ZOOSIM_ADMIN_KEY",
			SaveLimit:   6,
			SaveWindow:  60,
		},
	}
}

// Load reads a YAML file over the defaults, so a partial file only overrides
// the keys it names. An empty path returns the defaults.
func Load(path string) (Tuning, error) {
	t := Default()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("%s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Validate rejects values no component can run with.
func (t Tuning) Validate() error {
	switch {
	case t.Clock.TimeScale < 0:
		return fmt.Errorf("clock.time_scale must be >= 0, got %v", t.Clock.TimeScale)
	case t.Clock.FrameMs <= 0:
		return fmt.Errorf("clock.frame_ms must be > 0, got %d", t.Clock.FrameMs)
	case t.Needs.CriticalThreshold <= 0 || t.Needs.CriticalThreshold >= 1:
		return fmt.Errorf("needs.critical_threshold must be in (0,1), got %v", t.Needs.CriticalThreshold)
	case t.Economy.StartingFunds < 0:
		return fmt.Errorf("economy.starting_funds must be >= 0, got %d", t.Economy.StartingFunds)
	case t.Economy.TicketPrice < 0 || t.Economy.FoodPerAnimal < 0 || t.Economy.AnimalPrice < 0 || t.Economy.EnclosurePrice < 0:
		return fmt.Errorf("economy prices must be >= 0")
	case t.Events.Chance < 0 || t.Events.Chance > 1:
		return fmt.Errorf("events.chance must be in [0,1], got %v", t.Events.Chance)
	case t.Events.OpenHour > t.Events.CloseHour:
		return fmt.Errorf("events.open_hour %d is after close_hour %d", t.Events.OpenHour, t.Events.CloseHour)
	case t.Visitors.Capacity < 0:
		return fmt.Errorf("visitors.capacity must be >= 0, got %d", t.Visitors.Capacity)
	case t.API.SaveLimit <= 0 || t.API.SaveWindow <= 0:
		return fmt.Errorf("api.save_limit and api.save_window must be > 0")
	}
	return nil
}
