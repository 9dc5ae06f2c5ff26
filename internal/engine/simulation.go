package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/zoo-sim/internal/animals"
	"github.com/talgya/zoo-sim/internal/clock"
	"github.com/talgya/zoo-sim/internal/config"
	"github.com/talgya/zoo-sim/internal/economy"
	"github.com/talgya/zoo-sim/internal/enclosures"
	"github.com/talgya/zoo-sim/internal/entropy"
	"github.com/talgya/zoo-sim/internal/events"
	"github.com/talgya/zoo-sim/internal/milestones"
	"github.com/talgya/zoo-sim/internal/rating"
	"github.com/talgya/zoo-sim/internal/research"
	"github.com/talgya/zoo-sim/internal/staff"
	"github.com/talgya/zoo-sim/internal/visitors"
	"github.com/talgya/zoo-sim/internal/weather"
)

// Noise sampling steps for visitor arrivals.
const (
	noiseDayStep  = 0.37
	noiseHourStep = 0.21
)

// Simulation holds the complete zoo and wires its systems together.
// Every exported method takes the lock; the component fields must only be
// touched from inside Do or from notification handlers.
type Simulation struct {
	mu sync.Mutex

	WorldID uuid.UUID
	cfg     config.Tuning
	src     entropy.Source
	noise   opensimplex.Noise

	Clock      *clock.Clock
	Ledger     *economy.Ledger
	Animals    *animals.Roster
	Enclosures *enclosures.Registry
	Staff      *staff.Roster
	Weather    *weather.Model
	Events     *events.Roller
	Visitors   *visitors.Pool
	Rating     *rating.Rating
	Milestones *milestones.Tracker
	Research   *research.Queue

	Feed *Feed

	// OnDayEnd runs outside the lock after each finished day, e.g. for autosave.
	OnDayEnd  func(day int)
	endedDays []int
}

// NewSimulation builds every component from cfg. A nil src derives one from
// cfg.Seed, falling back to crypto/rand when the seed is 0.
func NewSimulation(cfg config.Tuning, src entropy.Source) *Simulation {
	if src == nil {
		if cfg.Seed != 0 {
			src = entropy.NewSeeded(cfg.Seed)
		} else {
			src = entropy.Crypto()
		}
	}
	noiseSeed := cfg.Seed
	if noiseSeed == 0 {
		noiseSeed = time.Now().UnixNano()
	}

	s := &Simulation{
		WorldID: uuid.New(),
		cfg:     cfg,
		src:     src,
		noise:   opensimplex.NewNormalized(noiseSeed),
		Feed:    NewFeed(DefaultFeedSize),
	}

	s.Clock = clock.New(clock.Config{
		TimeScale:    cfg.Clock.TimeScale,
		StartHour:    cfg.Clock.StartHour,
		StartDay:     1,
		SunriseHour:  cfg.Clock.SunriseHour,
		SunsetHour:   cfg.Clock.SunsetHour,
		DayStartHour: cfg.Clock.DayStartHour,
	})
	s.Ledger = economy.NewLedger(cfg.Economy.StartingFunds, s.Clock)
	s.Animals = animals.NewRoster(animals.RosterConfig{
		Rates:        cfg.Needs.Rates,
		Threshold:    cfg.Needs.CriticalThreshold,
		TickInterval: cfg.Needs.TickInterval,
	})
	s.Enclosures = enclosures.NewRegistry(cfg.Enclosures)
	s.Staff = staff.NewRoster()
	s.Weather = weather.NewModel(cfg.Weather.ChangePeriod, s.Clock.Season(), src)
	s.Events = events.NewRoller(cfg.Events, src)
	s.Visitors = visitors.NewPool(cfg.Visitors.Capacity, cfg.Visitors.BaseAttraction, nil)
	s.Rating = rating.New(rating.Sources{
		Animals:    s.Animals,
		Visitors:   s.Visitors,
		Enclosures: s.Enclosures,
		Staff:      s.Staff,
	})
	s.Visitors.SetRating(s.Rating)
	s.Milestones = milestones.NewTracker(s.milestoneSnapshot)
	s.Research = research.NewQueue(cfg.Research.Duration)

	s.wire()
	s.Rating.Recalculate()

	slog.Info("simulation created", "world_id", s.WorldID, "seed", cfg.Seed, "funds", s.Ledger.Balance())
	return s
}

// wire subscribes the simulation to every component notification it reacts to.
func (s *Simulation) wire() {
	s.Clock.DayChanged.Subscribe(s.onDay)
	s.Clock.SeasonChanged.Subscribe(s.onSeason)
	s.Clock.HourChanged.Subscribe(s.onHour)

	s.Weather.Changed.Subscribe(func(st weather.State) {
		e := s.Weather.Effects()
		s.emit("weather", fmt.Sprintf("Weather turns to %s: %s", st, e.Description), map[string]any{
			"state":       st.String(),
			"temperature": s.Weather.Temperature(),
		})
	})
	s.Events.Fired.Subscribe(s.applyIncident)

	s.Animals.NeedCritical.Subscribe(func(ev animals.NeedEvent) {
		name := fmt.Sprintf("animal #%d", ev.Animal)
		if a, ok := s.Animals.Get(ev.Animal); ok {
			name = a.Name
		}
		s.emit("animal", fmt.Sprintf("%s's %s is critical", name, ev.Channel), map[string]any{
			"animal":  uint64(ev.Animal),
			"channel": ev.Channel.String(),
			"value":   ev.Value,
		})
	})

	s.Ledger.Bankruptcy.Subscribe(func(balance int64) {
		slog.Warn("zoo is out of money", "balance", balance, "debt", s.Ledger.Debt())
		s.emit("finance", "The zoo has run out of money", map[string]any{"balance": balance})
	})

	s.Rating.Changed.Subscribe(func(v float64) {
		s.emit("rating", fmt.Sprintf("Zoo rating is now %.2f stars", v), map[string]any{"rating": v})
	})

	s.Milestones.Achieved.Subscribe(s.onMilestone)

	s.Research.Started.Subscribe(func(id string) {
		s.emit("research", "Research started: "+id, map[string]any{"topic": id})
	})
	s.Research.Completed.Subscribe(func(id string) {
		s.applyResearchEffects()
		s.emit("research", "Research completed: "+id, map[string]any{"topic": id})
	})
}

// Do runs fn with the simulation locked.
func (s *Simulation) Do(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// Frame advances every time-driven system by the same real delta, in order:
// clock, weather, animals, research. Day-end hooks run after the lock is released.
func (s *Simulation) Frame(dt float64) {
	s.mu.Lock()
	s.Clock.Tick(dt)
	if !s.Clock.Paused() {
		s.Weather.Tick(dt)
		s.Animals.Advance(dt)
		s.Research.Tick(dt)
	}
	ended := s.takeEndedDays()
	s.mu.Unlock()

	s.runDayHooks(ended)
}

func (s *Simulation) takeEndedDays() []int {
	ended := s.endedDays
	s.endedDays = nil
	return ended
}

func (s *Simulation) runDayHooks(days []int) {
	if s.OnDayEnd == nil {
		return
	}
	for _, d := range days {
		s.OnDayEnd(d)
	}
}

// onDay closes the finished day: recurring costs, then the period rollover,
// upkeep, loan repayment, rating and milestones.
func (s *Simulation) onDay(day int) {
	s.chargeRecurringCosts()
	s.Ledger.ProcessDailyExpenses()
	s.Enclosures.DegradeAll()
	if s.cfg.Economy.AutoRepayLoans && s.Ledger.Debt() > 0 {
		s.Ledger.AutoRepay()
	}
	s.Rating.Recalculate()
	s.Milestones.CheckAll()
	s.Visitors.StartDay()

	slog.Info("daily report",
		"day", day,
		"balance", s.Ledger.Balance(),
		"debt", s.Ledger.Debt(),
		"animals", s.Animals.Count(),
		"critical", s.Animals.CriticalCount(),
		"enclosures", s.Enclosures.Count(),
		"staff", s.Staff.Count(),
		"rating", fmt.Sprintf("%.2f", s.Rating.Value()),
		"weather", s.Weather.Current().String(),
	)
	s.emit("clock", fmt.Sprintf("Day %d begins", day), map[string]any{"day": day})
	s.endedDays = append(s.endedDays, day-1)
}

// chargeRecurringCosts bills salaries, food and maintenance. A charge the zoo
// cannot afford is skipped and logged.
func (s *Simulation) chargeRecurringCosts() {
	charges := []struct {
		amount int64
		cat    economy.Category
		reason string
	}{
		{s.Staff.DailySalaryCost(), economy.StaffSalary, "staff salaries"},
		{int64(s.Animals.Count()) * s.cfg.Economy.FoodPerAnimal, economy.AnimalFood, "animal food"},
		{s.Enclosures.MaintenanceCost(), economy.BuildingMaintenance, "enclosure maintenance"},
	}
	for _, c := range charges {
		if c.amount <= 0 {
			continue
		}
		if !s.Ledger.Spend(c.amount, c.cat, c.reason) {
			slog.Warn("daily charge unpaid", "reason", c.reason, "amount", c.amount, "balance", s.Ledger.Balance())
			s.emit("finance", fmt.Sprintf("Could not pay %s (%d)", c.reason, c.amount), map[string]any{
				"amount": c.amount,
			})
		}
	}
}

func (s *Simulation) onSeason(season int) {
	s.Weather.OnSeasonChanged(season)
	s.emit("clock", clock.SeasonName(season)+" has arrived", map[string]any{"season": season})
}

// onHour rolls for an incident, runs visitor flow and lets keepers tend animals.
func (s *Simulation) onHour(hour int) {
	s.Events.HandleHour(hour)

	if s.Events.InWindow(hour) {
		s.admitVisitors(hour)
	} else if s.Visitors.Count() > 0 {
		s.Visitors.DespawnAll()
		s.emit("visitors", "The zoo has closed for the night", nil)
	}

	s.tendAnimals()
	s.Milestones.CheckAll()
}

// admitVisitors lets in attraction × weather attendance × arrival noise
// visitors and charges each a ticket.
func (s *Simulation) admitVisitors(hour int) {
	want := float64(s.Visitors.AttractionScore()) * s.Weather.Effects().Attendance * s.arrivalNoise(s.Clock.Day(), hour)
	admitted := s.Visitors.Spawn(int(math.Round(want)))
	if admitted > 0 && s.cfg.Economy.TicketPrice > 0 {
		s.Ledger.Earn(int64(admitted)*s.cfg.Economy.TicketPrice, economy.VisitorTicket,
			fmt.Sprintf("%d tickets", admitted))
	}
	s.Visitors.UpdateSatisfaction()
}

// arrivalNoise is a smooth multiplier in [0.5, 1.5] over (day, hour).
func (s *Simulation) arrivalNoise(day, hour int) float64 {
	return 0.5 + s.noise.Eval2(float64(day)*noiseDayStep, float64(hour)*noiseHourStep)
}

// tendAnimals lets each zookeeper care for a few of the neediest animals.
func (s *Simulation) tendAnimals() {
	keepers := s.Staff.CountRole(staff.Zookeeper)
	if keepers == 0 {
		return
	}
	s.Animals.Tend(keepers*s.cfg.Needs.AnimalsPerKeeper, s.careAmount())
}

func (s *Simulation) careAmount() float64 {
	amount := s.cfg.Needs.KeeperCareAmount
	if s.Research.IsResearched("BetterFeed") {
		amount *= 1.5
	}
	return amount
}

func (s *Simulation) onMilestone(m milestones.Milestone) {
	if m.Reward > 0 {
		s.Ledger.Earn(m.Reward, economy.Miscellaneous, "milestone reward: "+string(m.ID))
	}
	s.emit("milestone", fmt.Sprintf("Milestone achieved: %s", m.Description), map[string]any{
		"milestone": string(m.ID),
		"reward":    m.Reward,
	})
}

// applyResearchEffects recomputes every research-dependent setting from the
// completed set, so it is safe to call after a restore.
func (s *Simulation) applyResearchEffects() {
	capacity := s.cfg.Visitors.Capacity
	if s.Research.IsResearched("VisitorAmenities") {
		capacity += s.cfg.Visitors.AmenityBonus
	}
	if capacity != s.Visitors.Capacity() {
		s.Visitors.SetCapacity(capacity)
	}
}

func (s *Simulation) milestoneSnapshot() milestones.Snapshot {
	return milestones.Snapshot{
		Animals:    s.Animals.Count(),
		Species:    s.Animals.SpeciesCount(),
		Enclosures: s.Enclosures.Count(),
		Visitors:   s.Visitors.Count(),
		Rating:     s.Rating.Value(),
		Balance:    s.Ledger.Balance(),
	}
}

// emit stamps an event with the current game time and publishes it.
func (s *Simulation) emit(category, description string, meta map[string]any) {
	day, _ := s.Clock.Now()
	s.Feed.Publish(Event{
		Day:         day,
		Time:        s.Clock.FormattedTime(),
		Category:    category,
		Description: description,
		Meta:        meta,
	})
}
