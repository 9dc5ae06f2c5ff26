package engine

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/talgya/zoo-sim/internal/animals"
	"github.com/talgya/zoo-sim/internal/enclosures"
	"github.com/talgya/zoo-sim/internal/events"
	"github.com/talgya/zoo-sim/internal/milestones"
	"github.com/talgya/zoo-sim/internal/staff"
	"github.com/talgya/zoo-sim/internal/weather"
)

// SaveState is everything needed to resume a zoo.
type SaveState struct {
	WorldID   string  `json:"world_id"`
	Balance   int64   `json:"balance"`
	Debt      int64   `json:"debt"`
	Day       int     `json:"day"`
	TimeOfDay float64 `json:"time_of_day"`
	Season    int     `json:"season"`
	TimeScale float64 `json:"time_scale"`
	Paused    bool    `json:"paused"`

	Weather      string  `json:"weather"`
	WeatherTimer float64 `json:"weather_timer"`
	LastIncident string  `json:"last_incident,omitempty"`

	Rating          float64 `json:"rating"`
	Visitors        int     `json:"visitors"`
	Satisfaction    float64 `json:"satisfaction"`
	VisitorsAllTime int64   `json:"visitors_all_time"`

	Animals    []animals.Record       `json:"animals"`
	Enclosures []enclosures.Enclosure `json:"enclosures"`
	Staff      []staff.Member         `json:"staff"`
	Milestones []milestones.ID        `json:"milestones"`

	Research          string   `json:"research,omitempty"`
	ResearchElapsed   float64  `json:"research_elapsed"`
	ResearchCompleted []string `json:"research_completed"`
}

// Snapshot captures the current state for saving.
func (s *Simulation) Snapshot() SaveState {
	s.mu.Lock()
	defer s.mu.Unlock()

	day, tod := s.Clock.Now()
	p := s.Research.Progress()
	vr := s.Visitors.Report()
	return SaveState{
		WorldID:           s.WorldID.String(),
		Balance:           s.Ledger.Balance(),
		Debt:              s.Ledger.Debt(),
		Day:               day,
		TimeOfDay:         tod,
		Season:            s.Clock.Season(),
		TimeScale:         s.Clock.TimeScale(),
		Paused:            s.Clock.Paused(),
		Weather:           s.Weather.Current().String(),
		WeatherTimer:      s.Weather.Timer(),
		LastIncident:      string(s.Events.LastEvent()),
		Rating:            s.Rating.Value(),
		Visitors:          vr.Count,
		Satisfaction:      vr.Satisfaction,
		VisitorsAllTime:   vr.AllTime,
		Animals:           s.Animals.Records(),
		Enclosures:        s.Enclosures.List(),
		Staff:             s.Staff.Members(),
		Milestones:        s.Milestones.List(),
		Research:          p.Current,
		ResearchElapsed:   p.Elapsed,
		ResearchCompleted: s.Research.CompletedList(),
	}
}

// Restore replaces the running zoo with a saved one. No component
// notifications are raised; a single "restored" event is published.
func (s *Simulation) Restore(st SaveState) error {
	id := s.WorldID
	if st.WorldID != "" {
		parsed, err := uuid.Parse(st.WorldID)
		if err != nil {
			return fmt.Errorf("restore world id: %w", err)
		}
		id = parsed
	}
	ws, ok := weather.Parse(st.Weather)
	if !ok {
		ws = weather.Clear
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.WorldID = id
	s.Clock.Restore(st.Day, st.TimeOfDay)
	if st.TimeScale > 0 {
		s.Clock.SetTimeScale(st.TimeScale)
	}
	if st.Paused {
		s.Clock.Pause()
	} else {
		s.Clock.Resume()
	}
	s.Ledger.Restore(st.Balance, st.Debt)
	s.Weather.Restore(ws, s.Clock.Season(), st.WeatherTimer)
	s.Events.Restore(events.ID(st.LastIncident))

	s.Enclosures.Restore(st.Enclosures)
	s.Animals.Restore(st.Animals)
	s.Staff.Restore(st.Staff)
	s.Research.Restore(st.Research, st.ResearchElapsed, st.ResearchCompleted)
	s.applyResearchEffects()
	s.Visitors.Restore(st.Visitors, st.Satisfaction, st.VisitorsAllTime)
	s.Milestones.Restore(st.Milestones)
	s.Rating.Restore(st.Rating)

	slog.Info("simulation restored",
		"world_id", s.WorldID,
		"day", st.Day,
		"balance", st.Balance,
		"animals", len(st.Animals),
		"enclosures", len(st.Enclosures),
		"staff", len(st.Staff),
	)
	s.emit("clock", fmt.Sprintf("Zoo restored on day %d", st.Day), nil)
	return nil
}

// SeedStarterZoo gives a fresh zoo two enclosures, three animals and two
// employees, free of charge.
func (s *Simulation) SeedStarterZoo() {
	s.mu.Lock()
	defer s.mu.Unlock()

	savanna, _ := s.Enclosures.Add("Savanna", 4)
	aviary, _ := s.Enclosures.Add("Aviary", 6)

	s.Animals.Add("Lion", "Leo", uint64(savanna))
	s.Animals.Add("Zebra", "Stripes", uint64(savanna))
	s.Animals.Add("Parrot", "Polly", uint64(aviary))

	s.Staff.Hire(staff.Zookeeper, "Alex")
	s.Staff.Hire(staff.Janitor, "Sam")

	s.Rating.Recalculate()
	slog.Info("starter zoo seeded", "animals", s.Animals.Count(), "enclosures", s.Enclosures.Count(), "staff", s.Staff.Count())
	s.emit("clock", "A new zoo opens its gates", nil)
}
