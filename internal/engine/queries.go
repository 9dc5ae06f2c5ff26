package engine

import (
	"github.com/talgya/zoo-sim/internal/animals"
	"github.com/talgya/zoo-sim/internal/clock"
	"github.com/talgya/zoo-sim/internal/economy"
	"github.com/talgya/zoo-sim/internal/enclosures"
	"github.com/talgya/zoo-sim/internal/milestones"
	"github.com/talgya/zoo-sim/internal/rating"
	"github.com/talgya/zoo-sim/internal/research"
	"github.com/talgya/zoo-sim/internal/staff"
	"github.com/talgya/zoo-sim/internal/visitors"
)

// Status is the zoo at a glance.
type Status struct {
	WorldID     string  `json:"world_id"`
	Day         int     `json:"day"`
	Time        string  `json:"time"`
	Season      string  `json:"season"`
	Paused      bool    `json:"paused"`
	TimeScale   float64 `json:"time_scale"`
	Balance     int64   `json:"balance"`
	Debt        int64   `json:"debt"`
	Rating      float64 `json:"rating"`
	Animals     int     `json:"animals"`
	Species     int     `json:"species"`
	Critical    int     `json:"critical"`
	Enclosures  int     `json:"enclosures"`
	Staff       int     `json:"staff"`
	Visitors    int     `json:"visitors"`
	Weather     string  `json:"weather"`
	Temperature float64 `json:"temperature"`
	Research    string  `json:"research,omitempty"`
	Milestones  int     `json:"milestones"`
}

// Status returns a summary of every system.
func (s *Simulation) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	day, _ := s.Clock.Now()
	return Status{
		WorldID:     s.WorldID.String(),
		Day:         day,
		Time:        s.Clock.FormattedTime(),
		Season:      clock.SeasonName(s.Clock.Season()),
		Paused:      s.Clock.Paused(),
		TimeScale:   s.Clock.TimeScale(),
		Balance:     s.Ledger.Balance(),
		Debt:        s.Ledger.Debt(),
		Rating:      s.Rating.Value(),
		Animals:     s.Animals.Count(),
		Species:     s.Animals.SpeciesCount(),
		Critical:    s.Animals.CriticalCount(),
		Enclosures:  s.Enclosures.Count(),
		Staff:       s.Staff.Count(),
		Visitors:    s.Visitors.Count(),
		Weather:     s.Weather.Current().String(),
		Temperature: s.Weather.Temperature(),
		Research:    s.Research.Progress().Current,
		Milestones:  len(s.Milestones.List()),
	}
}

// Finance is the ledger view.
type Finance struct {
	Balance int64                 `json:"balance"`
	Debt    int64                 `json:"debt"`
	Report  economy.Report        `json:"report"`
	Recent  []economy.Transaction `json:"recent"`
	Closed  []economy.Transaction `json:"closed_expenses"` // expenses of the last closed day
}

// Finance returns balances, the open period's report, up to n recent
// transactions and the last closed day's expenses.
func (s *Simulation) Finance(n int) Finance {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs := s.Ledger.Transactions()
	if n > 0 && len(txs) > n {
		txs = txs[len(txs)-n:]
	}
	return Finance{
		Balance: s.Ledger.Balance(),
		Debt:    s.Ledger.Debt(),
		Report:  s.Ledger.DailyReport(),
		Recent:  txs,
		Closed:  s.Ledger.DailyExpenseLog(),
	}
}

// RatingView is the rating with its breakdown.
type RatingView struct {
	Value      float64       `json:"value"`
	Scores     rating.Scores `json:"scores"`
	Multiplier float64       `json:"visitor_multiplier"`
}

// RatingInfo returns the current rating.
func (s *Simulation) RatingInfo() RatingView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return RatingView{
		Value:      s.Rating.Value(),
		Scores:     s.Rating.Scores(),
		Multiplier: s.Rating.VisitorSpawnMultiplier(),
	}
}

// AnimalView is one animal for display.
type AnimalView struct {
	ID         animals.ID         `json:"id"`
	Species    string             `json:"species"`
	Name       string             `json:"name"`
	Enclosure  uint64             `json:"enclosure"`
	Needs      map[string]float64 `json:"needs"`
	Wellbeing  float64            `json:"wellbeing"`
	MostUrgent string             `json:"most_urgent"`
	Critical   bool               `json:"critical"`
}

// AnimalList returns every animal in ID order.
func (s *Simulation) AnimalList() []AnimalView {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.Animals.Animals()
	out := make([]AnimalView, 0, len(list))
	for _, a := range list {
		needs := make(map[string]float64, animals.NumChannels)
		for _, c := range animals.Channels {
			needs[c.String()] = a.Needs.Value(c)
		}
		out = append(out, AnimalView{
			ID:         a.ID,
			Species:    a.Species,
			Name:       a.Name,
			Enclosure:  a.Enclosure,
			Needs:      needs,
			Wellbeing:  a.Needs.Wellbeing(),
			MostUrgent: a.Needs.MostUrgent().String(),
			Critical:   a.Needs.AnyCritical(),
		})
	}
	return out
}

// EnclosureView adds occupancy to an enclosure.
type EnclosureView struct {
	enclosures.Enclosure
	Occupants  int   `json:"occupants"`
	RepairCost int64 `json:"repair_cost"`
}

// EnclosureList returns every enclosure in ID order.
func (s *Simulation) EnclosureList() []EnclosureView {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.Enclosures.List()
	out := make([]EnclosureView, 0, len(list))
	for _, e := range list {
		cost, _ := s.Enclosures.RepairCost(e.ID)
		out = append(out, EnclosureView{
			Enclosure:  e,
			Occupants:  s.Animals.InEnclosure(uint64(e.ID)),
			RepairCost: cost,
		})
	}
	return out
}

// StaffList returns every employee in hiring order.
func (s *Simulation) StaffList() []staff.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Staff.Members()
}

// VisitorReport returns the visitor pool summary.
func (s *Simulation) VisitorReport() visitors.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Visitors.Report()
}

// WeatherView is the current weather and what it does to the zoo.
type WeatherView struct {
	State        string  `json:"state"`
	Season       string  `json:"season"`
	Temperature  float64 `json:"temperature"`
	Description  string  `json:"description"`
	Attendance   float64 `json:"attendance"`
	TempModifier float64 `json:"temp_modifier"`
	NextChange   float64 `json:"next_change"` // seconds
}

// WeatherInfo returns the current weather.
func (s *Simulation) WeatherInfo() WeatherView {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.Weather.Effects()
	return WeatherView{
		State:        s.Weather.Current().String(),
		Season:       clock.SeasonName(s.Weather.Season()),
		Temperature:  s.Weather.Temperature(),
		Description:  e.Description,
		Attendance:   e.Attendance,
		TempModifier: e.TempModifier,
		NextChange:   s.Weather.Timer(),
	}
}

// ResearchView is the research queue.
type ResearchView struct {
	Progress  research.Progress `json:"progress"`
	Completed []string          `json:"completed"`
	Available []research.Topic  `json:"available"`
}

// ResearchInfo returns progress, completed topics and what can be started.
func (s *Simulation) ResearchInfo() ResearchView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := ResearchView{
		Progress:  s.Research.Progress(),
		Completed: s.Research.CompletedList(),
	}
	for _, id := range s.Research.Available() {
		t, _ := research.Lookup(id)
		v.Available = append(v.Available, t)
	}
	return v
}

// MilestoneView is one milestone and whether it has been achieved.
type MilestoneView struct {
	ID          milestones.ID `json:"id"`
	Description string        `json:"description"`
	Reward      int64         `json:"reward"`
	Achieved    bool          `json:"achieved"`
}

// MilestoneList returns every milestone in definition order.
func (s *Simulation) MilestoneList() []MilestoneView {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]MilestoneView, 0, len(milestones.Definitions))
	for _, m := range milestones.Definitions {
		out = append(out, MilestoneView{
			ID:          m.ID,
			Description: m.Description,
			Reward:      m.Reward,
			Achieved:    s.Milestones.IsAchieved(m.ID),
		})
	}
	return out
}
