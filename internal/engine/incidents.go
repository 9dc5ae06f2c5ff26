package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/zoo-sim/internal/animals"
	"github.com/talgya/zoo-sim/internal/economy"
	"github.com/talgya/zoo-sim/internal/events"
	"github.com/talgya/zoo-sim/internal/staff"
)

// Incident consequences.
const (
	sicknessDamage      = 0.3
	escapeUnhappiness   = 0.25
	recaptureCost       = 300
	vipIncome           = 500
	inspectionFine      = 1000
	inspectionMinimum   = 0.5
	stormDamage         = 0.1
	donationIncome      = 1000
	protestLeaveDivisor = 2
)

// applyIncident carries out the consequences of a rolled world event.
func (s *Simulation) applyIncident(id events.ID) {
	meta := map[string]any{"incident": string(id)}
	var desc string

	switch id {
	case events.AnimalSick:
		a := s.randomAnimal()
		if a == nil {
			desc = "A sickness scare passes harmlessly"
			break
		}
		dmg := sicknessDamage
		if s.Research.IsResearched("VeterinaryMedicine") {
			dmg /= 2
		}
		if s.Staff.CountRole(staff.Veterinarian) > 0 {
			dmg /= 2
		}
		a.Needs.Decay(animals.Health, dmg, 1)
		meta["animal"] = uint64(a.ID)
		desc = fmt.Sprintf("%s the %s has fallen ill", a.Name, a.Species)

	case events.AnimalEscape:
		a := s.randomAnimal()
		if a == nil {
			desc = "A gate was found open, but nothing got out"
			break
		}
		a.Needs.Decay(animals.Happiness, escapeUnhappiness, 1)
		meta["animal"] = uint64(a.ID)
		if s.Ledger.Spend(recaptureCost, economy.Miscellaneous, "recapture "+a.Name) {
			desc = fmt.Sprintf("%s the %s escaped and was recaptured", a.Name, a.Species)
		} else {
			meta["unpaid"] = recaptureCost
			desc = fmt.Sprintf("%s the %s escaped; the zoo could not pay the %d recapture bill", a.Name, a.Species, recaptureCost)
		}

	case events.VIPVisitor:
		s.Ledger.Earn(vipIncome, economy.VisitorTicket, "VIP visit")
		desc = "A VIP toured the zoo"

	case events.Inspection:
		mean, ok := s.Enclosures.MeanCondition()
		if ok && mean < inspectionMinimum {
			if s.Ledger.Spend(inspectionFine, economy.Miscellaneous, "inspection fine") {
				desc = fmt.Sprintf("Inspectors fined the zoo for run-down enclosures (%.0f%%)", mean*100)
			} else {
				meta["unpaid"] = inspectionFine
				desc = fmt.Sprintf("Inspectors issued a %d fine for run-down enclosures (%.0f%%) that the zoo could not pay", inspectionFine, mean*100)
			}
		} else {
			desc = "The zoo passed a surprise inspection"
		}

	case events.StormDamage:
		for _, e := range s.Enclosures.List() {
			s.Enclosures.Degrade(e.ID, stormDamage)
		}
		desc = "A storm damaged the enclosures"

	case events.Protest:
		left := s.Visitors.Leave(s.Visitors.Count() / protestLeaveDivisor)
		meta["visitors_left"] = left
		desc = fmt.Sprintf("Protesters at the gate drove %d visitors away", left)

	case events.DonationReceived:
		s.Ledger.Earn(donationIncome, economy.Miscellaneous, "donation")
		desc = "A patron made a donation"

	default:
		slog.Warn("unhandled incident", "incident", id)
		return
	}

	slog.Info("incident", "incident", id, "description", desc)
	s.emit("incident", desc, meta)
}

// randomAnimal picks a resident uniformly, or nil when the zoo is empty.
func (s *Simulation) randomAnimal() *animals.Animal {
	list := s.Animals.Animals()
	if len(list) == 0 {
		return nil
	}
	i := int(s.src.Float64() * float64(len(list)))
	return list[min(i, len(list)-1)]
}
