package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/zoo-sim/internal/enclosures"
)

func TestBuyAnimal(t *testing.T) {
	sim := newTestSim(t, testConfig())
	pen, err := sim.BuildEnclosure("Pen", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(18000), sim.Status().Balance)

	_, err = sim.BuyAnimal("", "Nameless", 0)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = sim.BuyAnimal("Tiger", "Raja", 99)
	assert.ErrorIs(t, err, ErrNotFound)

	id, err := sim.BuyAnimal("Tiger", "Raja", uint64(pen))
	require.NoError(t, err)
	assert.Equal(t, int64(17000), sim.Status().Balance)

	_, err = sim.BuyAnimal("Tiger", "Shere", uint64(pen))
	assert.ErrorIs(t, err, ErrInvalid, "pen holds one animal")

	list := sim.AnimalList()
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Len(t, list[0].Needs, 6)
}

func TestBuyAnimal_InsufficientFunds(t *testing.T) {
	cfg := testConfig()
	cfg.Economy.StartingFunds = 500
	sim := newTestSim(t, cfg)

	_, err := sim.BuyAnimal("Lemur", "Julien", 0)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Zero(t, sim.Status().Animals)
	assert.Equal(t, int64(500), sim.Status().Balance)
}

func TestRepairEnclosure(t *testing.T) {
	sim := newTestSim(t, testConfig())
	sim.SeedStarterZoo()

	cost, err := sim.RepairEnclosure(1)
	require.NoError(t, err)
	assert.Zero(t, cost, "nothing to repair")

	sim.Do(func() { sim.Enclosures.Degrade(1, 0.5) })
	cost, err = sim.RepairEnclosure(1)
	require.NoError(t, err)
	assert.Equal(t, int64(250), cost)
	assert.Equal(t, int64(19750), sim.Status().Balance)

	_, err = sim.RepairEnclosure(enclosures.ID(42))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStaffActions(t *testing.T) {
	sim := newTestSim(t, testConfig())
	sim.SeedStarterZoo()

	_, err := sim.Hire("Astronaut", "Buzz")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = sim.Hire("Guide", "  ")
	assert.ErrorIs(t, err, ErrInvalid)

	id, err := sim.Hire("Guide", "Ana")
	require.NoError(t, err)
	require.NoError(t, sim.AssignStaff(id, 2))
	assert.ErrorIs(t, sim.AssignStaff(id, 99), ErrNotFound)
	assert.Len(t, sim.StaffList(), 3)

	require.NoError(t, sim.Fire(id))
	assert.ErrorIs(t, sim.Fire(id), ErrNotFound)
	assert.Len(t, sim.StaffList(), 2)
}

func TestResearchActions(t *testing.T) {
	cfg := testConfig()
	cfg.Research.Duration = 10
	sim := newTestSim(t, cfg)

	assert.ErrorIs(t, sim.StartResearch("Alchemy"), ErrInvalid)
	assert.ErrorIs(t, sim.CancelResearch(), ErrInvalid)

	require.NoError(t, sim.StartResearch("VisitorAmenities"))
	assert.Equal(t, int64(18000), sim.Status().Balance)
	assert.ErrorIs(t, sim.StartResearch("BetterFeed"), ErrInvalid)

	sim.Frame(10)
	assert.Equal(t, 75, sim.VisitorReport().Capacity)
	assert.NotContains(t, topicIDs(sim.ResearchInfo()), "VisitorAmenities")
}

func topicIDs(v ResearchView) []string {
	var out []string
	for _, t := range v.Available {
		out = append(out, t.ID)
	}
	return out
}

func TestLoans(t *testing.T) {
	sim := newTestSim(t, testConfig())

	assert.ErrorIs(t, sim.RepayLoan(100), ErrInvalid)
	assert.ErrorIs(t, sim.TakeLoan(0), ErrInvalid)

	require.NoError(t, sim.TakeLoan(3000))
	assert.Equal(t, int64(23000), sim.Status().Balance)
	require.NoError(t, sim.RepayLoan(5000))
	st := sim.Status()
	assert.Zero(t, st.Debt)
	assert.Equal(t, int64(20000), st.Balance)
}

func TestControlActions(t *testing.T) {
	sim := newTestSim(t, testConfig())

	assert.ErrorIs(t, sim.ForceWeather("Hail"), ErrInvalid)
	require.NoError(t, sim.ForceWeather("Storm"))
	assert.Equal(t, "Storm", sim.WeatherInfo().State)
	assert.Equal(t, 0.4, sim.WeatherInfo().Attendance)

	assert.ErrorIs(t, sim.SetTimeScale(-1), ErrInvalid)
	require.NoError(t, sim.SetTimeScale(120))
	assert.Equal(t, 120.0, sim.Status().TimeScale)

	sim.Pause()
	assert.True(t, sim.Status().Paused)
	sim.Resume()
	assert.False(t, sim.Status().Paused)
}

func TestFeedAnimal(t *testing.T) {
	sim := newTestSim(t, testConfig())
	sim.SeedStarterZoo()
	assert.ErrorIs(t, sim.FeedAnimal(99), ErrNotFound)
	require.NoError(t, sim.FeedAnimal(1))
	assert.Equal(t, int64(19995), sim.Status().Balance)
}
