package research

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart_Preconditions(t *testing.T) {
	q := NewQueue(300)

	assert.False(t, q.Start(""))
	assert.False(t, q.Start("TimeTravel"))

	require.True(t, q.Start("BetterFeed"))
	assert.False(t, q.Start("VeterinaryMedicine"))

	q.Tick(300)
	assert.True(t, q.IsResearched("BetterFeed"))
	assert.False(t, q.Start("BetterFeed"))
}

func TestTick_CompletesAfterDuration(t *testing.T) {
	q := NewQueue(100)
	var started, done []string
	q.Started.Subscribe(func(id string) { started = append(started, id) })
	q.Completed.Subscribe(func(id string) { done = append(done, id) })

	require.True(t, q.Start("VisitorAmenities"))
	q.Tick(40)
	p := q.Progress()
	assert.Equal(t, "VisitorAmenities", p.Current)
	assert.InDelta(t, 0.4, p.Fraction, 1e-12)

	q.Tick(59)
	assert.Empty(t, done)
	q.Tick(1)

	assert.Equal(t, []string{"VisitorAmenities"}, started)
	assert.Equal(t, []string{"VisitorAmenities"}, done)
	assert.Equal(t, Progress{}, q.Progress())
}

func TestCancel(t *testing.T) {
	q := NewQueue(100)
	assert.False(t, q.Cancel())

	q.Start("BreedingProgram")
	q.Tick(50)
	require.True(t, q.Cancel())
	assert.False(t, q.IsResearched("BreedingProgram"))
	assert.Contains(t, q.Available(), "BreedingProgram")
}

func TestAvailable(t *testing.T) {
	q := NewQueue(10)
	assert.Len(t, q.Available(), len(Topics))

	q.Start("BetterFeed")
	q.Tick(10)
	q.Start("SustainableEnergy")

	avail := q.Available()
	assert.Len(t, avail, len(Topics)-2)
	assert.NotContains(t, avail, "BetterFeed")
	assert.NotContains(t, avail, "SustainableEnergy")
	assert.Equal(t, []string{"BetterFeed"}, q.CompletedList())
}

func TestRestore(t *testing.T) {
	q := NewQueue(300)
	q.Restore("AdvancedHabitats", 120, []string{"BetterFeed", "Bogus"})

	assert.Equal(t, []string{"BetterFeed"}, q.CompletedList())
	p := q.Progress()
	assert.Equal(t, "AdvancedHabitats", p.Current)
	assert.InDelta(t, 0.4, p.Fraction, 1e-12)

	// a current topic that is already complete is dropped
	q.Restore("BetterFeed", 10, []string{"BetterFeed"})
	assert.Empty(t, q.Progress().Current)
}
