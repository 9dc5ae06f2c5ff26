package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/zoo-sim/internal/entropy"
)

func TestHandleHour_OutsideWindowNeverFires(t *testing.T) {
	r := NewRoller(DefaultConfig(), entropy.NewSequence(0))
	fired := 0
	r.Fired.Subscribe(func(ID) { fired++ })

	for _, h := range []int{0, 5, 7, 21, 23} {
		_, ok := r.HandleHour(h)
		assert.False(t, ok, "hour %d", h)
	}
	assert.Zero(t, fired)
	assert.Equal(t, None, r.LastEvent())
}

func TestHandleHour_WindowIsInclusive(t *testing.T) {
	r := NewRoller(DefaultConfig(), entropy.NewSequence(0))
	assert.True(t, r.InWindow(8))
	assert.True(t, r.InWindow(20))

	id, ok := r.HandleHour(20)
	require.True(t, ok)
	assert.Equal(t, AnimalSick, id)
}

func TestHandleHour_TrialAndSelection(t *testing.T) {
	// trial 0.1 < 0.15 passes; selection 0.5 of 100 = 50 lands in VIPVisitor (35..55).
	// trial 0.9 fails.
	r := NewRoller(DefaultConfig(), entropy.NewSequence(0.1, 0.5, 0.9))
	var got []ID
	r.Fired.Subscribe(func(id ID) { got = append(got, id) })

	id, ok := r.HandleHour(10)
	require.True(t, ok)
	assert.Equal(t, VIPVisitor, id)

	_, ok = r.HandleHour(11)
	assert.False(t, ok)

	assert.Equal(t, []ID{VIPVisitor}, got)
	assert.Equal(t, VIPVisitor, r.LastEvent())
}

func TestHandleHour_FrequencyMatchesChance(t *testing.T) {
	r := NewRoller(DefaultConfig(), entropy.NewSeeded(2024))
	const n = 50_000
	hits := 0
	for i := 0; i < n; i++ {
		if _, ok := r.HandleHour(12); ok {
			hits++
		}
	}
	assert.InDelta(t, 0.15, float64(hits)/n, 0.01)
}

func TestZeroChanceNeverFires(t *testing.T) {
	r := NewRoller(Config{Chance: 0, OpenHour: 0, CloseHour: 23}, entropy.NewSequence(0))
	_, ok := r.HandleHour(12)
	assert.False(t, ok)
}
