package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/zoo-sim/internal/entropy"
)

func TestTick_ResamplesOnExpiry(t *testing.T) {
	// Spring table: r = 31 lands in Cloudy.
	m := NewModel(300, 0, entropy.NewSequence(0.31))
	var changes []State
	m.Changed.Subscribe(func(s State) { changes = append(changes, s) })

	m.Tick(299)
	assert.Empty(t, changes)
	assert.InDelta(t, 1.0, m.Timer(), 1e-9)

	m.Tick(1)
	assert.Equal(t, []State{Cloudy}, changes)
	assert.Equal(t, Cloudy, m.Current())
	assert.Equal(t, 300.0, m.Timer())
}

func TestTick_SameStateStillResetsTimer(t *testing.T) {
	m := NewModel(10, 0, entropy.NewSequence(0.0)) // always Clear
	fired := 0
	m.Changed.Subscribe(func(State) { fired++ })

	m.Tick(25)
	assert.Equal(t, Clear, m.Current())
	assert.Zero(t, fired)
	assert.Equal(t, 10.0, m.Timer())
}

func TestOnSeasonChanged_ResamplesImmediately(t *testing.T) {
	// Winter table: r = 50 passes Clear, Cloudy, Rain and Storm and lands in Snow.
	m := NewModel(300, 0, entropy.NewSequence(0.5))
	m.Tick(100)

	m.OnSeasonChanged(3)

	assert.Equal(t, Snow, m.Current())
	assert.Equal(t, 3, m.Season())
	assert.InDelta(t, 200.0, m.Timer(), 1e-9)
	assert.Equal(t, -13.0, m.Temperature())
}

func TestForce_AlwaysNotifies(t *testing.T) {
	m := NewModel(300, 1, entropy.NewSeeded(1))
	fired := 0
	m.Changed.Subscribe(func(State) { fired++ })

	m.Tick(120)
	require.True(t, m.Force(Clear))
	require.True(t, m.Force(Clear))
	assert.Equal(t, 2, fired)
	assert.Equal(t, 300.0, m.Timer())

	assert.False(t, m.Force(State(12)))
}

func TestSpringNeverSnows(t *testing.T) {
	m := NewModel(1, 0, entropy.NewSeeded(42))
	seen := map[State]int{}
	for i := 0; i < 5000; i++ {
		m.Tick(1)
		seen[m.Current()]++
	}
	assert.Zero(t, seen[Snow])
	assert.NotZero(t, seen[Clear])
	assert.NotZero(t, seen[Rain])
}

func TestTemperature(t *testing.T) {
	cases := []struct {
		season int
		state  State
		want   float64
	}{
		{0, Clear, 18},
		{1, Cloudy, 26},
		{2, Rain, 9},
		{1, Storm, 20},
		{3, Snow, -13},
		{0, Fog, 15},
	}
	for _, tc := range cases {
		m := NewModel(300, tc.season, entropy.NewSeeded(1))
		m.Restore(tc.state, tc.season, 300)
		assert.Equal(t, tc.want, m.Temperature(), "%s in season %d", tc.state, tc.season)
	}
}

func TestEffects(t *testing.T) {
	m := NewModel(300, 1, entropy.NewSeeded(1))
	e := m.Effects()
	assert.InDelta(t, 0.4, e.TempModifier, 1e-9)
	assert.Equal(t, 1.0, e.Attendance)
	assert.Equal(t, "warm summer sun", e.Description)

	m.Restore(Storm, 3, 50)
	e = m.Effects()
	assert.Equal(t, 0.4, e.Attendance)
	assert.Equal(t, -1.0, e.TempModifier)
	assert.Equal(t, 50.0, m.Timer())
}

func TestParse(t *testing.T) {
	s, ok := Parse("Fog")
	assert.True(t, ok)
	assert.Equal(t, Fog, s)
	_, ok = Parse("Hail")
	assert.False(t, ok)
}
