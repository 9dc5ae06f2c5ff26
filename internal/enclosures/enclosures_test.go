package enclosures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_AddRemove(t *testing.T) {
	r := NewRegistry(DefaultConfig())

	id, ok := r.Add("Savanna", 0)
	require.True(t, ok)
	e, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, DefaultCapacity, e.Capacity)
	assert.Equal(t, 1.0, e.Condition)

	_, ok = r.Add("   ", 3)
	assert.False(t, ok)

	assert.True(t, r.Remove(id))
	assert.False(t, r.Remove(id))
	assert.Zero(t, r.Count())
}

func TestRegistry_DegradeAndRepair(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	a, _ := r.Add("Savanna", 4)
	b, _ := r.Add("Aviary", 8)

	var changes []ConditionChange
	r.ConditionChanged.Subscribe(func(c ConditionChange) { changes = append(changes, c) })

	require.True(t, r.Degrade(a, 0.5))
	assert.False(t, r.Degrade(a, 0))
	assert.False(t, r.Degrade(ID(99), 0.1))

	mean, ok := r.MeanCondition()
	require.True(t, ok)
	assert.InDelta(t, 0.75, mean, 1e-9)

	cost, ok := r.RepairCost(a)
	require.True(t, ok)
	assert.Equal(t, int64(250), cost)

	require.True(t, r.Repair(a))
	e, _ := r.Get(a)
	assert.Equal(t, 1.0, e.Condition)

	// repairing a pristine enclosure changes nothing
	r.Repair(b)
	assert.Len(t, changes, 2)

	r.Degrade(b, 5)
	e, _ = r.Get(b)
	assert.Equal(t, 0.0, e.Condition)
}

func TestRegistry_DailyUpkeep(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	r.Add("Savanna", 4)
	r.Add("Reptile House", 6)

	assert.Equal(t, int64(100), r.MaintenanceCost())

	r.DegradeAll()
	mean, _ := r.MeanCondition()
	assert.InDelta(t, 0.98, mean, 1e-9)

	_, ok := NewRegistry(DefaultConfig()).MeanCondition()
	assert.False(t, ok)
}

func TestRegistry_Restore(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	r.Restore([]Enclosure{
		{ID: 4, Name: "Penguin Pool", Capacity: 6, Condition: 1.4, Maintenance: 80},
		{ID: 0, Name: "ghost"},
	})

	require.Equal(t, 1, r.Count())
	e, ok := r.Get(4)
	require.True(t, ok)
	assert.Equal(t, 1.0, e.Condition)

	next, _ := r.Add("Savanna", 4)
	assert.Equal(t, ID(5), next)
	assert.Equal(t, int64(130), r.MaintenanceCost())
}
