package visitors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedMultiplier float64

func (f fixedMultiplier) VisitorSpawnMultiplier() float64 { return float64(f) }

func TestSpawn_ClampsToCapacity(t *testing.T) {
	p := NewPool(50, DefaultAttraction, nil)
	var counts []int
	p.CountChanged.Subscribe(func(n int) { counts = append(counts, n) })

	assert.Equal(t, 50, p.Spawn(70))
	assert.Equal(t, 50, p.Count())

	assert.Equal(t, 0, p.Spawn(5))
	assert.Equal(t, 0, p.Spawn(-3))
	assert.Equal(t, []int{50}, counts)
}

func TestDespawnAll(t *testing.T) {
	p := NewPool(50, DefaultAttraction, nil)
	fired := 0
	p.CountChanged.Subscribe(func(int) { fired++ })

	p.DespawnAll()
	assert.Zero(t, fired)

	p.Spawn(12)
	p.DespawnAll()
	assert.Equal(t, 2, fired)
	assert.Zero(t, p.Count())
	assert.Equal(t, 12, p.Report().Today)
}

func TestLeave(t *testing.T) {
	p := NewPool(50, DefaultAttraction, nil)
	p.Spawn(10)
	assert.Equal(t, 4, p.Leave(4))
	assert.Equal(t, 6, p.Count())
	assert.Equal(t, 6, p.Leave(100))
	assert.Zero(t, p.Leave(1))
	assert.Zero(t, p.Leave(-3))
}

func TestUpdateSatisfaction_Crowding(t *testing.T) {
	cases := []struct {
		count int
		want  float64
	}{
		{0, 50},
		{10, 75},
		{35, 75},
		{40, 65},
		{50, 45},
	}
	for _, tc := range cases {
		p := NewPool(50, DefaultAttraction, nil)
		p.Spawn(tc.count)
		p.UpdateSatisfaction()
		assert.InDelta(t, tc.want, p.Satisfaction(), 1e-9, "count %d", tc.count)
	}
}

func TestUpdateSatisfaction_NotifiesOnlyOnRealChange(t *testing.T) {
	p := NewPool(50, DefaultAttraction, nil)
	var got []float64
	p.SatisfactionChanged.Subscribe(func(v float64) { got = append(got, v) })

	p.UpdateSatisfaction() // still 50
	assert.Empty(t, got)

	p.Spawn(5)
	p.UpdateSatisfaction()
	p.UpdateSatisfaction()
	require.Len(t, got, 1)
	assert.Equal(t, 75.0, got[0])
}

func TestAttractionScore(t *testing.T) {
	p := NewPool(50, DefaultAttraction, nil)
	assert.Equal(t, 5, p.AttractionScore()) // 0.5 × 10

	p.SetRating(fixedMultiplier(2.5))
	assert.Equal(t, 12, p.AttractionScore()) // floor(12.5)

	p.Spawn(50)
	p.UpdateSatisfaction() // 45
	assert.Equal(t, 11, p.AttractionScore())

	low := NewPool(50, 1, fixedMultiplier(1))
	assert.Equal(t, 1, low.AttractionScore())
}

func TestSetCapacity(t *testing.T) {
	p := NewPool(50, DefaultAttraction, nil)
	p.Spawn(30)

	p.SetCapacity(-1)
	assert.Equal(t, 50, p.Capacity())

	p.SetCapacity(20)
	assert.Equal(t, 20, p.Count())

	p.SetCapacity(0)
	p.UpdateSatisfaction()
	assert.Equal(t, 50.0, p.Satisfaction())
}

func TestRestore(t *testing.T) {
	p := NewPool(50, DefaultAttraction, nil)
	p.Restore(80, 120, 900)
	r := p.Report()
	assert.Equal(t, 50, r.Count)
	assert.Equal(t, 100.0, r.Satisfaction)
	assert.Equal(t, int64(900), r.AllTime)
}
