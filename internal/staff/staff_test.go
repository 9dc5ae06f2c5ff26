package staff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHireFire(t *testing.T) {
	r := NewRoster()
	var hired, fired []ID
	r.Hired.Subscribe(func(id ID) { hired = append(hired, id) })
	r.Fired.Subscribe(func(id ID) { fired = append(fired, id) })

	keeper, ok := r.Hire(Zookeeper, "Alex")
	require.True(t, ok)
	vet, ok := r.Hire(Veterinarian, "Sam")
	require.True(t, ok)

	_, ok = r.Hire(Guide, "")
	assert.False(t, ok)
	_, ok = r.Hire(Role(77), "Ghost")
	assert.False(t, ok)

	assert.Equal(t, 2, r.Count())
	assert.Equal(t, int64(300), r.DailySalaryCost())

	require.True(t, r.Fire(keeper))
	assert.False(t, r.Fire(keeper))
	assert.Equal(t, int64(200), r.DailySalaryCost())

	assert.Equal(t, []ID{keeper, vet}, hired)
	assert.Equal(t, []ID{keeper}, fired)
}

func TestDefaultSalaries(t *testing.T) {
	cases := map[Role]int64{
		Zookeeper:    100,
		Veterinarian: 200,
		Janitor:      75,
		Mechanic:     125,
		Guide:        90,
	}
	for role, want := range cases {
		assert.Equal(t, want, DefaultSalary(role), role.String())
	}
}

func TestAssign(t *testing.T) {
	r := NewRoster()
	id, _ := r.Hire(Janitor, "Robin")

	require.True(t, r.Assign(id, 3))
	m, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, uint64(3), m.Enclosure)

	assert.False(t, r.Assign(ID(50), 3))
}

func TestRestoreKeepsIDs(t *testing.T) {
	r := NewRoster()
	r.Restore([]Member{
		{ID: 7, Name: "Kim", Role: Mechanic, Salary: 125},
		{ID: 2, Name: "Lee", Role: Guide, Salary: 90},
	})

	members := r.Members()
	require.Len(t, members, 2)
	assert.Equal(t, ID(2), members[0].ID)
	assert.Equal(t, 1, r.CountRole(Guide))

	next, _ := r.Hire(Zookeeper, "Pat")
	assert.Equal(t, ID(8), next)
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("veterinarian")
	assert.True(t, ok)
	assert.Equal(t, Veterinarian, r)

	_, ok = ParseRole("pilot")
	assert.False(t, ok)
}
