package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/zoo-sim/internal/animals"
	"github.com/talgya/zoo-sim/internal/engine"
	"github.com/talgya/zoo-sim/internal/enclosures"
	"github.com/talgya/zoo-sim/internal/milestones"
	"github.com/talgya/zoo-sim/internal/staff"
)

func sampleState() engine.SaveState {
	return engine.SaveState{
		WorldID:         "3b241101-e2bb-4255-8caf-4136c566a962",
		Balance:         41250,
		Debt:            4500,
		Day:             9,
		TimeOfDay:       13.25,
		Season:          1,
		TimeScale:       60,
		Paused:          true,
		Weather:         "Rain",
		WeatherTimer:    120.5,
		LastIncident:    "VIPVisitor",
		Rating:          3.1,
		Visitors:        17,
		Satisfaction:    72.5,
		VisitorsAllTime: 880,
		Animals: []animals.Record{
			{ID: 1, Species: "Lion", Name: "Leo", Enclosure: 1, Needs: [animals.NumChannels]float64{0.9, 0.8, 0.7, 1, 0.6, 0.5}},
			{ID: 4, Species: "Parrot", Name: "Polly", Enclosure: 2, Needs: [animals.NumChannels]float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}},
		},
		Enclosures: []enclosures.Enclosure{
			{ID: 1, Name: "Savanna", Capacity: 4, Condition: 0.82, Maintenance: 50},
			{ID: 2, Name: "Aviary", Capacity: 6, Condition: 0.9, Maintenance: 50},
		},
		Staff: []staff.Member{
			{ID: 1, Name: "Alex", Role: staff.Zookeeper, Salary: 100, Skill: 0.5, Enclosure: 1},
			{ID: 3, Name: "Dr. Reyes", Role: staff.Veterinarian, Salary: 200, Skill: 0.5},
		},
		Milestones:        []milestones.ID{milestones.FirstSteps, milestones.GrowingZoo},
		Research:          "BreedingProgram",
		ResearchElapsed:   42,
		ResearchCompleted: []string{"BetterFeed", "VeterinaryMedicine"},
	}
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "zoo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestWorldState_RoundTrip(t *testing.T) {
	db := openTestDB(t)

	has, err := db.HasWorldState()
	require.NoError(t, err)
	assert.False(t, has)

	want := sampleState()
	require.NoError(t, db.SaveWorldState(want))

	has, err = db.HasWorldState()
	require.NoError(t, err)
	assert.True(t, has)

	got, err := db.LoadWorldState()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWorldState_SaveReplaces(t *testing.T) {
	db := openTestDB(t)
	first := sampleState()
	require.NoError(t, db.SaveWorldState(first))

	second := sampleState()
	second.Animals = second.Animals[:1]
	second.Research = ""
	second.ResearchElapsed = 0
	second.Balance = 10
	require.NoError(t, db.SaveWorldState(second))

	got, err := db.LoadWorldState()
	require.NoError(t, err)
	assert.Equal(t, second, got)

	saved, err := db.GetMeta("saved_at")
	require.NoError(t, err)
	assert.NotEmpty(t, saved)
}

func TestLoadWorldState_Empty(t *testing.T) {
	db := openTestDB(t)
	_, err := db.LoadWorldState()
	assert.Error(t, err)
}

func TestEvents(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveEvents(nil))
	require.NoError(t, db.SaveEvents([]engine.Event{
		{Seq: 1, Day: 1, Time: "06:00", Category: "clock", Description: "A new zoo opens its gates"},
		{Seq: 2, Day: 1, Time: "10:00", Category: "incident", Description: "A patron made a donation",
			Meta: map[string]any{"incident": "DonationReceived"}},
	}))

	got, err := db.RecentEvents(10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(2), got[0].Seq)
	assert.Equal(t, "DonationReceived", got[0].Meta["incident"])
	assert.Nil(t, got[1].Meta)
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveMeta("k", "v1"))
	require.NoError(t, db.SaveMeta("k", "v2"))
	v, err := db.GetMeta("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)

	_, err = db.GetMeta("missing")
	assert.Error(t, err)
}

func TestSnapshot_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := SnapshotPath(filepath.Join(dir, "snaps"), 9)
	assert.Equal(t, "day-00009.zst", filepath.Base(path))

	want := sampleState()
	require.NoError(t, WriteSnapshot(path, want))

	hdr, got, err := ReadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, SnapshotVersion, hdr.Version)
	assert.Equal(t, want.WorldID, hdr.WorldID)
	assert.Equal(t, 9, hdr.Day)
	assert.Equal(t, want, got)
}

func TestReadSnapshot_Errors(t *testing.T) {
	dir := t.TempDir()
	_, _, err := ReadSnapshot(filepath.Join(dir, "missing.zst"))
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.zst")
	require.NoError(t, os.WriteFile(garbage, []byte("not zstd"), 0o644))
	_, _, err = ReadSnapshot(garbage)
	assert.Error(t, err)
}
