package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed_RingKeepsNewest(t *testing.T) {
	f := NewFeed(3)
	for i := 0; i < 5; i++ {
		f.Publish(Event{Category: "test"})
	}

	recent := f.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, []uint64{3, 4, 5}, []uint64{recent[0].Seq, recent[1].Seq, recent[2].Seq})

	last := f.Recent(2)
	assert.Equal(t, uint64(4), last[0].Seq)
	assert.Equal(t, uint64(5), last[1].Seq)

	since := f.Since(4)
	require.Len(t, since, 1)
	assert.Equal(t, uint64(5), since[0].Seq)
}

func TestFeed_SubscribersDoNotBlock(t *testing.T) {
	f := NewFeed(10)
	id, ch := f.Subscribe(1)

	f.Publish(Event{Description: "first"})
	f.Publish(Event{Description: "dropped"})

	e := <-ch
	assert.Equal(t, "first", e.Description)
	assert.Equal(t, 1, f.Subscribers())

	f.Unsubscribe(id)
	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, f.Subscribers())

	f.Unsubscribe(id) // unknown ids are ignored
}
