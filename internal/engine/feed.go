package engine

import (
	"log/slog"
	"sync"
)

// DefaultFeedSize is how many recent events the feed keeps.
const DefaultFeedSize = 500

// Event is a notable occurrence in the zoo.
type Event struct {
	Seq         uint64         `json:"seq"`
	Day         int            `json:"day"`
	Time        string         `json:"time"`
	Category    string         `json:"category"` // "clock", "weather", "incident", "finance", "animal", ...
	Description string         `json:"description"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// Feed is a bounded ring of recent events with channel subscribers.
// Safe for concurrent use.
type Feed struct {
	mu      sync.Mutex
	buf     []Event
	start   int
	size    int
	seq     uint64
	subs    map[int]chan Event
	nextSub int
}

// NewFeed creates a feed holding up to size events.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = DefaultFeedSize
	}
	return &Feed{size: size, subs: make(map[int]chan Event)}
}

// Publish stamps e with the next sequence number, stores it and fans it out.
// Slow subscribers miss events rather than block the simulation.
func (f *Feed) Publish(e Event) Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	e.Seq = f.seq
	if len(f.buf) < f.size {
		f.buf = append(f.buf, e)
	} else {
		f.buf[f.start] = e
		f.start = (f.start + 1) % f.size
	}

	for id, ch := range f.subs {
		select {
		case ch <- e:
		default:
			slog.Debug("feed subscriber lagging, event dropped", "subscriber", id, "seq", e.Seq)
		}
	}
	return e
}

// Recent returns up to n of the newest events, oldest first. n <= 0 returns all.
func (f *Feed) Recent(n int) []Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := len(f.buf)
	if n <= 0 || n > total {
		n = total
	}
	out := make([]Event, 0, n)
	for i := total - n; i < total; i++ {
		out = append(out, f.buf[(f.start+i)%len(f.buf)])
	}
	return out
}

// Since returns retained events with a sequence number above seq.
func (f *Feed) Since(seq uint64) []Event {
	var out []Event
	for _, e := range f.Recent(0) {
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}

// Subscribe registers a buffered channel that receives every published event.
func (f *Feed) Subscribe(buffer int) (int, <-chan Event) {
	if buffer <= 0 {
		buffer = 64
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextSub++
	ch := make(chan Event, buffer)
	f.subs[f.nextSub] = ch
	return f.nextSub, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (f *Feed) Unsubscribe(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.subs[id]; ok {
		delete(f.subs, id)
		close(ch)
	}
}

// Subscribers returns the number of live subscribers.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
