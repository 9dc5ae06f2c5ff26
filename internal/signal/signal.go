// Package signal provides synchronous multicast notifications.
// Handlers run in registration order on the emitting goroutine.
package signal

// Handle identifies a subscription so it can be removed later.
type Handle uint64

type subscriber[T any] struct {
	handle Handle
	fn     func(T)
}

// Signal is a list of callbacks for one notification kind.
// The zero value is ready to use.
type Signal[T any] struct {
	next Handle
	subs []subscriber[T]
}

// Subscribe registers fn and returns a handle for Unsubscribe.
// A nil fn is ignored and yields handle 0.
func (s *Signal[T]) Subscribe(fn func(T)) Handle {
	if fn == nil {
		return 0
	}
	s.next++
	s.subs = append(s.subs, subscriber[T]{handle: s.next, fn: fn})
	return s.next
}

// Unsubscribe removes the subscription. Returns false if the handle is unknown.
func (s *Signal[T]) Unsubscribe(h Handle) bool {
	for i, sub := range s.subs {
		if sub.handle == h {
			// Copy so an in-flight Emit keeps iterating its own snapshot.
			subs := make([]subscriber[T], 0, len(s.subs)-1)
			subs = append(subs, s.subs[:i]...)
			subs = append(subs, s.subs[i+1:]...)
			s.subs = subs
			return true
		}
	}
	return false
}

// Emit calls every handler registered at the moment of the call.
// Handlers added during emission are not called until the next Emit.
func (s *Signal[T]) Emit(v T) {
	subs := s.subs
	for _, sub := range subs {
		sub.fn(v)
	}
}

// Len returns the number of live subscriptions.
func (s *Signal[T]) Len() int {
	return len(s.subs)
}
