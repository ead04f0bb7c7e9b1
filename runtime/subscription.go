package runtime

import (
	"sync"
	"sync/atomic"
)

// Subscription is the handle for one live feed. Its lifecycle is
// Idle -> Subscribed -> (Emitting)* -> Unsubscribed; Close is the only
// cancellation primitive and may be called any number of times.
type Subscription struct {
	cancel    func()
	done      chan struct{}
	closeOnce sync.Once
	active    atomic.Bool
}

func newSubscription(cancel func()) *Subscription {
	s := &Subscription{cancel: cancel, done: make(chan struct{})}
	s.active.Store(true)
	return s
}

// Close detaches the listener. No emission is delivered after Close
// returns control to the feed goroutine; in-flight store writes are left to
// complete on their own.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.active.Store(false)
		s.cancel()
	})
}

// Active reports whether the subscription still delivers snapshots.
func (s *Subscription) Active() bool {
	return s.active.Load()
}

// Done closes when the feed goroutine has fully stopped.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}
