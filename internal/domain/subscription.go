package domain

import "sync"

// Snapshot is the full content of one collection at some point in time.
// Consumers replace their state with Items; they never apply it as a diff.
// A snapshot with Err set carries no items and signals a listener failure.
type Snapshot[T any] struct {
	Items []T
	Err   error
}

// Subscription is a live view of one collection of one owner.
// It must be closed once the consumer is done with it.
type Subscription[T any] struct {
	ch   <-chan Snapshot[T]
	stop func()
	once sync.Once
}

// NewSubscription wraps a snapshot channel and the function releasing it.
func NewSubscription[T any](ch <-chan Snapshot[T], stop func()) *Subscription[T] {
	return &Subscription[T]{ch: ch, stop: stop}
}

// Snapshots delivers the latest snapshot. The channel is closed after Close.
func (s *Subscription[T]) Snapshots() <-chan Snapshot[T] {
	return s.ch
}

// Close releases the subscription. It is safe to call more than once.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		if s.stop != nil {
			s.stop()
		}
	})
}
