package memory

import (
	"sync"

	"github.com/PabloGalante/farum-diary/internal/domain"
)

// table keeps the rows of one collection per owner, in creation order, and
// pushes a full snapshot to every subscriber after each write.
type table[T any] struct {
	mu    sync.RWMutex
	clone func(T) T

	rows   map[domain.UserID][]T
	subs   map[domain.UserID]map[uint64]chan domain.Snapshot[T]
	nextID uint64
}

func newTable[T any](clone func(T) T) *table[T] {
	return &table[T]{
		clone: clone,
		rows:  make(map[domain.UserID][]T),
		subs:  make(map[domain.UserID]map[uint64]chan domain.Snapshot[T]),
	}
}

func (t *table[T]) list(owner domain.UserID) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.copyRows(owner)
}

func (t *table[T]) find(owner domain.UserID, match func(T) bool) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, r := range t.rows[owner] {
		if match(r) {
			return t.clone(r), true
		}
	}
	var zero T
	return zero, false
}

func (t *table[T]) insert(owner domain.UserID, row T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rows[owner] = append(t.rows[owner], t.clone(row))
	t.broadcast(owner)
}

// update applies fn to the first matching row. It reports whether a row matched.
func (t *table[T]) update(owner domain.UserID, match func(T) bool, fn func(*T)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows := t.rows[owner]
	for i := range rows {
		if match(rows[i]) {
			fn(&rows[i])
			t.broadcast(owner)
			return true
		}
	}
	return false
}

func (t *table[T]) subscribe(owner domain.UserID) *domain.Subscription[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan domain.Snapshot[T], 1)
	id := t.nextID
	t.nextID++

	if t.subs[owner] == nil {
		t.subs[owner] = make(map[uint64]chan domain.Snapshot[T])
	}
	t.subs[owner][id] = ch

	// initial snapshot, like a fresh listener
	ch <- domain.Snapshot[T]{Items: t.copyRows(owner)}

	return domain.NewSubscription[T](ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if c, ok := t.subs[owner][id]; ok {
			delete(t.subs[owner], id)
			close(c)
		}
	})
}

func (t *table[T]) listeners(owner domain.UserID) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subs[owner])
}

// fail pushes a listener error to every subscriber of every owner.
func (t *table[T]) fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, subs := range t.subs {
		for _, ch := range subs {
			publish(ch, domain.Snapshot[T]{Err: err})
		}
	}
}

// broadcast must be called with t.mu held.
func (t *table[T]) broadcast(owner domain.UserID) {
	for _, ch := range t.subs[owner] {
		publish(ch, domain.Snapshot[T]{Items: t.copyRows(owner)})
	}
}

func (t *table[T]) copyRows(owner domain.UserID) []T {
	src := t.rows[owner]
	out := make([]T, 0, len(src))
	for _, r := range src {
		out = append(out, t.clone(r))
	}
	return out
}

// publish replaces any snapshot the consumer has not read yet. Only writers
// holding the table lock send, so the send never blocks.
func publish[T any](ch chan domain.Snapshot[T], snap domain.Snapshot[T]) {
	select {
	case <-ch:
	default:
	}
	ch <- snap
}
