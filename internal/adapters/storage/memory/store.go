package memory

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/farum-diary/internal/domain"
)

var errOffline = errors.New("memory store is offline")

var _ domain.RecordStore = (*Store)(nil)

// Store is an in-memory implementation of domain.RecordStore.
// It is NOT persistent and is only suitable for development / local mode.
// Creation times are assigned by the store and strictly increase.
type Store struct {
	clockMu sync.Mutex
	now     func() time.Time
	last    time.Time

	offline atomic.Bool

	sessions *table[domain.Session]
	goals    *table[domain.Goal]
	moods    *table[domain.Mood]
	notes    *table[domain.DiaryNote]

	profMu   sync.RWMutex
	profiles map[domain.UserID]domain.Profile
}

type Option func(*Store)

// WithClock sets the time source used for store-assigned timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		now:      time.Now,
		sessions: newTable(func(v domain.Session) domain.Session { return v.Clone() }),
		goals:    newTable(func(v domain.Goal) domain.Goal { return v.Clone() }),
		moods:    newTable(func(v domain.Mood) domain.Mood { return v }),
		notes:    newTable(func(v domain.DiaryNote) domain.DiaryNote { return v.Clone() }),
		profiles: make(map[domain.UserID]domain.Profile),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SetOffline simulates an unreachable backend. While offline every call fails
// with domain.ErrStoreUnavailable and live subscribers receive an error snapshot.
func (s *Store) SetOffline(off bool) {
	s.offline.Store(off)
	if !off {
		return
	}
	s.sessions.fail(&domain.StoreError{Op: "listen", Collection: domain.CollectionSessions, Err: errOffline})
	s.goals.fail(&domain.StoreError{Op: "listen", Collection: domain.CollectionGoals, Err: errOffline})
	s.moods.fail(&domain.StoreError{Op: "listen", Collection: domain.CollectionMoods, Err: errOffline})
	s.notes.fail(&domain.StoreError{Op: "listen", Collection: domain.CollectionDiaryNotes, Err: errOffline})
}

// Listeners is the number of open subscriptions of owner over all collections.
func (s *Store) Listeners(owner domain.UserID) int {
	return s.sessions.listeners(owner) + s.goals.listeners(owner) +
		s.moods.listeners(owner) + s.notes.listeners(owner)
}

func (s *Store) check(op string, coll domain.Collection) error {
	if s.offline.Load() {
		return &domain.StoreError{Op: op, Collection: coll, Err: errOffline}
	}
	return nil
}

// serverTime returns the next store timestamp, never equal to or before the previous one.
func (s *Store) serverTime() time.Time {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()

	t := s.now()
	if !t.After(s.last) {
		t = s.last.Add(time.Nanosecond)
	}
	s.last = t
	return t
}

func newID() string {
	return uuid.NewString()
}
