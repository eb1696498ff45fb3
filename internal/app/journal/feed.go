package journal

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/PabloGalante/farum-diary/internal/app/timeline"
	"github.com/PabloGalante/farum-diary/internal/domain"
	"github.com/PabloGalante/farum-diary/internal/observability"
)

var errFeedClosed = errors.New("journal feed closed")

// Store is the part of the record store the feed listens to.
type Store interface {
	SubscribeSessions(ctx context.Context, owner domain.UserID) (*domain.Subscription[domain.Session], error)
	SubscribeGoals(ctx context.Context, owner domain.UserID) (*domain.Subscription[domain.Goal], error)
	SubscribeMoods(ctx context.Context, owner domain.UserID) (*domain.Subscription[domain.Mood], error)
	SubscribeNotes(ctx context.Context, owner domain.UserID) (*domain.Subscription[domain.DiaryNote], error)
}

const (
	srcSessions = iota
	srcGoals
	srcMoods
	srcNotes
	numSources
)

var sourceNames = [numSources]domain.Collection{
	srcSessions: domain.CollectionSessions,
	srcGoals:    domain.CollectionGoals,
	srcMoods:    domain.CollectionMoods,
	srcNotes:    domain.CollectionDiaryNotes,
}

// State is the timeline as of the last good snapshot of every collection.
type State struct {
	Groups []timeline.Group
	// Ready is set once every collection has delivered a snapshot.
	Ready bool
	// Err is the latest listener failure not yet followed by a good
	// snapshot of the same collection. Groups are left as they were.
	Err error
}

// Feed keeps the timeline of one user current with four live subscriptions.
type Feed struct {
	owner domain.UserID

	sessions *domain.Subscription[domain.Session]
	goals    *domain.Subscription[domain.Goal]
	moods    *domain.Subscription[domain.Mood]
	notes    *domain.Subscription[domain.DiaryNote]

	mu      sync.RWMutex
	input   timeline.Input
	seen    [numSources]bool
	errs    [numSources]error
	groups  []timeline.Group
	changed chan struct{}

	updates chan State
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// Open subscribes to all collections of owner and starts following them.
// The subscriptions live until Close, independent of ctx cancellation.
func Open(ctx context.Context, store Store, owner domain.UserID) (*Feed, error) {
	ctx = context.WithoutCancel(ctx)
	f := &Feed{
		owner:   owner,
		changed: make(chan struct{}),
		updates: make(chan State, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	var err error
	if f.sessions, err = store.SubscribeSessions(ctx, owner); err != nil {
		return nil, err
	}
	if f.goals, err = store.SubscribeGoals(ctx, owner); err != nil {
		f.release()
		return nil, err
	}
	if f.moods, err = store.SubscribeMoods(ctx, owner); err != nil {
		f.release()
		return nil, err
	}
	if f.notes, err = store.SubscribeNotes(ctx, owner); err != nil {
		f.release()
		return nil, err
	}

	go f.run(ctx)
	return f, nil
}

func (f *Feed) run(ctx context.Context) {
	defer close(f.stopped)
	log := observability.LoggerFromContext(ctx).With("user_id", f.owner)

	sessions := f.sessions.Snapshots()
	goals := f.goals.Snapshots()
	moods := f.moods.Snapshots()
	notes := f.notes.Snapshots()

	for {
		select {
		case <-f.done:
			return

		case snap, ok := <-sessions:
			if !ok {
				sessions = nil
				continue
			}
			f.apply(log, srcSessions, snap.Err, func(in *timeline.Input) { in.Sessions = snap.Items })

		case snap, ok := <-goals:
			if !ok {
				goals = nil
				continue
			}
			f.apply(log, srcGoals, snap.Err, func(in *timeline.Input) { in.Goals = snap.Items })

		case snap, ok := <-moods:
			if !ok {
				moods = nil
				continue
			}
			f.apply(log, srcMoods, snap.Err, func(in *timeline.Input) { in.Moods = snap.Items })

		case snap, ok := <-notes:
			if !ok {
				notes = nil
				continue
			}
			f.apply(log, srcNotes, snap.Err, func(in *timeline.Input) { in.Notes = snap.Items })
		}
	}
}

// apply replaces one collection with its new snapshot and recomputes the
// timeline. A failed snapshot only records the error.
func (f *Feed) apply(log *slog.Logger, src int, err error, replace func(*timeline.Input)) {
	f.mu.Lock()
	if err != nil {
		log.Warn("listener failed, keeping last good snapshot", "collection", sourceNames[src], "error", err)
		f.errs[src] = err
	} else {
		replace(&f.input)
		f.seen[src] = true
		f.errs[src] = nil
		f.groups = timeline.Build(f.input)
	}
	st := f.stateLocked()
	close(f.changed)
	f.changed = make(chan struct{})
	f.mu.Unlock()

	select {
	case <-f.updates:
	default:
	}
	f.updates <- st
}

// State returns the latest timeline.
func (f *Feed) State() State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.stateLocked()
}

func (f *Feed) stateLocked() State {
	st := State{Groups: f.groups, Ready: true}
	for i := range f.seen {
		if !f.seen[i] {
			st.Ready = false
		}
		if st.Err == nil && f.errs[i] != nil {
			st.Err = f.errs[i]
		}
	}
	return st
}

// Updates delivers the state after every change. Unread states are replaced.
func (f *Feed) Updates() <-chan State {
	return f.updates
}

// Wait blocks until every collection has delivered a snapshot. It returns
// the listener error if one fails first.
func (f *Feed) Wait(ctx context.Context) error {
	for {
		f.mu.RLock()
		st := f.stateLocked()
		changed := f.changed
		f.mu.RUnlock()

		if st.Ready {
			return nil
		}
		if st.Err != nil {
			return st.Err
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return errFeedClosed
		}
	}
}

// Done is closed once the feed has stopped following the store.
func (f *Feed) Done() <-chan struct{} {
	return f.stopped
}

// Close releases the subscriptions and stops the feed.
func (f *Feed) Close() {
	f.once.Do(func() {
		close(f.done)
		<-f.stopped
		f.release()
	})
}

func (f *Feed) release() {
	if f.sessions != nil {
		f.sessions.Close()
	}
	if f.goals != nil {
		f.goals.Close()
	}
	if f.moods != nil {
		f.moods.Close()
	}
	if f.notes != nil {
		f.notes.Close()
	}
}
