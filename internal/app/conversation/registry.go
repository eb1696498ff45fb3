package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/farum-diary/internal/domain"
	"github.com/PabloGalante/farum-diary/internal/observability"
)

type Option func(*Engine)

// WithClock sets the time source for message ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithSession starts the engine bound to an already stored session.
func WithSession(id domain.SessionID) Option {
	return func(e *Engine) { e.sessionID = id }
}

// NewEngine creates an engine for owner, in Draft unless WithSession is given.
// profile may be nil.
func NewEngine(owner domain.UserID, profile *domain.Profile, store domain.SessionStore, analyzer domain.Analyzer, goals GoalCreator, opts ...Option) *Engine {
	e := &Engine{
		owner:    owner,
		profile:  profile,
		store:    store,
		analyzer: analyzer,
		goals:    goals,
		now:      time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// ProfileSource returns the profile of a user, or domain.ErrProfileRequired.
type ProfileSource interface {
	Require(ctx context.Context, owner domain.UserID) (*domain.Profile, error)
}

type entry struct {
	owner    domain.UserID
	engine   *Engine
	lastUsed time.Time
}

// Registry keeps the open conversations behind opaque handles. A handle lives
// until Close or until ReleaseIdle finds it unused.
type Registry struct {
	store    domain.SessionStore
	analyzer domain.Analyzer
	goals    GoalCreator
	profiles ProfileSource
	opts     []Option

	mu      sync.Mutex
	engines map[string]entry
}

func NewRegistry(store domain.SessionStore, analyzer domain.Analyzer, goals GoalCreator, profiles ProfileSource, opts ...Option) *Registry {
	return &Registry{
		store:    store,
		analyzer: analyzer,
		goals:    goals,
		profiles: profiles,
		opts:     opts,
		engines:  make(map[string]entry),
	}
}

// Open starts a new draft conversation.
func (r *Registry) Open(ctx context.Context, owner domain.UserID) (string, *Engine, error) {
	profile, err := r.profiles.Require(ctx, owner)
	if err != nil {
		return "", nil, err
	}

	e := NewEngine(owner, profile, r.store, r.analyzer, r.goals, r.opts...)
	return r.add(ctx, owner, e), e, nil
}

// Resume continues a stored session.
func (r *Registry) Resume(ctx context.Context, owner domain.UserID, id domain.SessionID) (string, *Engine, error) {
	profile, err := r.profiles.Require(ctx, owner)
	if err != nil {
		return "", nil, err
	}
	if _, err := r.store.GetSession(ctx, owner, id); err != nil {
		return "", nil, err
	}

	opts := append(append([]Option(nil), r.opts...), WithSession(id))
	e := NewEngine(owner, profile, r.store, r.analyzer, r.goals, opts...)
	return r.add(ctx, owner, e), e, nil
}

// Get returns the engine behind handle if it belongs to owner.
func (r *Registry) Get(owner domain.UserID, handle string) (*Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	en, ok := r.engines[handle]
	if !ok || en.owner != owner {
		return nil, fmt.Errorf("conversation %s: %w", handle, domain.ErrNotFound)
	}
	en.lastUsed = time.Now()
	r.engines[handle] = en
	return en.engine, nil
}

// Close drops the conversation behind handle. Stored sessions are untouched
// and can be resumed later.
func (r *Registry) Close(ctx context.Context, owner domain.UserID, handle string) error {
	r.mu.Lock()
	en, ok := r.engines[handle]
	if ok && en.owner == owner {
		delete(r.engines, handle)
	}
	r.mu.Unlock()

	if !ok || en.owner != owner {
		return fmt.Errorf("conversation %s: %w", handle, domain.ErrNotFound)
	}
	observability.LoggerFromContext(ctx).Info("conversation closed", "user_id", owner, "handle", handle)
	return nil
}

// ReleaseIdle drops every conversation last used before cutoff, except those
// waiting for an analysis. It returns how many were dropped.
func (r *Registry) ReleaseIdle(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for handle, en := range r.engines {
		if en.lastUsed.Before(cutoff) && !en.engine.Sending() {
			delete(r.engines, handle)
			n++
		}
	}
	return n
}

// ExpireIdle runs ReleaseIdle every interval for conversations unused longer
// than idle, until ctx is done.
func (r *Registry) ExpireIdle(ctx context.Context, idle, interval time.Duration) {
	log := observability.WithFields("component", "conversations")
	expireLoop(ctx, interval, func(now time.Time) {
		if n := r.ReleaseIdle(now.Add(-idle)); n > 0 {
			log.Info("idle conversations released", "count", n)
		}
	})
}

// Len is the number of open conversations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.engines)
}

func (r *Registry) add(ctx context.Context, owner domain.UserID, e *Engine) string {
	handle := uuid.NewString()

	r.mu.Lock()
	r.engines[handle] = entry{owner: owner, engine: e, lastUsed: time.Now()}
	r.mu.Unlock()

	observability.LoggerFromContext(ctx).Info("conversation opened", "user_id", owner, "handle", handle, "session_id", e.sessionID)
	return handle
}

func expireLoop(ctx context.Context, interval time.Duration, sweep func(now time.Time)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			sweep(now)
		case <-ctx.Done():
			return
		}
	}
}
