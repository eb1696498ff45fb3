package journal

import (
	"context"
	"sync"
	"time"

	"github.com/PabloGalante/farum-diary/internal/domain"
	"github.com/PabloGalante/farum-diary/internal/observability"
)

// Service holds one live feed per user and serves their timelines. Feeds
// nobody asked for since a cutoff are closed by ReleaseIdle.
type Service struct {
	store Store

	mu       sync.Mutex
	feeds    map[domain.UserID]*Feed
	lastUsed map[domain.UserID]time.Time
}

// NewService creates a journal service from the record store.
func NewService(store Store) *Service {
	return &Service{
		store:    store,
		feeds:    make(map[domain.UserID]*Feed),
		lastUsed: make(map[domain.UserID]time.Time),
	}
}

// Timeline returns the current timeline of owner, opening its feed on first
// use. If a listener has failed, one fresh feed is tried; when that fails too
// the last good timeline is returned with State.Err set, or the error itself
// if there never was a good one.
func (s *Service) Timeline(ctx context.Context, owner domain.UserID) (State, error) {
	f, err := s.feed(ctx, owner)
	if err != nil {
		return State{}, err
	}
	if err := f.Wait(ctx); err != nil && ctx.Err() != nil {
		return f.State(), err
	}

	st := f.State()
	if st.Ready && st.Err == nil {
		return st, nil
	}

	nf, err := s.reopen(ctx, owner, f)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("journal feed unavailable", "user_id", owner, "ready", st.Ready, "error", err)
		if !st.Ready {
			return st, err
		}
		return st, nil
	}
	return nf.State(), nil
}

// reopen replaces a failed feed with a fresh one once the new one is ready.
func (s *Service) reopen(ctx context.Context, owner domain.UserID, old *Feed) (*Feed, error) {
	nf, err := Open(ctx, s.store, owner)
	if err != nil {
		return nil, err
	}
	if err := nf.Wait(ctx); err != nil {
		nf.Close()
		return nil, err
	}

	s.mu.Lock()
	cur := s.feeds[owner]
	if cur == old {
		s.feeds[owner] = nf
	}
	s.mu.Unlock()

	if cur != old {
		// someone else reopened first
		nf.Close()
		return cur, nil
	}
	old.Close()
	return nf, nil
}

// Feed returns the live feed of owner, opening it if needed.
func (s *Service) Feed(ctx context.Context, owner domain.UserID) (*Feed, error) {
	return s.feed(ctx, owner)
}

func (s *Service) feed(ctx context.Context, owner domain.UserID) (*Feed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastUsed[owner] = time.Now()
	if f, ok := s.feeds[owner]; ok {
		return f, nil
	}

	f, err := Open(ctx, s.store, owner)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to open journal feed", "user_id", owner, "error", err)
		return nil, err
	}
	s.feeds[owner] = f
	return f, nil
}

// ReleaseIdle closes the feeds last requested before cutoff and returns how
// many were closed. The next request for such a user opens a fresh feed.
func (s *Service) ReleaseIdle(cutoff time.Time) int {
	s.mu.Lock()
	var idle []*Feed
	for owner, f := range s.feeds {
		if s.lastUsed[owner].Before(cutoff) {
			idle = append(idle, f)
			delete(s.feeds, owner)
			delete(s.lastUsed, owner)
		}
	}
	s.mu.Unlock()

	for _, f := range idle {
		f.Close()
	}
	return len(idle)
}

// ExpireIdle runs ReleaseIdle every interval for feeds unused longer than
// idle, until ctx is done.
func (s *Service) ExpireIdle(ctx context.Context, idle, interval time.Duration) {
	log := observability.WithFields("component", "journal")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			if n := s.ReleaseIdle(now.Add(-idle)); n > 0 {
				log.Info("idle journal feeds released", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close releases every feed.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for owner, f := range s.feeds {
		f.Close()
		delete(s.feeds, owner)
		delete(s.lastUsed, owner)
	}
}
