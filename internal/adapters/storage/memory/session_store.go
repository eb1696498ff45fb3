package memory

import (
	"context"
	"fmt"

	"github.com/PabloGalante/farum-diary/internal/domain"
)

func (s *Store) SubscribeSessions(_ context.Context, owner domain.UserID) (*domain.Subscription[domain.Session], error) {
	if err := s.check("subscribe", domain.CollectionSessions); err != nil {
		return nil, err
	}
	return s.sessions.subscribe(owner), nil
}

func (s *Store) GetSession(_ context.Context, owner domain.UserID, id domain.SessionID) (*domain.Session, error) {
	if err := s.check("get", domain.CollectionSessions); err != nil {
		return nil, err
	}

	sess, ok := s.sessions.find(owner, func(v domain.Session) bool { return v.ID == id })
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return &sess, nil
}

func (s *Store) CreateSession(_ context.Context, owner domain.UserID, payload domain.SessionPayload) (domain.SessionID, error) {
	if err := s.check("create", domain.CollectionSessions); err != nil {
		return "", err
	}

	p := payload.Clone()
	sess := domain.Session{
		ID:              domain.SessionID(newID()),
		OwnerID:         owner,
		Title:           p.Title,
		ChatHistory:     p.ChatHistory,
		Score:           p.Score,
		Recommendations: p.Recommendations,
		Exercises:       p.Exercises,
		CreatedAt:       s.serverTime(),
	}

	s.sessions.insert(owner, sess)
	return sess.ID, nil
}

func (s *Store) UpdateSession(_ context.Context, owner domain.UserID, id domain.SessionID, payload domain.SessionPayload) error {
	if err := s.check("update", domain.CollectionSessions); err != nil {
		return err
	}

	p := payload.Clone()
	ok := s.sessions.update(owner, func(v domain.Session) bool { return v.ID == id }, func(v *domain.Session) {
		v.Title = p.Title
		v.ChatHistory = p.ChatHistory
		v.Score = p.Score
		v.Recommendations = p.Recommendations
		v.Exercises = p.Exercises
	})
	if !ok {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
