package memory

import (
	"context"
	"fmt"

	"github.com/PabloGalante/farum-diary/internal/domain"
)

func (s *Store) SubscribeMoods(_ context.Context, owner domain.UserID) (*domain.Subscription[domain.Mood], error) {
	if err := s.check("subscribe", domain.CollectionMoods); err != nil {
		return nil, err
	}
	return s.moods.subscribe(owner), nil
}

func (s *Store) CreateMood(_ context.Context, owner domain.UserID, mood *domain.Mood) (domain.MoodID, error) {
	if err := s.check("create", domain.CollectionMoods); err != nil {
		return "", err
	}

	m := *mood
	m.ID = domain.MoodID(newID())
	m.OwnerID = owner
	m.CreatedAt = s.serverTime()

	s.moods.insert(owner, m)
	mood.CreatedAt = m.CreatedAt
	return m.ID, nil
}

func (s *Store) SubscribeNotes(_ context.Context, owner domain.UserID) (*domain.Subscription[domain.DiaryNote], error) {
	if err := s.check("subscribe", domain.CollectionDiaryNotes); err != nil {
		return nil, err
	}
	return s.notes.subscribe(owner), nil
}

func (s *Store) CreateNote(_ context.Context, owner domain.UserID, note *domain.DiaryNote) (domain.NoteID, error) {
	if err := s.check("create", domain.CollectionDiaryNotes); err != nil {
		return "", err
	}

	n := note.Clone()
	n.ID = domain.NoteID(newID())
	n.OwnerID = owner
	n.CreatedAt = s.serverTime()

	s.notes.insert(owner, n)
	note.CreatedAt = n.CreatedAt
	return n.ID, nil
}

func (s *Store) AppendNoteEntry(_ context.Context, owner domain.UserID, id domain.NoteID, entry domain.Entry) error {
	if err := s.check("append", domain.CollectionDiaryNotes); err != nil {
		return err
	}

	ok := s.notes.update(owner, func(v domain.DiaryNote) bool { return v.ID == id }, func(n *domain.DiaryNote) {
		n.Entries = append(n.Entries, entry)
	})
	if !ok {
		return fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) GetProfile(_ context.Context, owner domain.UserID) (*domain.Profile, error) {
	if err := s.check("get", domain.CollectionProfiles); err != nil {
		return nil, err
	}

	s.profMu.RLock()
	defer s.profMu.RUnlock()

	p, ok := s.profiles[owner]
	if !ok {
		return nil, fmt.Errorf("profile of %s: %w", owner, domain.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) SaveProfile(_ context.Context, owner domain.UserID, profile domain.Profile) error {
	if err := s.check("set", domain.CollectionProfiles); err != nil {
		return err
	}

	s.profMu.Lock()
	defer s.profMu.Unlock()

	s.profiles[owner] = profile
	return nil
}
