package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/PabloGalante/farum-diary/internal/domain"
	"github.com/PabloGalante/farum-diary/internal/observability"
)

// DefaultGender is stored when the user leaves gender blank.
const DefaultGender = "не указан"

// Service loads and saves the single profile of a user. Until one exists the
// rest of the app is closed to that user.
type Service struct {
	store domain.ProfileStore
}

func NewService(store domain.ProfileStore) *Service {
	return &Service{store: store}
}

// Get returns the profile, or domain.ErrNotFound if the user has none.
func (s *Service) Get(ctx context.Context, owner domain.UserID) (*domain.Profile, error) {
	return s.store.GetProfile(ctx, owner)
}

// Require is Get with a missing profile reported as domain.ErrProfileRequired.
func (s *Service) Require(ctx context.Context, owner domain.UserID) (*domain.Profile, error) {
	p, err := s.store.GetProfile(ctx, owner)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrProfileRequired
	}
	return p, err
}

// Save validates and stores the profile, creating it on first use.
func (s *Service) Save(ctx context.Context, owner domain.UserID, p domain.Profile) (*domain.Profile, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Gender = strings.TrimSpace(p.Gender)
	if p.Gender == "" {
		p.Gender = DefaultGender
	}
	if err := domain.Validate(p); err != nil {
		return nil, err
	}

	if err := s.store.SaveProfile(ctx, owner, p); err != nil {
		observability.LoggerFromContext(ctx).Error("failed to save profile", "user_id", owner, "error", err)
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info("profile saved", "user_id", owner)
	return &p, nil
}
