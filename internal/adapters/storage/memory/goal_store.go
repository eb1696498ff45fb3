package memory

import (
	"context"
	"fmt"

	"github.com/PabloGalante/farum-diary/internal/domain"
)

func (s *Store) SubscribeGoals(_ context.Context, owner domain.UserID) (*domain.Subscription[domain.Goal], error) {
	if err := s.check("subscribe", domain.CollectionGoals); err != nil {
		return nil, err
	}
	return s.goals.subscribe(owner), nil
}

func (s *Store) ListGoals(_ context.Context, owner domain.UserID) ([]domain.Goal, error) {
	if err := s.check("list", domain.CollectionGoals); err != nil {
		return nil, err
	}
	return s.goals.list(owner), nil
}

func (s *Store) GetGoal(_ context.Context, owner domain.UserID, id domain.GoalID) (*domain.Goal, error) {
	if err := s.check("get", domain.CollectionGoals); err != nil {
		return nil, err
	}

	g, ok := s.goals.find(owner, func(v domain.Goal) bool { return v.ID == id })
	if !ok {
		return nil, fmt.Errorf("goal %s: %w", id, domain.ErrNotFound)
	}
	return &g, nil
}

func (s *Store) CreateGoal(_ context.Context, owner domain.UserID, goal *domain.Goal) (domain.GoalID, error) {
	if err := s.check("create", domain.CollectionGoals); err != nil {
		return "", err
	}

	g := goal.Clone()
	g.ID = domain.GoalID(newID())
	g.OwnerID = owner
	g.CreatedAt = s.serverTime()

	s.goals.insert(owner, g)
	goal.CreatedAt = g.CreatedAt
	return g.ID, nil
}

func (s *Store) UpdateGoal(_ context.Context, owner domain.UserID, id domain.GoalID, patch domain.GoalPatch) error {
	if err := s.check("update", domain.CollectionGoals); err != nil {
		return err
	}

	ok := s.goals.update(owner, func(v domain.Goal) bool { return v.ID == id }, func(g *domain.Goal) {
		if patch.SubItems != nil {
			if c, isChecklist := g.Body.(*domain.Checklist); isChecklist {
				c.SubItems = append([]domain.SubItem(nil), patch.SubItems...)
			}
		}
		if patch.Completed != nil {
			g.Completed = *patch.Completed
		}
		if patch.DueDate != nil {
			g.DueDate = *patch.DueDate
		}
		if patch.PostponeCount != nil {
			g.PostponeCount = *patch.PostponeCount
		}
		if patch.Feedback != nil {
			fb := *patch.Feedback
			g.Feedback = &fb
		}
	})
	if !ok {
		return fmt.Errorf("goal %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) AppendGoalReflection(_ context.Context, owner domain.UserID, id domain.GoalID, entry domain.Entry, complete bool) error {
	if err := s.check("append", domain.CollectionGoals); err != nil {
		return err
	}

	ok := s.goals.update(owner, func(v domain.Goal) bool { return v.ID == id }, func(g *domain.Goal) {
		r, isReflection := g.Body.(*domain.ReflectionPrompt)
		if !isReflection {
			r = &domain.ReflectionPrompt{}
			g.Body = r
		}
		r.Reflections = append(r.Reflections, entry)
		if complete {
			g.Completed = true
		}
	})
	if !ok {
		return fmt.Errorf("goal %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
