package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/farum-diary/internal/domain"
)

func checklistGoal(items ...string) domain.Goal {
	subs := make([]domain.SubItem, 0, len(items))
	for _, t := range items {
		subs = append(subs, domain.SubItem{Text: t})
	}
	return domain.Goal{
		ID:      "g1",
		Text:    "goal",
		DueDate: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		Body:    &domain.Checklist{SubItems: subs},
	}
}

func TestToggleSubItem_CompletesOnlyWhenAllDone(t *testing.T) {
	g := checklistGoal("A", "B")

	became, err := g.ToggleSubItem(0)
	require.NoError(t, err)
	assert.False(t, became)
	assert.False(t, g.Completed)

	became, err = g.ToggleSubItem(1)
	require.NoError(t, err)
	assert.True(t, became)
	assert.True(t, g.Completed)

	// already completed: no second transition
	became, err = g.ToggleSubItem(1)
	require.NoError(t, err)
	assert.False(t, became)
	assert.False(t, g.Completed)

	became, err = g.ToggleSubItem(1)
	require.NoError(t, err)
	assert.True(t, became)
}

func TestToggleSubItem_InvariantHoldsForEverySequence(t *testing.T) {
	g := checklistGoal("A", "B", "C")
	seq := []int{0, 2, 1, 1, 0, 0, 2, 1, 2, 2}

	for _, i := range seq {
		_, err := g.ToggleSubItem(i)
		require.NoError(t, err)

		all := true
		for _, it := range g.SubItems() {
			all = all && it.Completed
		}
		require.Equal(t, all, g.Completed)
	}
}

func TestToggleSubItem_Rejections(t *testing.T) {
	g := checklistGoal("A")
	_, err := g.ToggleSubItem(3)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	r := domain.Goal{Body: &domain.ReflectionPrompt{}}
	_, err = r.ToggleSubItem(0)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestPostpone_SaturatesAtThree(t *testing.T) {
	g := checklistGoal("A")
	due := g.DueDate

	for i := 1; i <= domain.MaxPostpones; i++ {
		require.NoError(t, g.Postpone())
		assert.Equal(t, i, g.PostponeCount)
	}
	assert.Equal(t, due.AddDate(0, 0, 9), g.DueDate)

	before := g.DueDate
	err := g.Postpone()
	assert.True(t, errors.Is(err, domain.ErrNotAllowed))
	assert.Equal(t, before, g.DueDate)
	assert.Equal(t, domain.MaxPostpones, g.PostponeCount)
}

func TestAddReflection_CompletesReflectionGoal(t *testing.T) {
	g := domain.Goal{ID: "g2", Body: &domain.ReflectionPrompt{}}
	now := time.Date(2026, 10, 2, 9, 0, 0, 0, time.UTC)

	require.NoError(t, g.AddReflection(domain.Entry{Text: "felt better", CreatedAt: now}))
	assert.True(t, g.Completed)
	require.Len(t, g.Reflections(), 1)
	assert.Equal(t, now, g.Reflections()[0].CreatedAt)

	err := g.AddReflection(domain.Entry{Text: "   "})
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Len(t, g.Reflections(), 1)

	c := checklistGoal("A")
	err = c.AddReflection(domain.Entry{Text: "x"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestGoalClone_IsDeep(t *testing.T) {
	g := checklistGoal("A")
	g.Feedback = &domain.ChecklistFeedback{Rating: 4}

	c := g.Clone()
	_, err := c.ToggleSubItem(0)
	require.NoError(t, err)
	c.Feedback.Rating = 1

	assert.False(t, g.SubItems()[0].Completed)
	assert.Equal(t, 4, g.Feedback.Rating)
}

func TestErrorsMatchTaxonomy(t *testing.T) {
	cause := errors.New("boom")

	se := &domain.StoreError{Op: "create", Collection: domain.CollectionGoals, Err: cause}
	assert.True(t, errors.Is(se, domain.ErrStoreUnavailable))
	assert.True(t, errors.Is(se, cause))

	ae := &domain.AnalysisError{Cause: cause}
	assert.True(t, errors.Is(ae, domain.ErrAnalysisUnavailable))
	assert.True(t, errors.Is(ae, cause))
}

func TestValidate_ReportsJSONNames(t *testing.T) {
	err := domain.Validate(domain.Profile{Name: "", Age: 0, Gender: "f"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Contains(t, err.Error(), "name")
	assert.Contains(t, err.Error(), "age")

	assert.NoError(t, domain.Validate(domain.Profile{Name: "Анна", Age: 30, Gender: "f"}))
}
