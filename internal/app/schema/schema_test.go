package schema_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/farum-diary/internal/app/schema"
	"github.com/PabloGalante/farum-diary/internal/domain"
)

func minute(m int) time.Time {
	return time.Date(2026, time.October, 1, 12, m, 0, 0, time.UTC)
}

func kinds(rows []schema.Row) []schema.RowKind {
	out := make([]schema.RowKind, len(rows))
	for i, r := range rows {
		out[i] = r.Kind
	}
	return out
}

func TestBuild_MergesChatAndGoals(t *testing.T) {
	session := domain.Session{
		ID: "s1",
		ChatHistory: []domain.Message{
			{Role: domain.RoleUser, Content: "Я тревожусь", Timestamp: minute(0)},
			{Role: domain.RoleAssistant, Content: "Понимаю вас", Timestamp: minute(1)},
		},
	}
	goals := []domain.Goal{
		{
			ID: "g1", Text: "Цель 1: Дыхание", SessionID: "s1", CreatedAt: minute(2), Completed: true,
			DueDate: minute(50),
			Body:    &domain.ReflectionPrompt{Reflections: []domain.Entry{{Text: "Помогло", CreatedAt: minute(10)}}},
		},
		{ID: "g2", Text: "Чужая", SessionID: "s2", CreatedAt: minute(3)},
		{ID: "g3", Text: "Личная", CreatedAt: minute(4)},
	}

	rows := schema.Build(session, goals)
	assert.Equal(t, []schema.RowKind{
		schema.RowQuestion, schema.RowAnswer, schema.RowGoal, schema.RowReflection, schema.RowGoalCompleted,
	}, kinds(rows))

	assert.Equal(t, schema.ActorUser, rows[0].Actor)
	assert.Equal(t, "Поставлена цель: Цель 1: Дыхание", rows[2].Content)
	assert.Equal(t, "Завершена цель: Цель 1: Дыхание", rows[4].Content)
	assert.Equal(t, minute(10), rows[4].At, "last reflection time")
	assert.Equal(t, schema.ActorSuccess, rows[4].Actor)
}

func TestBuild_ExcludesUndatedRows(t *testing.T) {
	session := domain.Session{
		ID: "s1",
		ChatHistory: []domain.Message{
			{Role: domain.RoleUser, Content: "без времени"},
			{Role: domain.RoleAssistant, Content: "ok", Timestamp: minute(5)},
		},
	}
	goals := []domain.Goal{{ID: "g", SessionID: "s1", Completed: true, Body: &domain.Checklist{}}}

	rows := schema.Build(session, goals)
	require.Len(t, rows, 1)
	assert.Equal(t, "ok", rows[0].Content)
}

func TestBuild_AscendingAndStable(t *testing.T) {
	session := domain.Session{
		ID: "s1",
		ChatHistory: []domain.Message{
			{Role: domain.RoleUser, Content: "b", Timestamp: minute(9)},
			{Role: domain.RoleUser, Content: "a1", Timestamp: minute(1)},
			{Role: domain.RoleAssistant, Content: "a2", Timestamp: minute(1)},
		},
	}

	rows := schema.Build(session, nil)
	require.Len(t, rows, 3)
	assert.Equal(t, "a1", rows[0].Content)
	assert.Equal(t, "a2", rows[1].Content)
	assert.Equal(t, "b", rows[2].Content)
}

func TestCompletionTime_Priority(t *testing.T) {
	g := domain.Goal{DueDate: minute(30), Body: &domain.ReflectionPrompt{}}
	assert.Equal(t, minute(30), schema.CompletionTime(g))

	g.Body = &domain.ReflectionPrompt{Reflections: []domain.Entry{{CreatedAt: minute(5)}, {CreatedAt: minute(7)}}}
	assert.Equal(t, minute(7), schema.CompletionTime(g))

	g.Feedback = &domain.ChecklistFeedback{CreatedAt: minute(20)}
	assert.Equal(t, minute(20), schema.CompletionTime(g))
}
