package firestore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/farum-diary/internal/domain"
)

func TestStoreErr_MapsStatusCodes(t *testing.T) {
	err := storeErr("get", domain.CollectionGoals, status.Error(codes.NotFound, "missing"))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.False(t, errors.Is(err, domain.ErrStoreUnavailable))

	err = storeErr("create", domain.CollectionGoals, status.Error(codes.Unavailable, "down"))
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}

func TestGoalDocFrom_FlattensVariant(t *testing.T) {
	due := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	personal := goalDocFrom(&domain.Goal{
		Text:    "Бег",
		DueDate: due,
		Body:    &domain.Checklist{SubItems: []domain.SubItem{{Text: "A"}, {Text: "B", Completed: true}}},
	})
	assert.Equal(t, "checklist", personal.Type)
	assert.Nil(t, personal.SessionID)
	require.Len(t, personal.SubItems, 2)
	assert.True(t, personal.SubItems[1].Completed)
	assert.Empty(t, personal.Reflections)

	linked := goalDocFrom(&domain.Goal{
		Text:         "Цель 1: Дыхание",
		SessionID:    "s1",
		SessionTitle: "Тревога",
		Body:         &domain.ReflectionPrompt{},
	})
	assert.Equal(t, "reflection", linked.Type)
	require.NotNil(t, linked.SessionID)
	assert.Equal(t, "s1", *linked.SessionID)
	assert.Equal(t, "Тревога", *linked.SessionTitle)
	assert.Empty(t, linked.SubItems)
}

func TestSessionPayloadMap_MergesOnlyTurnFields(t *testing.T) {
	score := 60
	m := sessionPayloadMap(domain.SessionPayload{
		Title:       "Тревога",
		ChatHistory: []domain.Message{{ID: "m1", Role: domain.RoleAssistant, Content: "Понимаю вас", Score: &score}},
		Score:       60,
	})

	assert.NotContains(t, m, "createdAt")
	hist, ok := m["chatHistory"].([]messageDoc)
	require.True(t, ok)
	require.Len(t, hist, 1)
	assert.Equal(t, 60, *hist[0].Score)
}

// Runs against the Firestore emulator when FIRESTORE_EMULATOR_HOST is set.
func TestStore_Emulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	ctx := context.Background()
	s, err := NewStore(ctx, "farum-test", "test-app")
	require.NoError(t, err)
	defer s.Close()

	owner := domain.UserID("emulator-user")

	sub, err := s.SubscribeMoods(ctx, owner)
	require.NoError(t, err)
	defer sub.Close()

	_, err = s.CreateMood(ctx, owner, &domain.Mood{Mood: domain.MoodHappy, Intensity: 4})
	require.NoError(t, err)

	deadline := time.After(10 * time.Second)
	for {
		select {
		case snap := <-sub.Snapshots():
			require.NoError(t, snap.Err)
			for _, m := range snap.Items {
				if m.Mood == domain.MoodHappy && !m.CreatedAt.IsZero() {
					return
				}
			}
		case <-deadline:
			t.Fatal("mood never showed up in snapshot")
		}
	}
}
