package timeline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/farum-diary/internal/app/timeline"
	"github.com/PabloGalante/farum-diary/internal/domain"
)

func at(day, hour int) time.Time {
	return time.Date(2026, time.October, day, hour, 0, 0, 0, time.UTC)
}

func ids(entries []timeline.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestBuild_SessionGroupAndMoodDay(t *testing.T) {
	t1 := at(10, 12)
	t2 := at(10, 9)

	in := timeline.Input{
		Sessions: []domain.Session{{ID: "s1", Title: "Тревога", CreatedAt: t1}},
		Goals: []domain.Goal{{
			ID: "g1", SessionID: "s1", SessionTitle: "Тревога", CreatedAt: t2,
			Body: &domain.ReflectionPrompt{},
		}},
		Moods: []domain.Mood{{ID: "m1", Mood: domain.MoodSad, Intensity: 2, CreatedAt: at(5, 8)}},
	}

	groups := timeline.Build(in)
	require.Len(t, groups, 2)

	assert.Equal(t, timeline.GroupSession, groups[0].Kind)
	assert.Equal(t, "Тревога", groups[0].Title)
	assert.Equal(t, t1, groups[0].Date)
	assert.Equal(t, []string{"s1", "g1"}, ids(groups[0].Entries))
	assert.Equal(t, timeline.EntrySession, groups[0].Entries[0].Kind)
	assert.Equal(t, timeline.EntryGoal, groups[0].Entries[1].Kind)

	assert.Equal(t, timeline.GroupDay, groups[1].Kind)
	assert.Equal(t, "Понедельник, 5 октября 2026 г.", groups[1].Title)
	assert.Equal(t, []string{"m1"}, ids(groups[1].Entries))
}

func TestBuild_Idempotent(t *testing.T) {
	in := timeline.Input{
		Sessions: []domain.Session{
			{ID: "s1", CreatedAt: at(3, 10)},
			{ID: "s2", CreatedAt: at(7, 10)},
		},
		Goals: []domain.Goal{
			{ID: "g1", SessionID: "s2", CreatedAt: at(7, 11)},
			{ID: "g2", CreatedAt: at(4, 9)},
			{ID: "g3", SessionID: "s1", CreatedAt: at(3, 11)},
		},
		Moods: []domain.Mood{{ID: "m1", CreatedAt: at(4, 20)}, {ID: "m2", CreatedAt: at(8, 1)}},
		Notes: []domain.DiaryNote{{ID: "n1", CreatedAt: at(4, 12)}},
	}

	first := timeline.Build(in)
	second := timeline.Build(in)
	assert.Equal(t, first, second)

	require.Len(t, first, 4)
	assert.Equal(t, timeline.GroupDay, first[0].Kind) // Oct 8
	assert.Equal(t, []string{"m2"}, ids(first[0].Entries))
	assert.Equal(t, []string{"g1", "s2"}, ids(first[1].Entries))
	assert.Equal(t, []string{"m1", "n1", "g2"}, ids(first[2].Entries))
	assert.Equal(t, []string{"g3", "s1"}, ids(first[3].Entries))
}

func TestBuild_StableTies(t *testing.T) {
	same := at(9, 9)
	in := timeline.Input{
		Goals: []domain.Goal{{ID: "g1", CreatedAt: same}},
		Moods: []domain.Mood{{ID: "m1", CreatedAt: same}, {ID: "m2", CreatedAt: same}},
		Notes: []domain.DiaryNote{{ID: "n1", CreatedAt: same}},
	}

	groups := timeline.Build(in)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"g1", "m1", "m2", "n1"}, ids(groups[0].Entries))
}

func TestBuild_DropsUndatableLooseEntries(t *testing.T) {
	in := timeline.Input{
		Moods: []domain.Mood{{ID: "m1"}, {ID: "m2", CreatedAt: at(1, 1)}},
		Notes: []domain.DiaryNote{{ID: "n1"}},
	}

	groups := timeline.Build(in)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"m2"}, ids(groups[0].Entries))
}

func TestBuild_OrphanGoalFallsIntoDay(t *testing.T) {
	in := timeline.Input{
		Goals: []domain.Goal{{ID: "g1", SessionID: "missing", CreatedAt: at(2, 2)}},
	}

	groups := timeline.Build(in)
	require.Len(t, groups, 1)
	assert.Equal(t, timeline.GroupDay, groups[0].Kind)
	assert.Equal(t, []string{"g1"}, ids(groups[0].Entries))
}

func TestBuild_Empty(t *testing.T) {
	assert.Empty(t, timeline.Build(timeline.Input{}))
}

func TestDayTitle_UsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	// 2026-10-16 02:00 at UTC+5 is still the 15th in UTC.
	assert.Equal(t, "Четверг, 15 октября 2026 г.", timeline.DayTitle(time.Date(2026, 10, 16, 2, 0, 0, 0, loc)))
}
