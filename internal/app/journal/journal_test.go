package journal_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/farum-diary/internal/adapters/storage/memory"
	"github.com/PabloGalante/farum-diary/internal/app/journal"
	"github.com/PabloGalante/farum-diary/internal/app/timeline"
	"github.com/PabloGalante/farum-diary/internal/domain"
)

const owner = domain.UserID("u1")

func seed(t *testing.T, store *memory.Store) domain.SessionID {
	t.Helper()
	ctx := context.Background()

	sid, err := store.CreateSession(ctx, owner, domain.SessionPayload{Title: "Тревога"})
	require.NoError(t, err)
	_, err = store.CreateGoal(ctx, owner, &domain.Goal{Text: "Цель 1: Дыхание", SessionID: sid, SessionTitle: "Тревога", Body: &domain.ReflectionPrompt{}})
	require.NoError(t, err)
	_, err = store.CreateMood(ctx, owner, &domain.Mood{Mood: domain.MoodSad, Intensity: 2})
	require.NoError(t, err)
	return sid
}

func countEntries(groups []timeline.Group) int {
	n := 0
	for _, g := range groups {
		n += len(g.Entries)
	}
	return n
}

func TestTimeline_BuildsFromAllCollections(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)
	svc := journal.NewService(store)
	defer svc.Close()

	st, err := svc.Timeline(context.Background(), owner)
	require.NoError(t, err)
	require.True(t, st.Ready)
	assert.NoError(t, st.Err)
	assert.Equal(t, 3, countEntries(st.Groups))

	kinds := map[timeline.GroupKind]int{}
	for _, g := range st.Groups {
		kinds[g.Kind]++
	}
	assert.Equal(t, map[timeline.GroupKind]int{timeline.GroupSession: 1, timeline.GroupDay: 1}, kinds)
}

func TestFeed_FollowsWrites(t *testing.T) {
	store := memory.NewStore()
	svc := journal.NewService(store)
	defer svc.Close()
	ctx := context.Background()

	f, err := svc.Feed(ctx, owner)
	require.NoError(t, err)
	require.NoError(t, f.Wait(ctx))
	assert.Empty(t, f.State().Groups)

	_, err = store.CreateNote(ctx, owner, &domain.DiaryNote{Title: "x", Entries: []domain.Entry{{Text: "x"}}})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return countEntries(f.State().Groups) == 1
	}, time.Second, 5*time.Millisecond)

	select {
	case st := <-f.Updates():
		assert.True(t, st.Ready)
	case <-time.After(time.Second):
		t.Fatal("no update delivered")
	}
}

func TestTimeline_KeepsLastGoodSnapshotWhileStoreIsDown(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)
	svc := journal.NewService(store)
	defer svc.Close()
	ctx := context.Background()

	before, err := svc.Timeline(ctx, owner)
	require.NoError(t, err)

	f, err := svc.Feed(ctx, owner)
	require.NoError(t, err)

	store.SetOffline(true)
	require.Eventually(t, func() bool { return f.State().Err != nil }, time.Second, 5*time.Millisecond)

	during, err := svc.Timeline(ctx, owner)
	require.NoError(t, err)
	assert.ErrorIs(t, during.Err, domain.ErrStoreUnavailable)
	assert.Equal(t, before.Groups, during.Groups)

	store.SetOffline(false)
	after, err := svc.Timeline(ctx, owner)
	require.NoError(t, err)
	assert.NoError(t, after.Err)
	assert.Equal(t, 3, countEntries(after.Groups))
}

func TestTimeline_StoreDownOnFirstUse(t *testing.T) {
	store := memory.NewStore()
	store.SetOffline(true)
	svc := journal.NewService(store)
	defer svc.Close()

	_, err := svc.Timeline(context.Background(), owner)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestFeed_CloseReleases(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	f, err := journal.Open(ctx, store, owner)
	require.NoError(t, err)
	require.NoError(t, f.Wait(ctx))

	f.Close()
	f.Close()

	// writes after close must not block or panic
	_, err = store.CreateMood(ctx, owner, &domain.Mood{Mood: domain.MoodHappy, Intensity: 1})
	require.NoError(t, err)
	assert.Empty(t, f.State().Groups)
}

func TestFeed_WaitHonoursContext(t *testing.T) {
	store := memory.NewStore()
	f, err := journal.Open(context.Background(), store, owner)
	require.NoError(t, err)
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// initial snapshots may already be in; either outcome is fine as long as it returns
	err = f.Wait(ctx)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestService_ReleaseIdleClosesFeeds(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)
	svc := journal.NewService(store)
	defer svc.Close()
	ctx := context.Background()

	_, err := svc.Timeline(ctx, owner)
	require.NoError(t, err)
	f, err := svc.Feed(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 4, store.Listeners(owner))

	assert.Zero(t, svc.ReleaseIdle(time.Now().Add(-time.Hour)))
	assert.Equal(t, 4, store.Listeners(owner))

	assert.Equal(t, 1, svc.ReleaseIdle(time.Now().Add(time.Minute)))
	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("idle feed still running")
	}
	assert.Zero(t, store.Listeners(owner))

	// the next request opens a fresh feed
	st, err := svc.Timeline(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 3, countEntries(st.Groups))
	assert.Equal(t, 4, store.Listeners(owner))
}

func TestService_ExpireIdle(t *testing.T) {
	store := memory.NewStore()
	svc := journal.NewService(store)
	defer svc.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f, err := svc.Feed(ctx, owner)
	require.NoError(t, err)

	go svc.ExpireIdle(ctx, 0, time.Millisecond)

	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("idle feed still running")
	}
	require.Eventually(t, func() bool { return store.Listeners(owner) == 0 }, time.Second, time.Millisecond)
}
