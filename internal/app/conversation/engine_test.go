package conversation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/farum-diary/internal/adapters/storage/memory"
	"github.com/PabloGalante/farum-diary/internal/app/conversation"
	"github.com/PabloGalante/farum-diary/internal/app/goals"
	"github.com/PabloGalante/farum-diary/internal/domain"
)

const owner = domain.UserID("u1")

var now = time.Date(2026, time.October, 15, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return now }

// fakeAnalyzer answers from a script, one reply per call. A gate keyed by the
// last user message holds that call until the gate is closed.
type fakeAnalyzer struct {
	mu      sync.Mutex
	replies []reply
	calls   [][]domain.Message
	gates   map[string]chan struct{}
	entered chan string
}

type reply struct {
	analysis *domain.Analysis
	err      error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, history []domain.Message, _ *domain.Profile) (*domain.Analysis, error) {
	last := history[len(history)-1].Content

	f.mu.Lock()
	f.calls = append(f.calls, append([]domain.Message(nil), history...))
	gate := f.gates[last]
	var r reply
	if len(f.replies) > 0 {
		r, f.replies = f.replies[0], f.replies[1:]
	} else {
		r = reply{analysis: anxiety()}
	}
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- last
	}
	if gate != nil {
		<-gate
	}
	if r.err != nil {
		return nil, &domain.AnalysisError{Cause: r.err}
	}
	a := *r.analysis
	a.Response = "re: " + last
	return &a, nil
}

func (f *fakeAnalyzer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func anxiety() *domain.Analysis {
	return &domain.Analysis{
		Response:        "Понимаю вас",
		Score:           "60",
		SessionTitle:    "Тревога",
		Recommendations: []string{"Дышите глубже"},
		Exercises:       []domain.Exercise{{Title: "Дыхание", Description: "5 минут"}},
	}
}

func plain() *domain.Analysis {
	return &domain.Analysis{Response: "ok", Score: "70", SessionTitle: "Тревога", Recommendations: []string{}, Exercises: []domain.Exercise{}}
}

type fixture struct {
	store    *memory.Store
	goals    *goals.Service
	analyzer *fakeAnalyzer
}

func newFixture(replies ...reply) *fixture {
	store := memory.NewStore(memory.WithClock(clock))
	return &fixture{
		store:    store,
		goals:    goals.NewService(store, goals.WithClock(clock)),
		analyzer: &fakeAnalyzer{replies: replies},
	}
}

func (f *fixture) engine(opts ...conversation.Option) *conversation.Engine {
	opts = append([]conversation.Option{conversation.WithClock(clock)}, opts...)
	return conversation.NewEngine(owner, &domain.Profile{Name: "Анна", Age: 30, Gender: "женский"}, f.store, f.analyzer, f.goals, opts...)
}

func (f *fixture) sessions(t *testing.T) []domain.Session {
	t.Helper()
	sub, err := f.store.SubscribeSessions(context.Background(), owner)
	require.NoError(t, err)
	defer sub.Close()
	snap := <-sub.Snapshots()
	require.NoError(t, snap.Err)
	return snap.Items
}

func (f *fixture) allGoals(t *testing.T) []domain.Goal {
	t.Helper()
	gs, err := f.store.ListGoals(context.Background(), owner)
	require.NoError(t, err)
	return gs
}

func TestSendMessage_NewSessionWithExerciseGoal(t *testing.T) {
	f := newFixture(reply{analysis: anxiety()})
	e := f.engine()
	ctx := context.Background()

	res, err := e.SendMessage(ctx, "Я тревожусь")
	require.NoError(t, err)
	assert.True(t, res.Created)
	require.NotNil(t, res.Assistant)
	require.Len(t, res.Goals, 1)

	sessions := f.sessions(t)
	require.Len(t, sessions, 1)
	s := sessions[0]
	assert.Equal(t, res.SessionID, s.ID)
	assert.Equal(t, "Тревога", s.Title)
	assert.Equal(t, 60, s.Score)
	assert.Equal(t, []string{"Дышите глубже"}, s.Recommendations)
	require.Len(t, s.ChatHistory, 2)
	assert.Equal(t, domain.RoleUser, s.ChatHistory[0].Role)
	assert.Equal(t, "Я тревожусь", s.ChatHistory[0].Content)
	assert.Equal(t, domain.RoleAssistant, s.ChatHistory[1].Role)
	require.NotNil(t, s.ChatHistory[1].Score)
	assert.Equal(t, 60, *s.ChatHistory[1].Score)

	gs := f.allGoals(t)
	require.Len(t, gs, 1)
	assert.Equal(t, "Цель 1: Дыхание", gs[0].Text)
	assert.Equal(t, domain.GoalReflection, gs[0].Kind())
	assert.Equal(t, s.ID, gs[0].SessionID)
	assert.Equal(t, "Тревога", gs[0].SessionTitle)
	assert.Equal(t, now.AddDate(0, 0, 3), gs[0].DueDate)

	assert.Equal(t, conversation.Persisted{SessionID: s.ID}, e.State())

	v, err := e.View(ctx)
	require.NoError(t, err)
	assert.Len(t, v.Messages, 2, "draft buffer cleared, no duplicates")
	assert.Empty(t, v.Greeting)
}

func TestSendMessage_AnalysisFailurePersistsNothing(t *testing.T) {
	f := newFixture(reply{err: errors.New("503")}, reply{analysis: anxiety()})
	e := f.engine()
	ctx := context.Background()

	res, err := e.SendMessage(ctx, "первое")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAnalysisUnavailable)
	require.NotNil(t, res)
	require.NotNil(t, res.Notice)
	assert.Equal(t, domain.RoleAssistant, res.Notice.Role)

	assert.Empty(t, f.sessions(t))
	assert.Empty(t, f.allGoals(t))
	assert.False(t, e.Sending())

	draft, ok := e.State().(conversation.Draft)
	require.True(t, ok)
	require.Len(t, draft.Messages, 1, "user message kept, notice not part of transcript")

	v, err := e.View(ctx)
	require.NoError(t, err)
	require.Len(t, v.Messages, 2)
	assert.Equal(t, "первое", v.Messages[0].Content)
	assert.Equal(t, res.Notice.ID, v.Messages[1].ID)

	// retry by sending again: both user messages reach the analyzer, the notice does not
	_, err = e.SendMessage(ctx, "второе")
	require.NoError(t, err)

	last := f.analyzer.calls[1]
	require.Len(t, last, 2)
	assert.Equal(t, "первое", last[0].Content)
	assert.Equal(t, "второе", last[1].Content)

	sessions := f.sessions(t)
	require.Len(t, sessions, 1)
	require.Len(t, sessions[0].ChatHistory, 3)
	assert.Equal(t, []string{"первое", "второе", "re: второе"}, contents(sessions[0].ChatHistory))
}

func TestSendMessage_StoreFailureCreatesNoGoals(t *testing.T) {
	f := newFixture(reply{analysis: anxiety()})
	e := f.engine()
	ctx := context.Background()

	f.store.SetOffline(true)
	_, err := e.SendMessage(ctx, "текст")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.False(t, e.Sending())

	f.store.SetOffline(false)
	assert.Empty(t, f.sessions(t))
	assert.Empty(t, f.allGoals(t))

	draft, ok := e.State().(conversation.Draft)
	require.True(t, ok)
	assert.Len(t, draft.Messages, 1)
}

func TestSendMessage_RejectsEmptyText(t *testing.T) {
	f := newFixture()
	_, err := f.engine().SendMessage(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, f.analyzer.callCount())
}

func TestSendMessage_OneInFlight(t *testing.T) {
	f := newFixture()
	gate := make(chan struct{})
	f.analyzer.gates = map[string]chan struct{}{"первое": gate}
	f.analyzer.entered = make(chan string, 4)
	e := f.engine()
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := e.SendMessage(ctx, "первое")
		done <- err
	}()
	<-f.analyzer.entered
	assert.True(t, e.Sending())

	_, err := e.SendMessage(ctx, "второе")
	assert.ErrorIs(t, err, domain.ErrNotAllowed)

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.analyzer.callCount())
	assert.Len(t, f.allGoals(t), 1)
}

func TestSendMessage_PersistedMergeKeepsOrder(t *testing.T) {
	f := newFixture(reply{analysis: anxiety()}, reply{analysis: plain()}, reply{analysis: plain()})
	e := f.engine()
	ctx := context.Background()

	for _, text := range []string{"раз", "два", "три"} {
		_, err := e.SendMessage(ctx, text)
		require.NoError(t, err)
	}

	sessions := f.sessions(t)
	require.Len(t, sessions, 1)
	assert.Equal(t, []string{"раз", "re: раз", "два", "re: два", "три", "re: три"}, contents(sessions[0].ChatHistory))
	assert.Equal(t, 70, sessions[0].Score)

	assert.Len(t, f.analyzer.calls[2], 5)
	assert.Len(t, f.allGoals(t), 1, "only the first reply had exercises")
}

func TestSendMessage_OutOfOrderRepliesAcrossSessions(t *testing.T) {
	f := newFixture()
	gateA := make(chan struct{})
	gateB := make(chan struct{})
	f.analyzer.gates = map[string]chan struct{}{"A": gateA, "B": gateB}
	f.analyzer.entered = make(chan string, 4)
	ctx := context.Background()

	ea, eb := f.engine(), f.engine()
	results := make(chan *conversation.Result, 2)
	send := func(e *conversation.Engine, text string) {
		res, err := e.SendMessage(ctx, text)
		assert.NoError(t, err)
		results <- res
	}
	go send(ea, "A")
	<-f.analyzer.entered
	go send(eb, "B")
	<-f.analyzer.entered

	close(gateB)
	rb := <-results
	close(gateA)
	ra := <-results

	require.NotEqual(t, ra.SessionID, rb.SessionID)
	sa, err := f.store.GetSession(ctx, owner, ra.SessionID)
	require.NoError(t, err)
	sb, err := f.store.GetSession(ctx, owner, rb.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "re: A"}, contents(sa.ChatHistory))
	assert.Equal(t, []string{"B", "re: B"}, contents(sb.ChatHistory))

	assert.Equal(t, conversation.Persisted{SessionID: ra.SessionID}, ea.State())
	assert.Equal(t, conversation.Persisted{SessionID: rb.SessionID}, eb.State())
}

func TestSendMessage_TitleFallbackAndDefaultScore(t *testing.T) {
	f := newFixture(reply{analysis: &domain.Analysis{Response: "ok", Score: "много", Exercises: nil}})
	_, err := f.engine().SendMessage(context.Background(), "привет")
	require.NoError(t, err)

	s := f.sessions(t)[0]
	assert.Equal(t, "Сеанс от 15.10.2026, 09:30:00", s.Title)
	assert.Equal(t, conversation.DefaultScore, s.Score)
}

func TestView_DraftGreeting(t *testing.T) {
	f := newFixture()
	v, err := f.engine().View(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Здравствуйте, Анна! Что вас беспокоит сегодня?", v.Greeting)
	assert.Empty(t, v.Messages)

	anon := conversation.NewEngine(owner, nil, f.store, f.analyzer, f.goals)
	assert.Equal(t, "Здравствуйте, пользователь! Что вас беспокоит сегодня?", anon.Greeting())
}

func TestParseScore(t *testing.T) {
	cases := map[string]int{
		"60":   60,
		" 75 ": 75,
		"0":    0,
		"42.9": 42,
		"150":  100,
		"-3":   0,
		"":     conversation.DefaultScore,
		"abc":  conversation.DefaultScore,
		"-":    conversation.DefaultScore,
	}
	for in, want := range cases {
		assert.Equal(t, want, conversation.ParseScore(in), in)
	}
}

func contents(msgs []domain.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Content
	}
	return out
}
