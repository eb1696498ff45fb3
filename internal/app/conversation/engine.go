package conversation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PabloGalante/farum-diary/internal/domain"
	"github.com/PabloGalante/farum-diary/internal/observability"
)

const (
	// DefaultScore is used when the analysis score is not a number.
	DefaultScore = 50

	failureNotice = "К сожалению, не удалось получить ответ. Пожалуйста, проверьте ваше интернет-соединение и попробуйте еще раз."
)

// GoalCreator turns the exercises of an analysis into goals.
type GoalCreator interface {
	CreateFromExercises(ctx context.Context, owner domain.UserID, sessionID domain.SessionID, sessionTitle string, exercises []domain.Exercise) ([]domain.Goal, error)
}

// State is either Draft or Persisted.
type State interface {
	isState()
}

// Draft is a conversation with no stored session yet. Messages is the local
// transcript sent to the analyzer.
type Draft struct {
	Messages []domain.Message
}

// Persisted is a conversation bound to a stored session.
type Persisted struct {
	SessionID domain.SessionID
}

func (Draft) isState()     {}
func (Persisted) isState() {}

// local is a message shown to the user but not (yet) stored.
type local struct {
	msg    domain.Message
	notice bool
}

// Engine runs one conversation. At most one message is in flight at a time.
type Engine struct {
	owner    domain.UserID
	profile  *domain.Profile
	store    domain.SessionStore
	analyzer domain.Analyzer
	goals    GoalCreator
	now      func() time.Time
	metrics  *observability.Metrics

	mu        sync.Mutex
	sessionID domain.SessionID // empty while Draft
	buffer    []local
	sending   bool
	seq       uint64
}

// State returns the current variant.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sessionID == "" {
		return Draft{Messages: e.transcriptLocked()}
	}
	return Persisted{SessionID: e.sessionID}
}

// Sending reports whether a message is awaiting its analysis.
func (e *Engine) Sending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sending
}

// Greeting is the opening line shown for a new conversation. It is not part
// of the transcript.
func (e *Engine) Greeting() string {
	name := "пользователь"
	if e.profile != nil && e.profile.Name != "" {
		name = e.profile.Name
	}
	return fmt.Sprintf("Здравствуйте, %s! Что вас беспокоит сегодня?", name)
}

// Result is the outcome of one SendMessage call.
type Result struct {
	SessionID domain.SessionID
	User      domain.Message
	Assistant *domain.Message
	// Notice is the local failure message shown when the analysis failed.
	Notice *domain.Message
	Goals  []domain.Goal
	// Created is set when this send stored the session for the first time.
	Created bool
}

// SendMessage sends text to the analyzer with the whole transcript and stores
// the outcome. On analysis failure nothing is stored, a local notice is
// appended and the error matches domain.ErrAnalysisUnavailable; the result is
// still returned so callers can show the notice.
func (e *Engine) SendMessage(ctx context.Context, text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message text is required", domain.ErrValidation)
	}

	e.mu.Lock()
	if e.sending {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: a message is already being sent", domain.ErrNotAllowed)
	}
	e.sending = true
	userMsg := domain.Message{
		ID:        e.nextIDLocked("user"),
		Role:      domain.RoleUser,
		Content:   text,
		Timestamp: e.now(),
	}
	e.buffer = append(e.buffer, local{msg: userMsg})
	sessionID := e.sessionID
	pending := e.transcriptLocked()
	e.mu.Unlock()

	log := observability.LoggerFromContext(ctx).With("user_id", e.owner, "session_id", sessionID)
	res := &Result{SessionID: sessionID, User: userMsg}

	history := pending
	if sessionID != "" {
		sess, err := e.store.GetSession(ctx, e.owner, sessionID)
		if err != nil {
			log.Error("failed to load session", "error", err)
			e.metrics.RecordStoreError("get_session")
			e.finish()
			return nil, err
		}
		history = append(sess.ChatHistory, pending...)
	}

	start := time.Now()
	analysis, err := e.analyzer.Analyze(ctx, history, e.profile)
	e.metrics.RecordAnalysis(err == nil, time.Since(start))
	if err != nil {
		log.Error("analysis failed", "error", err)
		notice := domain.Message{
			ID:        e.nextID("error"),
			Role:      domain.RoleAssistant,
			Content:   failureNotice,
			Timestamp: e.now(),
		}
		e.mu.Lock()
		e.buffer = append(e.buffer, local{msg: notice, notice: true})
		e.sending = false
		e.mu.Unlock()

		res.Notice = &notice
		return res, fmt.Errorf("%w: %w", domain.ErrAnalysisUnavailable, err)
	}

	score := ParseScore(analysis.Score)
	asst := domain.Message{
		ID:        e.nextID("asst"),
		Role:      domain.RoleAssistant,
		Content:   analysis.Response,
		Score:     &score,
		Timestamp: e.now(),
	}

	title := analysis.SessionTitle
	if strings.TrimSpace(title) == "" {
		title = "Сеанс от " + e.now().Format("02.01.2006, 15:04:05")
	}
	recs := analysis.Recommendations
	if recs == nil {
		recs = []string{}
	}
	payload := domain.SessionPayload{
		Title:           title,
		ChatHistory:     append(append([]domain.Message(nil), history...), asst),
		Score:           score,
		Recommendations: recs,
		Exercises:       analysis.Exercises,
	}

	if sessionID == "" {
		id, err := e.store.CreateSession(ctx, e.owner, payload)
		if err != nil {
			log.Error("failed to create session", "error", err)
			e.metrics.RecordStoreError("create_session")
			e.finish()
			return nil, err
		}
		sessionID = id
		res.Created = true
		e.metrics.RecordSessionCreated()
		log = log.With("session_id", sessionID)
		log.Info("session created")
	} else if err := e.store.UpdateSession(ctx, e.owner, sessionID, payload); err != nil {
		log.Error("failed to update session", "error", err)
		e.metrics.RecordStoreError("update_session")
		e.finish()
		return nil, err
	}

	// The stored session is now authoritative. Nothing else touches the
	// buffer while sending, so all of it is either stored or a stale notice.
	e.mu.Lock()
	e.sessionID = sessionID
	e.buffer = nil
	e.mu.Unlock()

	res.SessionID = sessionID
	res.Assistant = &asst

	// Goals are part of the send: no other send starts until they are written.
	defer e.finish()
	if len(analysis.Exercises) > 0 {
		created, err := e.goals.CreateFromExercises(ctx, e.owner, sessionID, title, analysis.Exercises)
		res.Goals = created
		if err != nil {
			log.Error("failed to create goals from exercises", "error", err, "created", len(created))
			return res, fmt.Errorf("create goals from exercises: %w", err)
		}
	}

	log.Info("message sent", "score", score, "goals", len(res.Goals))
	return res, nil
}

// View is what a client renders for the conversation.
type View struct {
	SessionID domain.SessionID
	Greeting  string
	Messages  []domain.Message
	Sending   bool
}

// View returns the stored transcript followed by the local messages not
// stored yet. A draft with no messages carries the greeting.
func (e *Engine) View(ctx context.Context) (*View, error) {
	e.mu.Lock()
	sessionID := e.sessionID
	buf := make([]domain.Message, len(e.buffer))
	for i, l := range e.buffer {
		buf[i] = l.msg
	}
	v := &View{SessionID: sessionID, Sending: e.sending}
	e.mu.Unlock()

	if sessionID == "" {
		v.Messages = buf
		if len(buf) == 0 {
			v.Greeting = e.Greeting()
		}
		return v, nil
	}

	sess, err := e.store.GetSession(ctx, e.owner, sessionID)
	if err != nil {
		e.metrics.RecordStoreError("get_session")
		return nil, err
	}
	v.Messages = append(sess.ChatHistory, buf...)
	return v, nil
}

// ParseScore reads the leading integer of s. Anything else yields DefaultScore.
// The result is clamped to 0..100.
func ParseScore(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && (s[end] == '-' || s[end] == '+')) {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return DefaultScore
	}
	return max(0, min(100, n))
}

func (e *Engine) finish() {
	e.mu.Lock()
	e.sending = false
	e.mu.Unlock()
}

// transcriptLocked returns the buffered messages that belong to the
// conversation, leaving out failure notices.
func (e *Engine) transcriptLocked() []domain.Message {
	out := make([]domain.Message, 0, len(e.buffer))
	for _, l := range e.buffer {
		if !l.notice {
			out = append(out, l.msg)
		}
	}
	return out
}

func (e *Engine) nextID(prefix string) domain.MessageID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nextIDLocked(prefix)
}

func (e *Engine) nextIDLocked(prefix string) domain.MessageID {
	e.seq++
	return domain.MessageID(fmt.Sprintf("%s-%d-%d", prefix, e.now().UnixMilli(), e.seq))
}
