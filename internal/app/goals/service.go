package goals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/farum-diary/internal/domain"
	"github.com/PabloGalante/farum-diary/internal/observability"
)

// ExerciseDueIn is how far ahead goals generated from exercises are due.
const ExerciseDueIn = 3 * 24 * time.Hour

// CompletionEvent is emitted once when a goal goes from open to completed.
type CompletionEvent struct {
	Owner domain.UserID
	Goal  domain.Goal
	At    time.Time
}

// FeedbackRequested reports whether the user should be asked for checklist feedback.
func (e CompletionEvent) FeedbackRequested() bool {
	return e.Goal.Kind() == domain.GoalChecklist
}

type CompletionListener func(ctx context.Context, ev CompletionEvent)

// Service holds the goal lifecycle rules on top of a GoalStore.
type Service struct {
	store     domain.GoalStore
	now       func() time.Time
	metrics   *observability.Metrics
	listeners []CompletionListener
}

type Option func(*Service)

// WithClock sets the time source for reflections, feedback and exercise due dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// OnCompleted registers a listener for completion events.
func OnCompleted(l CompletionListener) Option {
	return func(s *Service) { s.listeners = append(s.listeners, l) }
}

func NewService(store domain.GoalStore, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewGoal is the user input for a goal. It has no session link: only
// CreateFromExercises ties goals to a session.
type NewGoal struct {
	Text     string           `json:"text"`
	Purpose  string           `json:"purpose"`
	Kind     domain.GoalKind  `json:"type" validate:"omitempty,oneof=checklist reflection"`
	DueDate  time.Time        `json:"due_date"`
	SubItems []domain.SubItem `json:"sub_items" validate:"dive"`
}

// CreateGoal validates and stores a new personal goal. Checklist is the
// default kind.
func (s *Service) CreateGoal(ctx context.Context, owner domain.UserID, in NewGoal) (*domain.Goal, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: goal text is required", domain.ErrValidation)
	}
	if in.DueDate.IsZero() {
		return nil, fmt.Errorf("%w: goal due date is required", domain.ErrValidation)
	}
	if err := domain.Validate(in); err != nil {
		return nil, err
	}

	g := domain.Goal{
		OwnerID: owner,
		Text:    text,
		Purpose: strings.TrimSpace(in.Purpose),
		DueDate: in.DueDate,
	}
	if in.Kind == domain.GoalReflection {
		g.Body = &domain.ReflectionPrompt{Reflections: []domain.Entry{}}
	} else {
		items := make([]domain.SubItem, len(in.SubItems))
		for i, it := range in.SubItems {
			items[i] = domain.SubItem{Text: strings.TrimSpace(it.Text)}
		}
		g.Body = &domain.Checklist{SubItems: items}
	}

	return s.create(ctx, owner, g)
}

// CreateFromExercises turns every exercise of a session into a reflection goal
// named "Цель N: <title>" and due ExerciseDueIn from now. It stops at the first
// failed write and returns the goals stored so far.
func (s *Service) CreateFromExercises(ctx context.Context, owner domain.UserID, sessionID domain.SessionID, sessionTitle string, exercises []domain.Exercise) ([]domain.Goal, error) {
	due := s.now().Add(ExerciseDueIn)

	out := make([]domain.Goal, 0, len(exercises))
	for i, ex := range exercises {
		g := domain.Goal{
			OwnerID:      owner,
			Text:         fmt.Sprintf("Цель %d: %s", i+1, ex.Title),
			Purpose:      ex.Description,
			DueDate:      due,
			SessionID:    sessionID,
			SessionTitle: sessionTitle,
			Body:         &domain.ReflectionPrompt{Reflections: []domain.Entry{}},
		}
		created, err := s.create(ctx, owner, g)
		if err != nil {
			return out, err
		}
		out = append(out, *created)
	}
	return out, nil
}

// create stores g and returns it with the id and creation time the store
// assigned.
func (s *Service) create(ctx context.Context, owner domain.UserID, g domain.Goal) (*domain.Goal, error) {
	log := observability.LoggerFromContext(ctx).With("user_id", owner, "kind", g.Kind())

	id, err := s.store.CreateGoal(ctx, owner, &g)
	if err != nil {
		s.metrics.RecordStoreError("create_goal")
		log.Error("failed to create goal", "error", err)
		return nil, err
	}
	g.ID = id

	s.metrics.RecordGoalCreated(string(g.Kind()))
	log.Info("goal created", "goal_id", id, "session_id", g.SessionID)
	return &g, nil
}

// ToggleSubItem flips one checklist step and stores the new steps and
// completion flag. The returned event is non-nil exactly when the goal
// became completed.
func (s *Service) ToggleSubItem(ctx context.Context, owner domain.UserID, id domain.GoalID, index int) (*domain.Goal, *CompletionEvent, error) {
	g, err := s.load(ctx, owner, id)
	if err != nil {
		return nil, nil, err
	}

	completed, err := g.ToggleSubItem(index)
	if err != nil {
		return nil, nil, err
	}

	done := g.Completed
	patch := domain.GoalPatch{SubItems: g.SubItems(), Completed: &done}
	if err := s.update(ctx, owner, id, "toggle_subitem", patch); err != nil {
		return nil, nil, err
	}

	if !completed {
		return g, nil, nil
	}
	ev := s.completed(ctx, owner, *g)
	return g, &ev, nil
}

// PostponeGoal pushes the due date back. At the postpone limit it returns
// domain.ErrNotAllowed and writes nothing.
func (s *Service) PostponeGoal(ctx context.Context, owner domain.UserID, id domain.GoalID) (*domain.Goal, error) {
	g, err := s.load(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := g.Postpone(); err != nil {
		return nil, err
	}

	due, count := g.DueDate, g.PostponeCount
	if err := s.update(ctx, owner, id, "postpone_goal", domain.GoalPatch{DueDate: &due, PostponeCount: &count}); err != nil {
		return nil, err
	}
	return g, nil
}

// AppendReflection adds a dated reflection to a reflection goal, which
// completes it.
func (s *Service) AppendReflection(ctx context.Context, owner domain.UserID, id domain.GoalID, text string) (*domain.Goal, *CompletionEvent, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil, fmt.Errorf("%w: reflection text is required", domain.ErrValidation)
	}

	g, err := s.load(ctx, owner, id)
	if err != nil {
		return nil, nil, err
	}

	was := g.Completed
	entry := domain.Entry{Text: text, CreatedAt: s.now()}
	if err := g.AddReflection(entry); err != nil {
		return nil, nil, err
	}

	if err := s.store.AppendGoalReflection(ctx, owner, id, entry, g.Completed); err != nil {
		s.metrics.RecordStoreError("append_reflection")
		observability.LoggerFromContext(ctx).Error("failed to append reflection", "user_id", owner, "goal_id", id, "error", err)
		return nil, nil, err
	}

	if was || !g.Completed {
		return g, nil, nil
	}
	ev := s.completed(ctx, owner, *g)
	return g, &ev, nil
}

// RecordChecklistFeedback attaches the user's feedback to a goal. Rating is
// stored as given.
func (s *Service) RecordChecklistFeedback(ctx context.Context, owner domain.UserID, id domain.GoalID, comment string, rating int) (*domain.Goal, error) {
	g, err := s.load(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	fb := domain.ChecklistFeedback{
		Comment:   strings.TrimSpace(comment),
		Rating:    rating,
		CreatedAt: s.now(),
	}
	if err := s.update(ctx, owner, id, "goal_feedback", domain.GoalPatch{Feedback: &fb}); err != nil {
		return nil, err
	}
	g.Feedback = &fb
	return g, nil
}

// ListGoals returns all goals of the owner in creation order.
func (s *Service) ListGoals(ctx context.Context, owner domain.UserID) ([]domain.Goal, error) {
	goals, err := s.store.ListGoals(ctx, owner)
	if err != nil {
		s.metrics.RecordStoreError("list_goals")
		return nil, err
	}
	return goals, nil
}

func (s *Service) load(ctx context.Context, owner domain.UserID, id domain.GoalID) (*domain.Goal, error) {
	g, err := s.store.GetGoal(ctx, owner, id)
	if err != nil {
		s.metrics.RecordStoreError("get_goal")
		return nil, err
	}
	c := g.Clone()
	return &c, nil
}

func (s *Service) update(ctx context.Context, owner domain.UserID, id domain.GoalID, op string, patch domain.GoalPatch) error {
	if err := s.store.UpdateGoal(ctx, owner, id, patch); err != nil {
		s.metrics.RecordStoreError(op)
		observability.LoggerFromContext(ctx).Error("failed to update goal", "user_id", owner, "goal_id", id, "op", op, "error", err)
		return err
	}
	return nil
}

func (s *Service) completed(ctx context.Context, owner domain.UserID, g domain.Goal) CompletionEvent {
	ev := CompletionEvent{Owner: owner, Goal: g, At: s.now()}

	s.metrics.RecordGoalCompleted()
	observability.LoggerFromContext(ctx).Info("goal completed",
		"user_id", owner, "goal_id", g.ID, "kind", g.Kind(), "feedback_requested", ev.FeedbackRequested())

	for _, l := range s.listeners {
		l(ctx, ev)
	}
	return ev
}
