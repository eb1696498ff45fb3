// Package diary records quick moods and free-form notes.
package diary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/farum-diary/internal/domain"
	"github.com/PabloGalante/farum-diary/internal/observability"
)

type Store interface {
	domain.MoodStore
	domain.NoteStore
}

type Service struct {
	store   Store
	now     func() time.Time
	metrics *observability.Metrics
}

type Option func(*Service)

// WithClock sets the time source for note entries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewMood is a quick mood log.
type NewMood struct {
	Mood      domain.MoodKind `json:"mood" validate:"required,oneof=happy content neutral sad anxious"`
	Intensity int             `json:"intensity" validate:"min=1,max=5"`
	Comment   string          `json:"comment"`
}

func (s *Service) SaveMood(ctx context.Context, owner domain.UserID, in NewMood) (*domain.Mood, error) {
	if err := domain.Validate(in); err != nil {
		return nil, err
	}

	m := domain.Mood{
		OwnerID:   owner,
		Mood:      in.Mood,
		Intensity: in.Intensity,
		Comment:   strings.TrimSpace(in.Comment),
	}
	id, err := s.store.CreateMood(ctx, owner, &m)
	if err != nil {
		s.fail(ctx, owner, "create_mood", err)
		return nil, err
	}
	m.ID = id
	return &m, nil
}

// AddNote creates a note with text as its first entry. A blank title becomes
// the first three words of the text followed by "...".
func (s *Service) AddNote(ctx context.Context, owner domain.UserID, title, text string) (*domain.DiaryNote, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: note text is required", domain.ErrValidation)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle(text)
	}

	n := domain.DiaryNote{
		OwnerID: owner,
		Title:   title,
		Entries: []domain.Entry{{Text: text, CreatedAt: s.now()}},
	}
	id, err := s.store.CreateNote(ctx, owner, &n)
	if err != nil {
		s.fail(ctx, owner, "create_note", err)
		return nil, err
	}
	n.ID = id
	return &n, nil
}

// AppendNoteEntry adds a dated entry to an existing note.
func (s *Service) AppendNoteEntry(ctx context.Context, owner domain.UserID, id domain.NoteID, text string) (domain.Entry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Entry{}, fmt.Errorf("%w: entry text is required", domain.ErrValidation)
	}

	e := domain.Entry{Text: text, CreatedAt: s.now()}
	if err := s.store.AppendNoteEntry(ctx, owner, id, e); err != nil {
		s.fail(ctx, owner, "append_note_entry", err)
		return domain.Entry{}, err
	}
	return e, nil
}

// DefaultTitle is the note title used when none is given.
func DefaultTitle(text string) string {
	words := strings.Split(strings.TrimSpace(text), " ")
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.Join(words, " ") + "..."
}

func (s *Service) fail(ctx context.Context, owner domain.UserID, op string, err error) {
	s.metrics.RecordStoreError(op)
	observability.LoggerFromContext(ctx).Error("diary write failed", "user_id", owner, "op", op, "error", err)
}
