package domain

import "context"

// Analysis is the structured result of analyzing a conversation.
type Analysis struct {
	Response        string     `json:"response"`
	Score           string     `json:"score"` // numeral, e.g. "60"
	SessionTitle    string     `json:"sessionTitle"`
	Recommendations []string   `json:"recommendations"`
	Exercises       []Exercise `json:"exercises"`
}

// Analyzer defines how the core talks to the conversation analysis service.
// Implementations have no persistence side effects and every failure
// matches ErrAnalysisUnavailable.
type Analyzer interface {
	Analyze(ctx context.Context, history []Message, profile *Profile) (*Analysis, error)
}

// SessionStore defines session persistence for one owner namespace.
type SessionStore interface {
	SubscribeSessions(ctx context.Context, owner UserID) (*Subscription[Session], error)
	GetSession(ctx context.Context, owner UserID, id SessionID) (*Session, error)
	CreateSession(ctx context.Context, owner UserID, payload SessionPayload) (SessionID, error)
	// UpdateSession merges payload into an existing session.
	UpdateSession(ctx context.Context, owner UserID, id SessionID, payload SessionPayload) error
}

// GoalPatch lists the goal fields to overwrite. Nil fields are left alone.
type GoalPatch struct {
	SubItems      []SubItem
	Completed     *bool
	DueDate       *Timestamp
	PostponeCount *int
	Feedback      *ChecklistFeedback
}

// GoalStore defines goal persistence.
type GoalStore interface {
	SubscribeGoals(ctx context.Context, owner UserID) (*Subscription[Goal], error)
	ListGoals(ctx context.Context, owner UserID) ([]Goal, error)
	GetGoal(ctx context.Context, owner UserID, id GoalID) (*Goal, error)
	// CreateGoal sets goal.CreatedAt to the time the store assigned.
	CreateGoal(ctx context.Context, owner UserID, goal *Goal) (GoalID, error)
	UpdateGoal(ctx context.Context, owner UserID, id GoalID, patch GoalPatch) error
	// AppendGoalReflection appends to the reflections array and, if complete
	// is set, marks the goal completed in the same write.
	AppendGoalReflection(ctx context.Context, owner UserID, id GoalID, entry Entry, complete bool) error
}

// MoodStore defines mood persistence.
type MoodStore interface {
	SubscribeMoods(ctx context.Context, owner UserID) (*Subscription[Mood], error)
	// CreateMood sets mood.CreatedAt to the time the store assigned.
	CreateMood(ctx context.Context, owner UserID, mood *Mood) (MoodID, error)
}

// NoteStore defines diary note persistence.
type NoteStore interface {
	SubscribeNotes(ctx context.Context, owner UserID) (*Subscription[DiaryNote], error)
	// CreateNote sets note.CreatedAt to the time the store assigned.
	CreateNote(ctx context.Context, owner UserID, note *DiaryNote) (NoteID, error)
	AppendNoteEntry(ctx context.Context, owner UserID, id NoteID, entry Entry) error
}

// ProfileStore defines profile persistence. GetProfile returns ErrNotFound
// when the user has no profile yet.
type ProfileStore interface {
	GetProfile(ctx context.Context, owner UserID) (*Profile, error)
	SaveProfile(ctx context.Context, owner UserID, profile Profile) error
}

// RecordStore is the full record store used by the application.
type RecordStore interface {
	SessionStore
	GoalStore
	MoodStore
	NoteStore
	ProfileStore
}

// Dictation turns speech into text. The core only consumes the resulting text
// as ordinary user input.
type Dictation interface {
	Start(onText func(text string, final bool)) error
	Stop() error
}

// Speaker reads text aloud. Playback has no effect on core state.
type Speaker interface {
	Speak(text string) error
	Cancel() error
}
