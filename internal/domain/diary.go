package domain

// MoodKind is one of the fixed moods a user can log.
type MoodKind string

const (
	MoodHappy   MoodKind = "happy"
	MoodContent MoodKind = "content"
	MoodNeutral MoodKind = "neutral"
	MoodSad     MoodKind = "sad"
	MoodAnxious MoodKind = "anxious"
)

// Mood is a quick mood log entry.
type Mood struct {
	ID        MoodID
	OwnerID   UserID
	Mood      MoodKind
	Intensity int // 1..5
	Comment   string
	CreatedAt Timestamp
}

// DiaryNote is a titled free-form note. Entries are append only.
type DiaryNote struct {
	ID        NoteID
	OwnerID   UserID
	Title     string
	Entries   []Entry
	CreatedAt Timestamp
}

func (n DiaryNote) Clone() DiaryNote {
	out := n
	out.Entries = append([]Entry(nil), n.Entries...)
	return out
}

// Profile is the single per-user profile created during onboarding.
type Profile struct {
	Name   string `json:"name" validate:"required"`
	Age    int    `json:"age" validate:"min=1,max=120"`
	Gender string `json:"gender" validate:"required"`
}
