package domain

import "time"

type UserID string
type SessionID string
type MessageID string
type GoalID string
type MoodID string
type NoteID string

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Timestamp = time.Time

// Collection names a per-user record collection in the store.
type Collection string

const (
	CollectionSessions   Collection = "sessions"
	CollectionGoals      Collection = "goals"
	CollectionMoods      Collection = "moods"
	CollectionDiaryNotes Collection = "diaryNotes"
	CollectionProfiles   Collection = "profiles"
)

// ProfileDocID is the key of the single profile document of a user.
const ProfileDocID = "userProfile"

// Entry is a dated piece of free text: a goal reflection or a diary note entry.
type Entry struct {
	Text      string    `json:"text"`
	CreatedAt Timestamp `json:"created_at"`
}
