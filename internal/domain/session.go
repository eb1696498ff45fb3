package domain

// Message is one turn of a conversation. Messages are immutable once appended.
type Message struct {
	ID        MessageID `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Score     *int      `json:"score,omitempty"` // assistant only
	Timestamp Timestamp `json:"timestamp"`
}

// Exercise is an activity suggested by the assistant.
type Exercise struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Session is one conversational interaction with the assistant and its summary.
type Session struct {
	ID      SessionID
	OwnerID UserID

	Title           string
	ChatHistory     []Message
	Score           int
	Recommendations []string
	Exercises       []Exercise

	// Assigned by the store at write time.
	CreatedAt Timestamp
}

// SessionPayload is the part of a session written on every assistant turn.
// An update overwrites these fields and leaves CreatedAt alone.
type SessionPayload struct {
	Title           string
	ChatHistory     []Message
	Score           int
	Recommendations []string
	Exercises       []Exercise
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	out := s
	out.ChatHistory = cloneMessages(s.ChatHistory)
	out.Recommendations = append([]string(nil), s.Recommendations...)
	out.Exercises = append([]Exercise(nil), s.Exercises...)
	return out
}

// Clone returns a deep copy of the payload.
func (p SessionPayload) Clone() SessionPayload {
	out := p
	out.ChatHistory = cloneMessages(p.ChatHistory)
	out.Recommendations = append([]string(nil), p.Recommendations...)
	out.Exercises = append([]Exercise(nil), p.Exercises...)
	return out
}

func cloneMessages(in []Message) []Message {
	if in == nil {
		return nil
	}
	out := make([]Message, len(in))
	for i, m := range in {
		out[i] = m
		if m.Score != nil {
			v := *m.Score
			out[i].Score = &v
		}
	}
	return out
}
