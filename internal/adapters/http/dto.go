package httpadapter

import (
	"time"

	"github.com/PabloGalante/farum-diary/internal/app/journal"
	"github.com/PabloGalante/farum-diary/internal/app/schema"
	"github.com/PabloGalante/farum-diary/internal/app/timeline"
	"github.com/PabloGalante/farum-diary/internal/domain"
)

type sessionResponse struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	ChatHistory     []domain.Message  `json:"chat_history"`
	Score           int               `json:"score"`
	Recommendations []string          `json:"recommendations"`
	Exercises       []domain.Exercise `json:"exercises"`
	CreatedAt       time.Time         `json:"created_at"`
}

type goalResponse struct {
	ID            string                    `json:"id"`
	Type          string                    `json:"type"`
	Text          string                    `json:"text"`
	Purpose       string                    `json:"purpose,omitempty"`
	DueDate       time.Time                 `json:"due_date"`
	Completed     bool                      `json:"completed"`
	PostponeCount int                       `json:"postpone_count"`
	SessionID     string                    `json:"session_id,omitempty"`
	SessionTitle  string                    `json:"session_title,omitempty"`
	SubItems      []domain.SubItem          `json:"sub_items,omitempty"`
	Reflections   []domain.Entry            `json:"reflections,omitempty"`
	Feedback      *domain.ChecklistFeedback `json:"feedback,omitempty"`
	CreatedAt     time.Time                 `json:"created_at"`
}

type moodResponse struct {
	ID        string    `json:"id"`
	Mood      string    `json:"mood"`
	Intensity int       `json:"intensity"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type noteResponse struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Entries   []domain.Entry `json:"entries"`
	CreatedAt time.Time      `json:"created_at"`
}

type timelineEntryResponse struct {
	ID        string           `json:"id"`
	Kind      string           `json:"kind"`
	CreatedAt time.Time        `json:"created_at"`
	Session   *sessionResponse `json:"session,omitempty"`
	Goal      *goalResponse    `json:"goal,omitempty"`
	Mood      *moodResponse    `json:"mood,omitempty"`
	Note      *noteResponse    `json:"note,omitempty"`
}

type timelineGroupResponse struct {
	Title   string                  `json:"title"`
	Date    time.Time               `json:"date"`
	Kind    string                  `json:"kind"`
	Entries []timelineEntryResponse `json:"entries"`
}

type timelineResponse struct {
	Groups []timelineGroupResponse `json:"groups"`
	// Stale is set while a listener is failing and older data is served.
	Stale bool `json:"stale"`
}

type schemaRowResponse struct {
	At      time.Time `json:"at"`
	Kind    string    `json:"kind"`
	Actor   string    `json:"actor"`
	Content string    `json:"content"`
}

type schemaResponse struct {
	Session sessionResponse     `json:"session"`
	Rows    []schemaRowResponse `json:"rows"`
}

func toSessionResponse(s domain.Session) sessionResponse {
	return sessionResponse{
		ID:              string(s.ID),
		Title:           s.Title,
		ChatHistory:     s.ChatHistory,
		Score:           s.Score,
		Recommendations: s.Recommendations,
		Exercises:       s.Exercises,
		CreatedAt:       s.CreatedAt,
	}
}

func toGoalResponse(g domain.Goal) goalResponse {
	return goalResponse{
		ID:            string(g.ID),
		Type:          string(g.Kind()),
		Text:          g.Text,
		Purpose:       g.Purpose,
		DueDate:       g.DueDate,
		Completed:     g.Completed,
		PostponeCount: g.PostponeCount,
		SessionID:     string(g.SessionID),
		SessionTitle:  g.SessionTitle,
		SubItems:      g.SubItems(),
		Reflections:   g.Reflections(),
		Feedback:      g.Feedback,
		CreatedAt:     g.CreatedAt,
	}
}

func toMoodResponse(m domain.Mood) moodResponse {
	return moodResponse{
		ID:        string(m.ID),
		Mood:      string(m.Mood),
		Intensity: m.Intensity,
		Comment:   m.Comment,
		CreatedAt: m.CreatedAt,
	}
}

func toNoteResponse(n domain.DiaryNote) noteResponse {
	return noteResponse{
		ID:        string(n.ID),
		Title:     n.Title,
		Entries:   n.Entries,
		CreatedAt: n.CreatedAt,
	}
}

func toTimelineResponse(st journal.State) timelineResponse {
	out := timelineResponse{
		Groups: make([]timelineGroupResponse, 0, len(st.Groups)),
		Stale:  st.Err != nil,
	}
	for _, g := range st.Groups {
		gr := timelineGroupResponse{
			Title:   g.Title,
			Date:    g.Date,
			Kind:    string(g.Kind),
			Entries: make([]timelineEntryResponse, 0, len(g.Entries)),
		}
		for _, e := range g.Entries {
			gr.Entries = append(gr.Entries, toTimelineEntry(e))
		}
		out.Groups = append(out.Groups, gr)
	}
	return out
}

func toTimelineEntry(e timeline.Entry) timelineEntryResponse {
	out := timelineEntryResponse{ID: e.ID, Kind: string(e.Kind), CreatedAt: e.CreatedAt}
	switch {
	case e.Session != nil:
		s := toSessionResponse(*e.Session)
		out.Session = &s
	case e.Goal != nil:
		g := toGoalResponse(*e.Goal)
		out.Goal = &g
	case e.Mood != nil:
		m := toMoodResponse(*e.Mood)
		out.Mood = &m
	case e.Note != nil:
		n := toNoteResponse(*e.Note)
		out.Note = &n
	}
	return out
}

func toSchemaRows(rows []schema.Row) []schemaRowResponse {
	out := make([]schemaRowResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, schemaRowResponse{
			At:      r.At,
			Kind:    string(r.Kind),
			Actor:   string(r.Actor),
			Content: r.Content,
		})
	}
	return out
}
