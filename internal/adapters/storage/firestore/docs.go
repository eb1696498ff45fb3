package firestore

import (
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/PabloGalante/farum-diary/internal/domain"
)

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type messageDoc struct {
	ID        string    `firestore:"id"`
	Role      string    `firestore:"role"`
	Content   string    `firestore:"content"`
	Score     *int      `firestore:"score,omitempty"`
	Timestamp time.Time `firestore:"timestamp"`
}

type exerciseDoc struct {
	Title       string `firestore:"title"`
	Description string `firestore:"description"`
}

type sessionDoc struct {
	Title           string        `firestore:"title"`
	ChatHistory     []messageDoc  `firestore:"chatHistory"`
	Score           int           `firestore:"score"`
	Recommendations []string      `firestore:"recommendations"`
	Exercises       []exerciseDoc `firestore:"exercises"`
	CreatedAt       time.Time     `firestore:"createdAt,serverTimestamp"`
}

type entryDoc struct {
	Text      string    `firestore:"text"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type subItemDoc struct {
	Text      string `firestore:"text"`
	Completed bool   `firestore:"completed"`
}

type feedbackDoc struct {
	Comment   string    `firestore:"comment"`
	Rating    int       `firestore:"rating"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type goalDoc struct {
	Text              string       `firestore:"text"`
	Purpose           string       `firestore:"purpose"`
	Type              string       `firestore:"type"`
	DueDate           time.Time    `firestore:"dueDate"`
	Completed         bool         `firestore:"completed"`
	PostponeCount     int          `firestore:"postponeCount"`
	SessionID         *string      `firestore:"sessionId"`
	SessionTitle      *string      `firestore:"sessionTitle"`
	SubItems          []subItemDoc `firestore:"subItems"`
	Reflections       []entryDoc   `firestore:"reflections"`
	ChecklistFeedback *feedbackDoc `firestore:"checklistFeedback,omitempty"`
	CreatedAt         time.Time    `firestore:"createdAt,serverTimestamp"`
}

type moodDoc struct {
	Mood      string    `firestore:"mood"`
	Intensity int       `firestore:"intensity"`
	Comment   string    `firestore:"comment"`
	CreatedAt time.Time `firestore:"createdAt,serverTimestamp"`
}

type noteDoc struct {
	Title     string     `firestore:"title"`
	Entries   []entryDoc `firestore:"entries"`
	CreatedAt time.Time  `firestore:"createdAt,serverTimestamp"`
}

type profileDoc struct {
	Name   string `firestore:"name"`
	Age    int    `firestore:"age"`
	Gender string `firestore:"gender"`
}

// ─────────────────────────────────────────
// Conversions
// ─────────────────────────────────────────

func messagesToDocs(in []domain.Message) []messageDoc {
	out := make([]messageDoc, 0, len(in))
	for _, m := range in {
		out = append(out, messageDoc{
			ID:        string(m.ID),
			Role:      string(m.Role),
			Content:   m.Content,
			Score:     m.Score,
			Timestamp: m.Timestamp,
		})
	}
	return out
}

func messagesFromDocs(in []messageDoc) []domain.Message {
	out := make([]domain.Message, 0, len(in))
	for _, d := range in {
		out = append(out, domain.Message{
			ID:        domain.MessageID(d.ID),
			Role:      domain.Role(d.Role),
			Content:   d.Content,
			Score:     d.Score,
			Timestamp: d.Timestamp,
		})
	}
	return out
}

func exercisesToDocs(in []domain.Exercise) []exerciseDoc {
	out := make([]exerciseDoc, 0, len(in))
	for _, e := range in {
		out = append(out, exerciseDoc{Title: e.Title, Description: e.Description})
	}
	return out
}

func exercisesFromDocs(in []exerciseDoc) []domain.Exercise {
	out := make([]domain.Exercise, 0, len(in))
	for _, e := range in {
		out = append(out, domain.Exercise{Title: e.Title, Description: e.Description})
	}
	return out
}

func entriesToDocs(in []domain.Entry) []entryDoc {
	out := make([]entryDoc, 0, len(in))
	for _, e := range in {
		out = append(out, entryDoc{Text: e.Text, CreatedAt: e.CreatedAt})
	}
	return out
}

func entriesFromDocs(in []entryDoc) []domain.Entry {
	out := make([]domain.Entry, 0, len(in))
	for _, e := range in {
		out = append(out, domain.Entry{Text: e.Text, CreatedAt: e.CreatedAt})
	}
	return out
}

func subItemsToDocs(in []domain.SubItem) []subItemDoc {
	out := make([]subItemDoc, 0, len(in))
	for _, it := range in {
		out = append(out, subItemDoc{Text: it.Text, Completed: it.Completed})
	}
	return out
}

// entryValue is the shape appended with ArrayUnion.
func entryValue(e domain.Entry) map[string]interface{} {
	return map[string]interface{}{
		"text":      e.Text,
		"createdAt": e.CreatedAt,
	}
}

// sessionPayloadMap is the merge payload written on every assistant turn.
func sessionPayloadMap(p domain.SessionPayload) map[string]interface{} {
	return map[string]interface{}{
		"title":           p.Title,
		"chatHistory":     messagesToDocs(p.ChatHistory),
		"score":           p.Score,
		"recommendations": p.Recommendations,
		"exercises":       exercisesToDocs(p.Exercises),
	}
}

func decodeSession(owner domain.UserID) func(*firestore.DocumentSnapshot) (domain.Session, error) {
	return func(snap *firestore.DocumentSnapshot) (domain.Session, error) {
		var doc sessionDoc
		if err := snap.DataTo(&doc); err != nil {
			return domain.Session{}, fmt.Errorf("decode sessionDoc: %w", err)
		}
		return domain.Session{
			ID:              domain.SessionID(snap.Ref.ID),
			OwnerID:         owner,
			Title:           doc.Title,
			ChatHistory:     messagesFromDocs(doc.ChatHistory),
			Score:           doc.Score,
			Recommendations: doc.Recommendations,
			Exercises:       exercisesFromDocs(doc.Exercises),
			CreatedAt:       doc.CreatedAt,
		}, nil
	}
}

func goalDocFrom(g *domain.Goal) goalDoc {
	doc := goalDoc{
		Text:          g.Text,
		Purpose:       g.Purpose,
		Type:          string(g.Kind()),
		DueDate:       g.DueDate,
		Completed:     g.Completed,
		PostponeCount: g.PostponeCount,
		SubItems:      subItemsToDocs(g.SubItems()),
		Reflections:   entriesToDocs(g.Reflections()),
	}
	if !g.IsPersonal() {
		id := string(g.SessionID)
		title := g.SessionTitle
		doc.SessionID = &id
		doc.SessionTitle = &title
	}
	if g.Feedback != nil {
		doc.ChecklistFeedback = &feedbackDoc{
			Comment:   g.Feedback.Comment,
			Rating:    g.Feedback.Rating,
			CreatedAt: g.Feedback.CreatedAt,
		}
	}
	return doc
}

func decodeGoal(owner domain.UserID) func(*firestore.DocumentSnapshot) (domain.Goal, error) {
	return func(snap *firestore.DocumentSnapshot) (domain.Goal, error) {
		var doc goalDoc
		if err := snap.DataTo(&doc); err != nil {
			return domain.Goal{}, fmt.Errorf("decode goalDoc: %w", err)
		}

		g := domain.Goal{
			ID:            domain.GoalID(snap.Ref.ID),
			OwnerID:       owner,
			Text:          doc.Text,
			Purpose:       doc.Purpose,
			DueDate:       doc.DueDate,
			Completed:     doc.Completed,
			PostponeCount: doc.PostponeCount,
			CreatedAt:     doc.CreatedAt,
		}
		if doc.SessionID != nil {
			g.SessionID = domain.SessionID(*doc.SessionID)
		}
		if doc.SessionTitle != nil {
			g.SessionTitle = *doc.SessionTitle
		}
		if doc.ChecklistFeedback != nil {
			g.Feedback = &domain.ChecklistFeedback{
				Comment:   doc.ChecklistFeedback.Comment,
				Rating:    doc.ChecklistFeedback.Rating,
				CreatedAt: doc.ChecklistFeedback.CreatedAt,
			}
		}

		switch domain.GoalKind(doc.Type) {
		case domain.GoalReflection:
			g.Body = &domain.ReflectionPrompt{Reflections: entriesFromDocs(doc.Reflections)}
		default:
			subs := make([]domain.SubItem, 0, len(doc.SubItems))
			for _, it := range doc.SubItems {
				subs = append(subs, domain.SubItem{Text: it.Text, Completed: it.Completed})
			}
			g.Body = &domain.Checklist{SubItems: subs}
		}
		return g, nil
	}
}

func decodeMood(owner domain.UserID) func(*firestore.DocumentSnapshot) (domain.Mood, error) {
	return func(snap *firestore.DocumentSnapshot) (domain.Mood, error) {
		var doc moodDoc
		if err := snap.DataTo(&doc); err != nil {
			return domain.Mood{}, fmt.Errorf("decode moodDoc: %w", err)
		}
		return domain.Mood{
			ID:        domain.MoodID(snap.Ref.ID),
			OwnerID:   owner,
			Mood:      domain.MoodKind(doc.Mood),
			Intensity: doc.Intensity,
			Comment:   doc.Comment,
			CreatedAt: doc.CreatedAt,
		}, nil
	}
}

func decodeNote(owner domain.UserID) func(*firestore.DocumentSnapshot) (domain.DiaryNote, error) {
	return func(snap *firestore.DocumentSnapshot) (domain.DiaryNote, error) {
		var doc noteDoc
		if err := snap.DataTo(&doc); err != nil {
			return domain.DiaryNote{}, fmt.Errorf("decode noteDoc: %w", err)
		}
		return domain.DiaryNote{
			ID:        domain.NoteID(snap.Ref.ID),
			OwnerID:   owner,
			Title:     doc.Title,
			Entries:   entriesFromDocs(doc.Entries),
			CreatedAt: doc.CreatedAt,
		}, nil
	}
}

func profileDocFrom(p domain.Profile) profileDoc {
	return profileDoc{Name: p.Name, Age: p.Age, Gender: p.Gender}
}

func (d profileDoc) toDomain() domain.Profile {
	return domain.Profile{Name: d.Name, Age: d.Age, Gender: d.Gender}
}
