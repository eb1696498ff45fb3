package firestore

import (
	"context"

	"cloud.google.com/go/firestore"

	"github.com/PabloGalante/farum-diary/internal/domain"
)

// ─────────────────────────────────────────
// SessionStore implementation
// ─────────────────────────────────────────

func (s *Store) SubscribeSessions(ctx context.Context, owner domain.UserID) (*domain.Subscription[domain.Session], error) {
	return listen(ctx, s.col(owner, domain.CollectionSessions), domain.CollectionSessions,
		decodeSession(owner), func(v domain.Session) domain.Timestamp { return v.CreatedAt }), nil
}

func (s *Store) GetSession(ctx context.Context, owner domain.UserID, id domain.SessionID) (*domain.Session, error) {
	snap, err := s.col(owner, domain.CollectionSessions).Doc(string(id)).Get(ctx)
	if err != nil {
		return nil, storeErr("get", domain.CollectionSessions, err)
	}
	sess, err := decodeSession(owner)(snap)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *Store) CreateSession(ctx context.Context, owner domain.UserID, payload domain.SessionPayload) (domain.SessionID, error) {
	doc := sessionDoc{
		Title:           payload.Title,
		ChatHistory:     messagesToDocs(payload.ChatHistory),
		Score:           payload.Score,
		Recommendations: payload.Recommendations,
		Exercises:       exercisesToDocs(payload.Exercises),
	}

	ref, _, err := s.col(owner, domain.CollectionSessions).Add(ctx, doc)
	if err != nil {
		return "", storeErr("create", domain.CollectionSessions, err)
	}
	return domain.SessionID(ref.ID), nil
}

func (s *Store) UpdateSession(ctx context.Context, owner domain.UserID, id domain.SessionID, payload domain.SessionPayload) error {
	_, err := s.col(owner, domain.CollectionSessions).Doc(string(id)).
		Set(ctx, sessionPayloadMap(payload), firestore.MergeAll)
	if err != nil {
		return storeErr("update", domain.CollectionSessions, err)
	}
	return nil
}

// ─────────────────────────────────────────
// GoalStore implementation
// ─────────────────────────────────────────

func (s *Store) SubscribeGoals(ctx context.Context, owner domain.UserID) (*domain.Subscription[domain.Goal], error) {
	return listen(ctx, s.col(owner, domain.CollectionGoals), domain.CollectionGoals,
		decodeGoal(owner), func(v domain.Goal) domain.Timestamp { return v.CreatedAt }), nil
}

func (s *Store) ListGoals(ctx context.Context, owner domain.UserID) ([]domain.Goal, error) {
	return getAll(ctx, s.col(owner, domain.CollectionGoals), domain.CollectionGoals, decodeGoal(owner))
}

func (s *Store) GetGoal(ctx context.Context, owner domain.UserID, id domain.GoalID) (*domain.Goal, error) {
	snap, err := s.col(owner, domain.CollectionGoals).Doc(string(id)).Get(ctx)
	if err != nil {
		return nil, storeErr("get", domain.CollectionGoals, err)
	}
	g, err := decodeGoal(owner)(snap)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) CreateGoal(ctx context.Context, owner domain.UserID, goal *domain.Goal) (domain.GoalID, error) {
	ref, wr, err := s.col(owner, domain.CollectionGoals).Add(ctx, goalDocFrom(goal))
	if err != nil {
		return "", storeErr("create", domain.CollectionGoals, err)
	}
	// the server timestamp resolves to the commit time
	goal.CreatedAt = wr.UpdateTime
	return domain.GoalID(ref.ID), nil
}

func (s *Store) UpdateGoal(ctx context.Context, owner domain.UserID, id domain.GoalID, patch domain.GoalPatch) error {
	var updates []firestore.Update
	if patch.SubItems != nil {
		updates = append(updates, firestore.Update{Path: "subItems", Value: subItemsToDocs(patch.SubItems)})
	}
	if patch.Completed != nil {
		updates = append(updates, firestore.Update{Path: "completed", Value: *patch.Completed})
	}
	if patch.DueDate != nil {
		updates = append(updates, firestore.Update{Path: "dueDate", Value: *patch.DueDate})
	}
	if patch.PostponeCount != nil {
		updates = append(updates, firestore.Update{Path: "postponeCount", Value: *patch.PostponeCount})
	}
	if patch.Feedback != nil {
		updates = append(updates, firestore.Update{Path: "checklistFeedback", Value: feedbackDoc{
			Comment:   patch.Feedback.Comment,
			Rating:    patch.Feedback.Rating,
			CreatedAt: patch.Feedback.CreatedAt,
		}})
	}
	if len(updates) == 0 {
		return nil
	}

	if _, err := s.col(owner, domain.CollectionGoals).Doc(string(id)).Update(ctx, updates); err != nil {
		return storeErr("update", domain.CollectionGoals, err)
	}
	return nil
}

func (s *Store) AppendGoalReflection(ctx context.Context, owner domain.UserID, id domain.GoalID, entry domain.Entry, complete bool) error {
	updates := []firestore.Update{
		{Path: "reflections", Value: firestore.ArrayUnion(entryValue(entry))},
	}
	if complete {
		updates = append(updates, firestore.Update{Path: "completed", Value: true})
	}

	if _, err := s.col(owner, domain.CollectionGoals).Doc(string(id)).Update(ctx, updates); err != nil {
		return storeErr("append", domain.CollectionGoals, err)
	}
	return nil
}

// ─────────────────────────────────────────
// MoodStore / NoteStore implementation
// ─────────────────────────────────────────

func (s *Store) SubscribeMoods(ctx context.Context, owner domain.UserID) (*domain.Subscription[domain.Mood], error) {
	return listen(ctx, s.col(owner, domain.CollectionMoods), domain.CollectionMoods,
		decodeMood(owner), func(v domain.Mood) domain.Timestamp { return v.CreatedAt }), nil
}

func (s *Store) CreateMood(ctx context.Context, owner domain.UserID, mood *domain.Mood) (domain.MoodID, error) {
	doc := moodDoc{
		Mood:      string(mood.Mood),
		Intensity: mood.Intensity,
		Comment:   mood.Comment,
	}
	ref, wr, err := s.col(owner, domain.CollectionMoods).Add(ctx, doc)
	if err != nil {
		return "", storeErr("create", domain.CollectionMoods, err)
	}
	mood.CreatedAt = wr.UpdateTime
	return domain.MoodID(ref.ID), nil
}

func (s *Store) SubscribeNotes(ctx context.Context, owner domain.UserID) (*domain.Subscription[domain.DiaryNote], error) {
	return listen(ctx, s.col(owner, domain.CollectionDiaryNotes), domain.CollectionDiaryNotes,
		decodeNote(owner), func(v domain.DiaryNote) domain.Timestamp { return v.CreatedAt }), nil
}

func (s *Store) CreateNote(ctx context.Context, owner domain.UserID, note *domain.DiaryNote) (domain.NoteID, error) {
	doc := noteDoc{
		Title:   note.Title,
		Entries: entriesToDocs(note.Entries),
	}
	ref, wr, err := s.col(owner, domain.CollectionDiaryNotes).Add(ctx, doc)
	if err != nil {
		return "", storeErr("create", domain.CollectionDiaryNotes, err)
	}
	note.CreatedAt = wr.UpdateTime
	return domain.NoteID(ref.ID), nil
}

func (s *Store) AppendNoteEntry(ctx context.Context, owner domain.UserID, id domain.NoteID, entry domain.Entry) error {
	_, err := s.col(owner, domain.CollectionDiaryNotes).Doc(string(id)).Update(ctx, []firestore.Update{
		{Path: "entries", Value: firestore.ArrayUnion(entryValue(entry))},
	})
	if err != nil {
		return storeErr("append", domain.CollectionDiaryNotes, err)
	}
	return nil
}
