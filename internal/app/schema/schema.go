// Package schema builds the chronological audit table of one session: its
// chat, the goals it produced and what happened to them.
package schema

import (
	"sort"
	"time"

	"github.com/PabloGalante/farum-diary/internal/domain"
)

type RowKind string

const (
	RowQuestion      RowKind = "Вопрос"
	RowAnswer        RowKind = "Ответ"
	RowGoal          RowKind = "Цель"
	RowReflection    RowKind = "Проработка"
	RowGoalCompleted RowKind = "Цель выполнена"
)

// Actor tells who produced a row.
type Actor string

const (
	ActorUser      Actor = "user"
	ActorAssistant Actor = "assistant"
	ActorSystem    Actor = "system"
	ActorSuccess   Actor = "system-success"
)

type Row struct {
	At      time.Time
	Kind    RowKind
	Actor   Actor
	Content string
}

// Build lists every event of the session in ascending time order. Events
// with no timestamp are left out.
func Build(session domain.Session, goals []domain.Goal) []Row {
	var rows []Row
	add := func(r Row) {
		if r.At.IsZero() {
			return
		}
		rows = append(rows, r)
	}

	for _, m := range session.ChatHistory {
		r := Row{At: m.Timestamp, Kind: RowAnswer, Actor: ActorAssistant, Content: m.Content}
		if m.Role == domain.RoleUser {
			r.Kind, r.Actor = RowQuestion, ActorUser
		}
		add(r)
	}

	for _, g := range goals {
		if g.IsPersonal() || g.SessionID != session.ID {
			continue
		}

		add(Row{At: g.CreatedAt, Kind: RowGoal, Actor: ActorSystem, Content: "Поставлена цель: " + g.Text})
		for _, ref := range g.Reflections() {
			add(Row{At: ref.CreatedAt, Kind: RowReflection, Actor: ActorSystem, Content: ref.Text})
		}
		if g.Completed {
			add(Row{At: CompletionTime(g), Kind: RowGoalCompleted, Actor: ActorSuccess, Content: "Завершена цель: " + g.Text})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].At.Before(rows[j].At)
	})
	return rows
}

// CompletionTime is the feedback time, else the last reflection time, else
// the due date. The zero time means none is known.
func CompletionTime(g domain.Goal) time.Time {
	if g.Feedback != nil && !g.Feedback.CreatedAt.IsZero() {
		return g.Feedback.CreatedAt
	}
	if refs := g.Reflections(); len(refs) > 0 && !refs[len(refs)-1].CreatedAt.IsZero() {
		return refs[len(refs)-1].CreatedAt
	}
	return g.DueDate
}
