// Package timeline merges sessions, goals, moods and diary notes of one user
// into the grouped chronological view shown in the diary.
//
// A goal whose session is not in the input is kept and placed in the day
// group of its creation date, like a personal goal.
package timeline

import (
	"sort"
	"time"

	"github.com/PabloGalante/farum-diary/internal/domain"
)

type EntryKind string

const (
	EntrySession EntryKind = "session"
	EntryGoal    EntryKind = "goal"
	EntryMood    EntryKind = "mood"
	EntryNote    EntryKind = "note"
)

type GroupKind string

const (
	GroupSession GroupKind = "session"
	GroupDay     GroupKind = "day"
)

// Entry is one record placed on the timeline. Exactly one of the data
// pointers is set, matching Kind.
type Entry struct {
	ID        string
	Kind      EntryKind
	CreatedAt time.Time

	Session *domain.Session
	Goal    *domain.Goal
	Mood    *domain.Mood
	Note    *domain.DiaryNote
}

// Group is a session with its goals, or one calendar day of loose records.
type Group struct {
	Title   string
	Date    time.Time
	Kind    GroupKind
	Entries []Entry
}

// Input is the latest full snapshot of every collection of one user.
type Input struct {
	Sessions []domain.Session
	Goals    []domain.Goal
	Moods    []domain.Mood
	Notes    []domain.DiaryNote
}

// Build computes the timeline. It is a pure function of in: the same input
// always yields the same groups in the same order.
func Build(in Input) []Group {
	bySession := make(map[domain.SessionID][]Entry)
	known := make(map[domain.SessionID]bool, len(in.Sessions))
	for _, s := range in.Sessions {
		known[s.ID] = true
	}

	var loose []Entry
	for i := range in.Goals {
		g := &in.Goals[i]
		e := Entry{ID: string(g.ID), Kind: EntryGoal, CreatedAt: g.CreatedAt, Goal: g}
		// Goals pointing at a session not in the snapshot yet are treated as unassigned.
		if g.IsPersonal() || !known[g.SessionID] {
			loose = append(loose, e)
			continue
		}
		bySession[g.SessionID] = append(bySession[g.SessionID], e)
	}

	groups := make([]Group, 0, len(in.Sessions))
	for i := range in.Sessions {
		s := &in.Sessions[i]
		entries := append([]Entry{{ID: string(s.ID), Kind: EntrySession, CreatedAt: s.CreatedAt, Session: s}}, bySession[s.ID]...)
		sortNewestFirst(entries)
		groups = append(groups, Group{
			Title:   s.Title,
			Date:    s.CreatedAt,
			Kind:    GroupSession,
			Entries: entries,
		})
	}

	for i := range in.Moods {
		m := &in.Moods[i]
		loose = append(loose, Entry{ID: string(m.ID), Kind: EntryMood, CreatedAt: m.CreatedAt, Mood: m})
	}
	for i := range in.Notes {
		n := &in.Notes[i]
		loose = append(loose, Entry{ID: string(n.ID), Kind: EntryNote, CreatedAt: n.CreatedAt, Note: n})
	}

	groups = append(groups, groupByDay(loose)...)

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Date.After(groups[j].Date)
	})
	return groups
}

// groupByDay buckets entries by their UTC calendar day, keeping the order in
// which days are first seen. Entries without a creation time are dropped.
func groupByDay(entries []Entry) []Group {
	var days []*Group
	index := make(map[string]*Group)

	for _, e := range entries {
		if e.CreatedAt.IsZero() {
			continue
		}
		key := e.CreatedAt.UTC().Format(time.DateOnly)
		g, ok := index[key]
		if !ok {
			g = &Group{
				Title: DayTitle(e.CreatedAt),
				Date:  e.CreatedAt,
				Kind:  GroupDay,
			}
			index[key] = g
			days = append(days, g)
		}
		g.Entries = append(g.Entries, e)
	}

	out := make([]Group, 0, len(days))
	for _, g := range days {
		sortNewestFirst(g.Entries)
		out = append(out, *g)
	}
	return out
}

func sortNewestFirst(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}
