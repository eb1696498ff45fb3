package domain

import (
	"fmt"
	"strings"
)

type GoalKind string

const (
	GoalChecklist  GoalKind = "checklist"
	GoalReflection GoalKind = "reflection"
)

const (
	// MaxPostpones is how many times a goal's due date may be pushed back.
	MaxPostpones = 3
	// PostponeDays is how far a single postponement moves the due date.
	PostponeDays = 3
)

// SubItem is one step of a checklist goal.
type SubItem struct {
	Text      string `json:"text" validate:"required"`
	Completed bool   `json:"completed"`
}

// ChecklistFeedback is collected from the user once a checklist goal is done.
type ChecklistFeedback struct {
	Comment   string    `json:"comment"`
	Rating    int       `json:"rating"`
	CreatedAt Timestamp `json:"created_at"`
}

// GoalBody holds the kind-specific part of a goal: *Checklist or *ReflectionPrompt.
type GoalBody interface {
	Kind() GoalKind
	cloneBody() GoalBody
}

// Checklist is a goal completed by ticking off all of its sub items.
type Checklist struct {
	SubItems []SubItem
}

func (*Checklist) Kind() GoalKind { return GoalChecklist }

func (c *Checklist) cloneBody() GoalBody {
	return &Checklist{SubItems: append([]SubItem(nil), c.SubItems...)}
}

// ReflectionPrompt is a goal completed by writing about it.
type ReflectionPrompt struct {
	Reflections []Entry
}

func (*ReflectionPrompt) Kind() GoalKind { return GoalReflection }

func (r *ReflectionPrompt) cloneBody() GoalBody {
	return &ReflectionPrompt{Reflections: append([]Entry(nil), r.Reflections...)}
}

// Goal is a tracked objective, either personal or derived from a session.
type Goal struct {
	ID      GoalID
	OwnerID UserID

	Text          string
	Purpose       string
	DueDate       Timestamp
	Completed     bool
	PostponeCount int

	// Empty for personal goals.
	SessionID    SessionID
	SessionTitle string

	Feedback *ChecklistFeedback

	Body GoalBody

	CreatedAt Timestamp
}

func (g Goal) Kind() GoalKind {
	if g.Body == nil {
		return GoalChecklist
	}
	return g.Body.Kind()
}

// IsPersonal reports whether the goal is not linked to any session.
func (g Goal) IsPersonal() bool {
	return g.SessionID == ""
}

// SubItems returns the checklist steps, nil for reflection goals.
func (g Goal) SubItems() []SubItem {
	if c, ok := g.Body.(*Checklist); ok {
		return c.SubItems
	}
	return nil
}

// Reflections returns the written reflections, nil for checklist goals.
func (g Goal) Reflections() []Entry {
	if r, ok := g.Body.(*ReflectionPrompt); ok {
		return r.Reflections
	}
	return nil
}

// Clone returns a deep copy of the goal.
func (g Goal) Clone() Goal {
	out := g
	if g.Body != nil {
		out.Body = g.Body.cloneBody()
	}
	if g.Feedback != nil {
		fb := *g.Feedback
		out.Feedback = &fb
	}
	return out
}

// ToggleSubItem flips sub item i and recomputes Completed as the conjunction
// of all sub items. It reports whether the goal went from open to completed.
func (g *Goal) ToggleSubItem(i int) (bool, error) {
	c, ok := g.Body.(*Checklist)
	if !ok {
		return false, fmt.Errorf("%w: goal %s is not a checklist", ErrValidation, g.ID)
	}
	if i < 0 || i >= len(c.SubItems) {
		return false, fmt.Errorf("%w: sub item index %d out of range", ErrValidation, i)
	}

	c.SubItems[i].Completed = !c.SubItems[i].Completed

	all := true
	for _, it := range c.SubItems {
		if !it.Completed {
			all = false
			break
		}
	}

	was := g.Completed
	g.Completed = all
	return !was && all, nil
}

// Postpone moves the due date PostponeDays forward. Once MaxPostpones is
// reached the goal is left untouched and ErrNotAllowed is returned.
func (g *Goal) Postpone() error {
	if g.PostponeCount >= MaxPostpones {
		return fmt.Errorf("%w: goal %s already postponed %d times", ErrNotAllowed, g.ID, g.PostponeCount)
	}
	g.DueDate = g.DueDate.AddDate(0, 0, PostponeDays)
	g.PostponeCount++
	return nil
}

// AddReflection appends a reflection. A single reflection completes the goal.
func (g *Goal) AddReflection(e Entry) error {
	r, ok := g.Body.(*ReflectionPrompt)
	if !ok {
		return fmt.Errorf("%w: goal %s does not take reflections", ErrValidation, g.ID)
	}
	if strings.TrimSpace(e.Text) == "" {
		return fmt.Errorf("%w: reflection text is required", ErrValidation)
	}
	r.Reflections = append(r.Reflections, e)
	g.Completed = true
	return nil
}
