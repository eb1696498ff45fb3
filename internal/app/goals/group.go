package goals

import "github.com/PabloGalante/farum-diary/internal/domain"

// PersonalTitle is the heading of goals not linked to a session.
const PersonalTitle = "Личные цели"

// Group is the goals sharing one session title.
type Group struct {
	Title string
	Goals []domain.Goal
}

// GroupBySession groups goals by session title in the order titles first appear.
func GroupBySession(goals []domain.Goal) []Group {
	var out []Group
	index := make(map[string]int)

	for _, g := range goals {
		key := g.SessionTitle
		if key == "" {
			key = PersonalTitle
		}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, Group{Title: key})
		}
		out[i].Goals = append(out[i].Goals, g)
	}
	return out
}
