package httpadapter

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/PabloGalante/farum-diary/internal/app/goals"
	"github.com/PabloGalante/farum-diary/internal/domain"
)

type reflectionRequest struct {
	Text string `json:"text"`
}

type feedbackRequest struct {
	Comment string `json:"comment"`
	Rating  int    `json:"rating"`
}

type goalGroupResponse struct {
	Title string         `json:"title"`
	Goals []goalResponse `json:"goals"`
}

// goalActionResponse is returned by the operations that may complete a goal.
type goalActionResponse struct {
	Goal              goalResponse `json:"goal"`
	Completed         bool         `json:"completed_now"`
	FeedbackRequested bool         `json:"feedback_requested"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Goals.ListGoals(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	groups := goals.GroupBySession(list)
	out := make([]goalGroupResponse, 0, len(groups))
	for _, g := range groups {
		gr := goalGroupResponse{Title: g.Title, Goals: make([]goalResponse, 0, len(g.Goals))}
		for _, goal := range g.Goals {
			gr.Goals = append(gr.Goals, toGoalResponse(goal))
		}
		out = append(out, gr)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goals.NewGoal
	if !decodeJSON(w, r, &req) {
		return
	}

	g, err := s.deps.Goals.CreateGoal(r.Context(), userID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalResponse(*g))
}

func (s *Server) handleToggleSubItem(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil {
		badRequest(w, "sub item index must be a number")
		return
	}

	g, ev, err := s.deps.Goals.ToggleSubItem(r.Context(), userID(r), goalID(r), idx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalAction(*g, ev))
}

func (s *Server) handlePostpone(w http.ResponseWriter, r *http.Request) {
	g, err := s.deps.Goals.PostponeGoal(r.Context(), userID(r), goalID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponse(*g))
}

func (s *Server) handleAppendReflection(w http.ResponseWriter, r *http.Request) {
	var req reflectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	g, ev, err := s.deps.Goals.AppendReflection(r.Context(), userID(r), goalID(r), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalAction(*g, ev))
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	g, err := s.deps.Goals.RecordChecklistFeedback(r.Context(), userID(r), goalID(r), req.Comment, req.Rating)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponse(*g))
}

func goalID(r *http.Request) domain.GoalID {
	return domain.GoalID(chi.URLParam(r, "gid"))
}

func toGoalAction(g domain.Goal, ev *goals.CompletionEvent) goalActionResponse {
	out := goalActionResponse{Goal: toGoalResponse(g)}
	if ev != nil {
		out.Completed = true
		out.FeedbackRequested = ev.FeedbackRequested()
	}
	return out
}
