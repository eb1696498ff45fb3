package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/PabloGalante/farum-diary/internal/app/conversation"
	"github.com/PabloGalante/farum-diary/internal/app/diary"
	"github.com/PabloGalante/farum-diary/internal/app/goals"
	"github.com/PabloGalante/farum-diary/internal/app/journal"
	"github.com/PabloGalante/farum-diary/internal/app/profile"
	"github.com/PabloGalante/farum-diary/internal/app/schema"
	"github.com/PabloGalante/farum-diary/internal/domain"
	"github.com/PabloGalante/farum-diary/internal/observability"
)

// SessionReader loads one stored session.
type SessionReader interface {
	GetSession(ctx context.Context, owner domain.UserID, id domain.SessionID) (*domain.Session, error)
}

// Deps is everything the router needs.
type Deps struct {
	Sessions      SessionReader
	Conversations *conversation.Registry
	Goals         *goals.Service
	Diary         *diary.Service
	Profiles      *profile.Service
	Journal       *journal.Service

	// Gatherer backs /metrics. Nil leaves the route out.
	Gatherer prometheus.Gatherer
	// SendLimiter throttles the endpoint that calls the analysis service.
	// Nil disables throttling.
	SendLimiter *RateLimiter
	CORSOrigin  string
}

type Server struct {
	deps Deps
}

// NewServer builds the REST API.
func NewServer(deps Deps) http.Handler {
	s := &Server{deps: deps}
	r := chi.NewRouter()

	r.Use(withRequestID, withLogging, withRecovery, withCORS(deps.CORSOrigin))

	r.Get("/healthz", s.handleHealth)
	if deps.Gatherer != nil {
		r.Handle("/metrics", observability.Handler(deps.Gatherer))
	}

	r.Route("/users/{uid}", func(r chi.Router) {
		r.Use(withUser)

		r.Get("/profile", s.handleGetProfile)
		r.Put("/profile", s.handleSaveProfile)

		r.Get("/timeline", s.handleTimeline)
		r.Get("/sessions/{sid}/schema", s.handleSessionSchema)
		r.Get("/goals", s.handleListGoals)

		// everything below needs a completed onboarding
		r.Group(func(r chi.Router) {
			r.Use(s.requireProfile)

			r.Route("/conversations", func(r chi.Router) {
				r.Post("/", s.handleOpenConversation)
				r.Post("/resume", s.handleResumeConversation)
				r.Get("/{cid}", s.handleGetConversation)
				r.Delete("/{cid}", s.handleCloseConversation)
				r.With(s.limitSends).Post("/{cid}/messages", s.handleSendMessage)
			})

			r.Post("/goals", s.handleCreateGoal)
			r.Route("/goals/{gid}", func(r chi.Router) {
				r.Post("/subitems/{idx}/toggle", s.handleToggleSubItem)
				r.Post("/postpone", s.handlePostpone)
				r.Post("/reflections", s.handleAppendReflection)
				r.Post("/feedback", s.handleFeedback)
			})

			r.Post("/moods", s.handleSaveMood)
			r.Post("/notes", s.handleAddNote)
			r.Post("/notes/{nid}/entries", s.handleAppendNoteEntry)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─────────────────────────────────────────────
// Profile, timeline, schema
// ─────────────────────────────────────────────

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Profiles.Require(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var req domain.Profile
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := s.deps.Profiles.Save(r.Context(), userID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Journal.Timeline(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimelineResponse(st))
}

func (s *Server) handleSessionSchema(w http.ResponseWriter, r *http.Request) {
	owner := userID(r)
	sid := domain.SessionID(chi.URLParam(r, "sid"))

	sess, err := s.deps.Sessions.GetSession(r.Context(), owner, sid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	all, err := s.deps.Goals.ListGoals(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var linked []domain.Goal
	for _, g := range all {
		if g.SessionID == sid {
			linked = append(linked, g)
		}
	}

	writeJSON(w, http.StatusOK, schemaResponse{
		Session: toSessionResponse(*sess),
		Rows:    toSchemaRows(schema.Build(*sess, linked)),
	})
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func userID(r *http.Request) domain.UserID {
	return domain.UserID(chi.URLParam(r, "uid"))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps the domain error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotAllowed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrProfileRequired):
		return http.StatusPreconditionRequired
	case errors.Is(err, domain.ErrAnalysisUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage hides internals of server side failures.
func errorMessage(status int, err error) string {
	switch status {
	case http.StatusBadGateway:
		return domain.ErrAnalysisUnavailable.Error()
	case http.StatusServiceUnavailable:
		return domain.ErrStoreUnavailable.Error()
	case http.StatusInternalServerError:
		return "internal server error"
	default:
		return err.Error()
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logFailure(r, status, err)
	}
	writeJSON(w, status, errorResponse{Error: errorMessage(status, err)})
}

func logFailure(r *http.Request, status int, err error) {
	observability.LoggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "status", status, "error", err)
}
