package httpadapter

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/PabloGalante/farum-diary/internal/app/conversation"
	"github.com/PabloGalante/farum-diary/internal/domain"
)

type resumeConversationRequest struct {
	SessionID string `json:"session_id"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type conversationResponse struct {
	ID        string           `json:"id"`
	State     string           `json:"state"`
	SessionID string           `json:"session_id,omitempty"`
	Greeting  string           `json:"greeting,omitempty"`
	Messages  []domain.Message `json:"messages"`
	Sending   bool             `json:"sending"`
}

type sendMessageResponse struct {
	SessionID string          `json:"session_id,omitempty"`
	User      domain.Message  `json:"user_message"`
	Assistant *domain.Message `json:"assistant_message,omitempty"`
	Notice    *domain.Message `json:"notice,omitempty"`
	Goals     []goalResponse  `json:"goals,omitempty"`
	Created   bool            `json:"session_created"`
	Error     string          `json:"error,omitempty"`
}

func (s *Server) handleOpenConversation(w http.ResponseWriter, r *http.Request) {
	handle, engine, err := s.deps.Conversations.Open(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeConversation(w, r, http.StatusCreated, handle, engine)
}

func (s *Server) handleResumeConversation(w http.ResponseWriter, r *http.Request) {
	var req resumeConversationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		badRequest(w, "session_id is required")
		return
	}

	handle, engine, err := s.deps.Conversations.Resume(r.Context(), userID(r), domain.SessionID(req.SessionID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeConversation(w, r, http.StatusCreated, handle, engine)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "cid")
	engine, err := s.deps.Conversations.Get(userID(r), handle)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeConversation(w, r, http.StatusOK, handle, engine)
}

func (s *Server) handleCloseConversation(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Conversations.Close(r.Context(), userID(r), chi.URLParam(r, "cid")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	engine, err := s.deps.Conversations.Get(userID(r), chi.URLParam(r, "cid"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := engine.SendMessage(r.Context(), req.Text)
	if res == nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	resp := toSendMessageResponse(res)
	if err != nil {
		// what did happen (the echo, a notice, a stored reply) is still reported
		status = statusFor(err)
		resp.Error = errorMessage(status, err)
		if status >= http.StatusInternalServerError {
			logFailure(r, status, err)
		}
	}
	writeJSON(w, status, resp)
}

func (s *Server) writeConversation(w http.ResponseWriter, r *http.Request, status int, handle string, engine *conversation.Engine) {
	view, err := engine.View(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := conversationResponse{
		ID:        handle,
		State:     "draft",
		SessionID: string(view.SessionID),
		Greeting:  view.Greeting,
		Messages:  view.Messages,
		Sending:   view.Sending,
	}
	if resp.Messages == nil {
		resp.Messages = []domain.Message{}
	}
	if _, ok := engine.State().(conversation.Persisted); ok {
		resp.State = "persisted"
	}
	writeJSON(w, status, resp)
}

func toSendMessageResponse(res *conversation.Result) sendMessageResponse {
	out := sendMessageResponse{
		SessionID: string(res.SessionID),
		User:      res.User,
		Assistant: res.Assistant,
		Notice:    res.Notice,
		Created:   res.Created,
	}
	for _, g := range res.Goals {
		out.Goals = append(out.Goals, toGoalResponse(g))
	}
	return out
}
