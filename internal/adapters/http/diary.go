package httpadapter

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PabloGalante/farum-diary/internal/app/diary"
	"github.com/PabloGalante/farum-diary/internal/domain"
)

type addNoteRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type noteEntryRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSaveMood(w http.ResponseWriter, r *http.Request) {
	var req diary.NewMood
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := s.deps.Diary.SaveMood(r.Context(), userID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMoodResponse(*m))
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	var req addNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	n, err := s.deps.Diary.AddNote(r.Context(), userID(r), req.Title, req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toNoteResponse(*n))
}

func (s *Server) handleAppendNoteEntry(w http.ResponseWriter, r *http.Request) {
	var req noteEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id := domain.NoteID(chi.URLParam(r, "nid"))
	e, err := s.deps.Diary.AppendNoteEntry(r.Context(), userID(r), id, req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}
