package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avelasco/docqa/internal/domain/convo"
)

// SessionHandler manages conversation sessions.
type SessionHandler struct {
	sessions *convo.Store
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessions *convo.Store) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// createSessionResponse is the JSON body returned by Create.
type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

// Create handles POST /api/v1/sessions.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: s.ID()})
}

// Clear handles POST /api/v1/sessions/{id}/clear. The session keeps its ID
// but loses its history. Clearing an unknown session is a no-op.
func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/v1/sessions/{id}. Idempotent.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.sessions.Delete(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}
