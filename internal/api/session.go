package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/planit-dev/planit/internal/log"
	"github.com/planit-dev/planit/internal/session"
)

type sessionHandler struct {
	sessions *session.Manager
	logger   log.Logger
}

type createSessionRequest struct {
	OwnerID string `json:"owner_id"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

type historyResponse struct {
	SessionID string            `json:"session_id"`
	Messages  []session.Message `json:"messages"`
}

// create handles POST /api/v1/sessions: reserves an empty session,
// optionally tagged with an owner id from the identity layer. The body
// may be empty.
func (h *sessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON body", h.logger)
		return
	}

	id, _, err := h.sessions.Do(r.Context(), uuid.Nil, func(s *session.Session) error {
		s.OwnerID = req.OwnerID
		return nil
	})
	if err != nil {
		h.logger.Error("session create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not create session", h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: id.String()}, h.logger)
}

// history handles GET /api/v1/sessions/{id}/history. Read-only, so an
// unknown id is a 404 rather than a transparent create.
func (h *sessionHandler) history(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid session id", h.logger)
		return
	}

	sess, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "session not found", h.logger)
			return
		}
		h.logger.Error("history load failed", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not load session", h.logger)
		return
	}

	msgs := sess.Messages
	if msgs == nil {
		msgs = []session.Message{}
	}
	writeJSON(w, http.StatusOK, historyResponse{SessionID: id.String(), Messages: msgs}, h.logger)
}
