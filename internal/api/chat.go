package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/planit-dev/planit/internal/log"
	"github.com/planit-dev/planit/internal/session"
)

type chatHandler struct {
	chat     ChatService
	sessions *session.Manager
	logger   log.Logger
}

type chatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID  string                   `json:"session_id"`
	NewSession bool                     `json:"new_session"`
	Response   string                   `json:"response"`
	ToolCalls  []session.ToolInvocation `json:"tool_calls,omitempty"`
}

// send handles POST /api/v1/chat. An unknown or absent session id
// transparently creates a new session; new_session tells the client a
// fresh id was assigned. The user and assistant messages are appended
// atomically, so a failed turn leaves the history untouched.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid request body", h.logger)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "validation", "message is required", h.logger)
		return
	}

	// An unparsable id is treated like an expired one: a new session.
	id, err := uuid.Parse(req.SessionID)
	if err != nil {
		id = uuid.Nil
	}

	var reply session.Message
	id, created, err := h.sessions.Do(r.Context(), id, func(sess *session.Session) error {
		var respondErr error
		reply, respondErr = h.chat.Respond(r.Context(), sess, req.Message)
		if respondErr != nil {
			return respondErr
		}
		sess.Append(
			session.Message{Role: session.RoleUser, Content: req.Message},
			reply,
		)
		return nil
	})
	if err != nil {
		h.logger.Error("chat turn failed", "session_id", id, "error", err)
		writeError(w, http.StatusBadGateway, "generation_failed", "could not generate a reply", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID:  id.String(),
		NewSession: created,
		Response:   reply.Content,
		ToolCalls:  reply.Invocations,
	}, h.logger)
}
