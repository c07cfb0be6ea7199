package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/planit-dev/planit/internal/itinerary"
	"github.com/planit-dev/planit/internal/log"
	"github.com/planit-dev/planit/internal/session"
	"github.com/planit-dev/planit/internal/trip"
)

type planHandler struct {
	planner  PlanService
	sessions *session.Manager
	logger   log.Logger
}

// planRequest is a trip request with an optional session to attach the
// generated plan to, so later chat turns can reference it.
type planRequest struct {
	trip.Request
	SessionID string `json:"session_id,omitempty"`
}

// planResponse carries both the structured document and the raw
// narrative, so clients can render either.
type planResponse struct {
	SessionID      string               `json:"session_id,omitempty"`
	Itinerary      itinerary.Itinerary  `json:"itinerary"`
	BudgetAnalysis *trip.BudgetAnalysis `json:"budget_analysis,omitempty"`
	RawItinerary   string               `json:"raw_itinerary"`
	Notes          []string             `json:"notes,omitempty"`
}

// plan handles POST /api/v1/plan.
func (h *planHandler) plan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid request body", h.logger)
		return
	}

	var sessionID uuid.UUID
	if req.SessionID != "" {
		id, err := uuid.Parse(req.SessionID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation", "invalid session id", h.logger)
			return
		}
		sessionID = id
	}

	result, err := h.planner.GeneratePlan(r.Context(), req.Request)
	if err != nil {
		h.writePlanError(w, err)
		return
	}

	resp := planResponse{
		Itinerary:      itinerary.Structure(result.Itinerary),
		BudgetAnalysis: result.Budget,
		RawItinerary:   result.Itinerary,
		Notes:          result.Notes,
	}

	// Attach the plan to the session so chat turns can act on it. A
	// persistence failure degrades to a note; the client still gets the
	// plan it asked for.
	if req.SessionID != "" {
		id, _, err := h.sessions.Do(r.Context(), sessionID, func(s *session.Session) error {
			s.SetPlan(req.Request, result)
			return nil
		})
		if err != nil {
			h.logger.Error("plan persistence failed", "session_id", sessionID, "error", err)
			resp.Notes = append(resp.Notes, "plan could not be saved to the session")
		} else {
			resp.SessionID = id.String()
		}
	}

	writeJSON(w, http.StatusOK, resp, h.logger)
}

// writePlanError maps pipeline error kinds onto HTTP statuses. Raw
// provider errors never reach the client.
func (h *planHandler) writePlanError(w http.ResponseWriter, err error) {
	var te *trip.Error
	if !errors.As(err, &te) {
		h.logger.Error("plan request failed", "error", err)
		writeError(w, http.StatusInternalServerError, string(trip.KindInternal), "internal server error", h.logger)
		return
	}

	status := http.StatusInternalServerError
	switch te.Kind {
	case trip.KindValidation:
		status = http.StatusBadRequest
	case trip.KindGeneration:
		status = http.StatusBadGateway
	}
	writeError(w, status, string(te.Kind), te.Message, h.logger)
}
