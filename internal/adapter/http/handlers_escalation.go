package http

import (
	"net/http"

	"github.com/saintvisionai/platform/internal/domain/escalation"
	"github.com/saintvisionai/platform/internal/middleware"
)

// escalationResponse is the success envelope for escalation creation.
type escalationResponse struct {
	EscalationID         string `json:"escalationId"`
	Response             string `json:"response"`
	Resolved             bool   `json:"resolved"`
	SupportTicketCreated bool   `json:"supportTicketCreated"`
}

// CreateEscalation records an escalation and runs the senior handler.
func (h *Handlers) CreateEscalation(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	req, ok := readJSON[escalation.Request](w, r, maxBodySize)
	if !ok {
		return
	}
	if req.UserID == "" {
		req.UserID = u.ID
	}

	outcome, err := h.escalations.Escalate(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "escalation failed")
		return
	}
	writeJSON(w, http.StatusCreated, escalationResponse{
		EscalationID:         outcome.Record.ID,
		Response:             outcome.Record.Response,
		Resolved:             outcome.Record.Resolved,
		SupportTicketCreated: outcome.TicketCreated,
	})
}

// GetEscalation returns an escalation record projection.
func (h *Handlers) GetEscalation(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	rec, err := h.escalations.Get(r.Context(), urlParam(r, "escalationId"))
	if err != nil {
		writeDomainError(w, err, "escalation not found")
		return
	}
	if !u.Service && rec.UserID != u.ID {
		writeError(w, http.StatusNotFound, "escalation not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
