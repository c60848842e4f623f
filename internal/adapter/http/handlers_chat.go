package http

import (
	"net/http"

	"github.com/saintvisionai/platform/internal/middleware"
	"github.com/saintvisionai/platform/internal/service"
)

// Chat handles one chat turn against an agent.
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	req, ok := readJSON[service.ChatRequest](w, r, maxBodySize)
	if !ok {
		return
	}

	reply, err := h.chats.Send(r.Context(), u.ID, u.Tier, &req)
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}
