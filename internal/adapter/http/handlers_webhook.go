package http

import (
	"log/slog"
	"net/http"

	"github.com/saintvisionai/platform/internal/domain/billing"
	"github.com/saintvisionai/platform/internal/domain/crm"
)

// StripeWebhook consumes verified Stripe events. The signature check runs in
// middleware before this handler; a parseable payload is always acked with
// {received: true} regardless of downstream outcome.
func (h *Handlers) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	evt, ok := readJSON[billing.Event](w, r, maxBodySize)
	if !ok {
		return
	}

	if err := h.billing.HandleStripeEvent(r.Context(), &evt); err != nil {
		slog.Error("stripe event handling failed", "type", evt.Type, "event_id", evt.ID, "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// GHLWebhook consumes CRM events. Parseable payloads are always acked with
// {success: true}.
func (h *Handlers) GHLWebhook(w http.ResponseWriter, r *http.Request) {
	evt, ok := readJSON[crm.Event](w, r, maxBodySize)
	if !ok {
		return
	}

	if err := h.crm.HandleEvent(r.Context(), &evt); err != nil {
		slog.Error("crm event handling failed", "type", evt.EventType, "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
