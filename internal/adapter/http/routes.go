package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/saintvisionai/platform/internal/config"
	"github.com/saintvisionai/platform/internal/middleware"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers, cfg *config.Config) {
	// Payment and CRM webhooks sit outside bearer auth; each carries its own
	// verification.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.With(middleware.StripeWebhook(cfg.Stripe.WebhookSecret)).
			Post("/stripe", h.StripeWebhook)
		r.With(middleware.WebhookToken(cfg.GHL.WebhookToken, "X-GHL-Token")).
			Post("/ghl", h.GHLWebhook)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Brands
		r.Get("/brands", h.ListBrands)

		// Agents
		r.Post("/create-agent", h.CreateAgent)
		r.Get("/agents", h.ListAgents)
		r.Get("/agents/{agentId}", h.GetAgent)

		// Chat
		r.Post("/chat", h.Chat)

		// Escalations
		r.Post("/escalations", h.CreateEscalation)
		r.Get("/escalations/{escalationId}", h.GetEscalation)
	})

	// Real-time updates
	r.Get("/ws", h.hub.HandleWS)
}

// ListBrands returns the registered brand descriptors in resolution order.
func (h *Handlers) ListBrands(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"brands": h.brands.List()})
}
