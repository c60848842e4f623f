package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/saintvisionai/platform/internal/domain/agent"
	"github.com/saintvisionai/platform/internal/middleware"
)

// createAgentResponse is the success envelope for agent creation.
type createAgentResponse struct {
	AgentID   string   `json:"agentId"`
	AgentSlug string   `json:"agentSlug"`
	AccessURL string   `json:"accessUrl"`
	Status    string   `json:"status"`
	Features  []string `json:"features"`
	ModelType string   `json:"modelType"`
}

// CreateAgent provisions a new agent. The config arrives either as a JSON
// body or as the "config" field of a multipart form (the wizard uploads
// knowledge files alongside it).
func (h *Handlers) CreateAgent(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	cfg, ok := h.readAgentConfig(w, r)
	if !ok {
		return
	}

	b := middleware.BrandFromContext(r.Context())
	if b == nil {
		b = h.brands.Default()
	}

	rec, result, err := h.agents.Provision(r.Context(), u.ID, u.Tier, b, cfg)
	if err != nil {
		writeDomainError(w, err, "agent provisioning failed")
		return
	}
	if !result.OK {
		writeJSON(w, http.StatusForbidden, errorResponse{
			Error:           result.Code,
			Message:         result.Message,
			UpgradeRequired: result.UpgradeRequired,
			UpgradeURL:      result.UpgradeURL,
		})
		return
	}

	writeJSON(w, http.StatusCreated, createAgentResponse{
		AgentID:   rec.ID,
		AgentSlug: rec.Slug,
		AccessURL: rec.AccessURL,
		Status:    string(rec.Status),
		Features:  rec.Config.Features,
		ModelType: rec.Config.ModelType,
	})
}

// readAgentConfig decodes the agent config from the request.
func (h *Handlers) readAgentConfig(w http.ResponseWriter, r *http.Request) (*agent.Config, bool) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxBodySize); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return nil, false
		}
		raw := r.FormValue("config")
		if raw == "" {
			writeError(w, http.StatusBadRequest, "config field is required")
			return nil, false
		}
		var cfg agent.Config
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			writeError(w, http.StatusBadRequest, "invalid agent config")
			return nil, false
		}
		return &cfg, true
	}

	cfg, ok := readJSON[agent.Config](w, r, maxBodySize)
	if !ok {
		return nil, false
	}
	return &cfg, true
}

// GetAgent returns a single agent owned by the caller.
func (h *Handlers) GetAgent(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	rec, err := h.agents.Get(r.Context(), u.ID, u.Service, urlParam(r, "agentId"))
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListAgents returns all agents owned by the caller.
func (h *Handlers) ListAgents(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	recs, err := h.agents.List(r.Context(), u.ID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if recs == nil {
		recs = []agent.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": recs})
}
