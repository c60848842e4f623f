// Package agent defines the agent domain entities.
package agent

import "time"

// Model types an agent can be provisioned with.
const (
	ModelGPT            = "gpt-4o"          // single OpenAI assistant
	ModelAzureCognitive = "azure-cognitive" // single Azure cognitive-services bot
	ModelDual           = "dual-bot"        // both, with a routing descriptor
)

// Permission scopes for agent access.
const (
	PermissionAdmin  = "admin"
	PermissionTeam   = "team"
	PermissionPublic = "public"
)

// Status represents the provisioning lifecycle state of an agent.
type Status string

const (
	StatusProvisioning Status = "provisioning"
	StatusActive       Status = "active"
	StatusSuspended    Status = "suspended"
	StatusFailed       Status = "failed"
)

// Config is the agent-creation request payload. It is validated against the
// owner's plan tier and the brand envelope before provisioning starts.
type Config struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	ModelType   string   `json:"model_type"`
	Skillset    string   `json:"skillset,omitempty"` // advisory only
	Features    []string `json:"features"`
	Permissions string   `json:"permissions"`
}

// HasFeature reports whether the config requests the given feature tag.
func (c *Config) HasFeature(feature string) bool {
	for _, f := range c.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// Record is the persisted agent. It embeds a snapshot of the accepted Config;
// only Status (and FailedStep on failure) change after creation.
type Record struct {
	ID         string    `json:"id"`
	Slug       string    `json:"slug"`
	OwnerID    string    `json:"owner_id"`
	BrandID    string    `json:"brand_id"`
	Config     Config    `json:"config"`
	Status     Status    `json:"status"`
	FailedStep string    `json:"failed_step,omitempty"`
	AccessURL  string    `json:"access_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Route is the dual-model routing descriptor persisted for dual-bot agents.
type Route struct {
	AgentID          string `json:"agent_id"`
	Primary          string `json:"primary"`
	Secondary        string `json:"secondary"`
	Fallback         string `json:"fallback"`
	EscalationTarget string `json:"escalation_target"`
}

// ValidationResult is the outcome of plan/brand validation.
type ValidationResult struct {
	OK              bool   `json:"ok"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	UpgradeRequired bool   `json:"upgrade_required,omitempty"`
	UpgradeURL      string `json:"upgrade_url,omitempty"`
}

// Validation failure codes, in check order.
const (
	CodeAgentLimitExceeded   = "AGENT_LIMIT_EXCEEDED"
	CodeModelNotAllowed      = "MODEL_NOT_ALLOWED"
	CodeFeatureNotAllowed    = "FEATURE_NOT_ALLOWED"
	CodeBrandFeatureMismatch = "BRAND_FEATURE_MISMATCH"
)
