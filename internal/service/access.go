// Package service contains the platform business logic.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saintvisionai/platform/internal/domain/agent"
	"github.com/saintvisionai/platform/internal/domain/brand"
	"github.com/saintvisionai/platform/internal/domain/plan"
	"github.com/saintvisionai/platform/internal/port/database"
)

// AccessService validates agent configurations against the owner's plan tier
// and the brand envelope.
type AccessService struct {
	store      database.Store
	matrix     *plan.Matrix
	upgradeURL string
}

// NewAccessService creates a new AccessService.
func NewAccessService(store database.Store, matrix *plan.Matrix, upgradeURL string) *AccessService {
	return &AccessService{store: store, matrix: matrix, upgradeURL: upgradeURL}
}

// Validate checks an agent config against the user's plan and the brand.
// Checks run in a fixed order (agent count, model type, features, brand) and
// stop at the first violation, so the caller sees one message at a time.
func (s *AccessService) Validate(ctx context.Context, userID string, tierID plan.TierID, b *brand.Descriptor, cfg *agent.Config) (*agent.ValidationResult, error) {
	tier := s.matrix.Get(tierID)

	count, err := s.store.CountAgentsByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count agents: %w", err)
	}

	if tier.MaxAgents != plan.Unlimited && count >= tier.MaxAgents {
		return s.deny(agent.CodeAgentLimitExceeded,
			fmt.Sprintf("your %s plan allows at most %d agent(s)", tier.ID, tier.MaxAgents)), nil
	}

	if !tier.AllowsModel(cfg.ModelType) {
		return s.deny(agent.CodeModelNotAllowed,
			fmt.Sprintf("model type %q is not available on the %s plan", cfg.ModelType, tier.ID)), nil
	}

	for _, f := range cfg.Features {
		if !tier.AllowsFeature(f) {
			return s.deny(agent.CodeFeatureNotAllowed,
				fmt.Sprintf("feature %q requires a higher plan than %s", f, tier.ID)), nil
		}
	}

	for _, f := range cfg.Features {
		if !b.AllowsFeature(f) {
			return &agent.ValidationResult{
				OK:      false,
				Code:    agent.CodeBrandFeatureMismatch,
				Message: fmt.Sprintf("feature %q is not offered under the %s brand", f, b.Name),
			}, nil
		}
	}

	// Compliance mismatch is logged, not enforced. Brands that require
	// compliance tags still accept untagged agents.
	if len(b.ComplianceTags) > 0 && !cfg.HasFeature(plan.FeatureComplianceTracking) {
		slog.Warn("agent config missing compliance tracking for regulated brand",
			"brand_id", b.ID, "compliance_tags", b.ComplianceTags, "user_id", userID)
	}

	return &agent.ValidationResult{OK: true}, nil
}

// deny builds a plan-limit failure with the upgrade pointer set.
func (s *AccessService) deny(code, message string) *agent.ValidationResult {
	return &agent.ValidationResult{
		OK:              false,
		Code:            code,
		Message:         message,
		UpgradeRequired: true,
		UpgradeURL:      s.upgradeURL,
	}
}
