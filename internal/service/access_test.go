package service

import (
	"context"
	"testing"
	"time"

	"github.com/saintvisionai/platform/internal/domain/agent"
	"github.com/saintvisionai/platform/internal/domain/brand"
	"github.com/saintvisionai/platform/internal/domain/plan"
)

const testUpgradeURL = "https://saintvisionai.com/upgrade"

func testBrand() *brand.Descriptor {
	return &brand.Descriptor{
		ID:              "saintvision",
		Name:            "SaintVision AI",
		AllowedFeatures: []string{brand.FeatureAll},
	}
}

func seedAgent(store *mockStore, ownerID string, status agent.Status) {
	rec := &agent.Record{
		ID:        "seed-" + string(status) + ownerID,
		Slug:      "seed-" + string(status) + "-" + ownerID,
		OwnerID:   ownerID,
		BrandID:   "saintvision",
		Status:    status,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	_ = store.CreateAgent(context.Background(), rec)
}

func TestValidateAllowsWithinPlan(t *testing.T) {
	store := newMockStore()
	svc := NewAccessService(store, plan.DefaultMatrix(), testUpgradeURL)

	result, err := svc.Validate(context.Background(), "u1", plan.TierFree, testBrand(), &agent.Config{
		Name:      "Helper",
		ModelType: agent.ModelGPT,
		Features:  []string{plan.FeatureWebResearch},
	})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !result.OK {
		t.Fatalf("expected ok, got %+v", result)
	}
}

func TestValidateAgentLimit(t *testing.T) {
	store := newMockStore()
	seedAgent(store, "u1", agent.StatusActive)
	svc := NewAccessService(store, plan.DefaultMatrix(), testUpgradeURL)

	result, err := svc.Validate(context.Background(), "u1", plan.TierFree, testBrand(), &agent.Config{
		Name:      "Second",
		ModelType: agent.ModelGPT,
	})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if result.OK || result.Code != agent.CodeAgentLimitExceeded {
		t.Fatalf("expected AGENT_LIMIT_EXCEEDED, got %+v", result)
	}
	if !result.UpgradeRequired || result.UpgradeURL != testUpgradeURL {
		t.Fatalf("expected upgrade pointer, got %+v", result)
	}
}

func TestValidateFailedAgentsDoNotCount(t *testing.T) {
	store := newMockStore()
	seedAgent(store, "u1", agent.StatusFailed)
	svc := NewAccessService(store, plan.DefaultMatrix(), testUpgradeURL)

	result, err := svc.Validate(context.Background(), "u1", plan.TierFree, testBrand(), &agent.Config{
		Name:      "Replacement",
		ModelType: agent.ModelGPT,
	})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !result.OK {
		t.Fatalf("failed agent should not consume quota: %+v", result)
	}
}

func TestValidateCheckOrder(t *testing.T) {
	// Agent count, model type, then features: with all three violated, the
	// count failure wins.
	store := newMockStore()
	seedAgent(store, "u1", agent.StatusActive)
	svc := NewAccessService(store, plan.DefaultMatrix(), testUpgradeURL)

	result, err := svc.Validate(context.Background(), "u1", plan.TierFree, testBrand(), &agent.Config{
		Name:      "Everything",
		ModelType: agent.ModelDual,
		Features:  []string{plan.FeatureVoiceEnabled},
	})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if result.Code != agent.CodeAgentLimitExceeded {
		t.Fatalf("expected count violation first, got %s", result.Code)
	}

	// Without the count violation, the model violation comes next.
	store2 := newMockStore()
	svc2 := NewAccessService(store2, plan.DefaultMatrix(), testUpgradeURL)
	result, err = svc2.Validate(context.Background(), "u1", plan.TierFree, testBrand(), &agent.Config{
		Name:      "Everything",
		ModelType: agent.ModelDual,
		Features:  []string{plan.FeatureVoiceEnabled},
	})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if result.Code != agent.CodeModelNotAllowed {
		t.Fatalf("expected model violation second, got %s", result.Code)
	}
}

func TestValidateFeatureNotAllowed(t *testing.T) {
	store := newMockStore()
	svc := NewAccessService(store, plan.DefaultMatrix(), testUpgradeURL)

	result, err := svc.Validate(context.Background(), "u1", plan.TierFree, testBrand(), &agent.Config{
		Name:      "Voice Agent",
		ModelType: agent.ModelGPT,
		Features:  []string{plan.FeatureVoiceEnabled},
	})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if result.OK || result.Code != agent.CodeFeatureNotAllowed {
		t.Fatalf("expected FEATURE_NOT_ALLOWED, got %+v", result)
	}
	if !result.UpgradeRequired {
		t.Fatal("expected upgradeRequired")
	}
}

func TestValidateBrandFeatureMismatch(t *testing.T) {
	store := newMockStore()
	svc := NewAccessService(store, plan.DefaultMatrix(), testUpgradeURL)

	restricted := &brand.Descriptor{
		ID:              "athena",
		Name:            "Athena",
		AllowedFeatures: []string{plan.FeatureScheduling},
	}
	result, err := svc.Validate(context.Background(), "u1", plan.TierEnterprise, restricted, &agent.Config{
		Name:      "Researcher",
		ModelType: agent.ModelGPT,
		Features:  []string{plan.FeatureWebResearch},
	})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if result.OK || result.Code != agent.CodeBrandFeatureMismatch {
		t.Fatalf("expected BRAND_FEATURE_MISMATCH, got %+v", result)
	}
	if result.UpgradeRequired {
		t.Fatal("brand mismatch is not a plan-limit failure; no upgrade pointer expected")
	}
}

func TestValidateComplianceWarningDoesNotBlock(t *testing.T) {
	store := newMockStore()
	svc := NewAccessService(store, plan.DefaultMatrix(), testUpgradeURL)

	regulated := &brand.Descriptor{
		ID:              "athena",
		Name:            "Athena",
		AllowedFeatures: []string{brand.FeatureAll},
		ComplianceTags:  []string{"HIPAA"},
	}
	result, err := svc.Validate(context.Background(), "u1", plan.TierPro, regulated, &agent.Config{
		Name:      "Clinic Helper",
		ModelType: agent.ModelGPT,
		Features:  []string{plan.FeatureScheduling},
	})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !result.OK {
		t.Fatalf("compliance mismatch must warn, not block: %+v", result)
	}
}
