package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/saintvisionai/platform/internal/domain"
	"github.com/saintvisionai/platform/internal/domain/agent"
	"github.com/saintvisionai/platform/internal/domain/plan"
)

func newAgentService(store *mockStore, assistants *mockAssistants, dns *mockDNS, voice *mockVoice, crm *mockCRM) *AgentService {
	access := NewAccessService(store, plan.DefaultMatrix(), testUpgradeURL)
	// Wrap typed-nil mocks as nil interfaces so the service's nil checks fire.
	var assistantsPort AssistantProvider
	if assistants != nil {
		assistantsPort = assistants
	}
	var dnsPort DNSProvider
	if dns != nil {
		dnsPort = dns
	}
	var voicePort VoiceProvider
	if voice != nil {
		voicePort = voice
	}
	var crmPort CRMRegistrar
	if crm != nil {
		crmPort = crm
	}
	return NewAgentService(store, nil, nil, access, assistantsPort, dnsPort, voicePort, crmPort, "saintvisionai.com", "gpt-4o")
}

func TestProvisionSingleModel(t *testing.T) {
	store := newMockStore()
	assistants := &mockAssistants{}
	dns := &mockDNS{}
	svc := newAgentService(store, assistants, dns, nil, nil)

	rec, result, err := svc.Provision(context.Background(), "u1", plan.TierFree, testBrand(), &agent.Config{
		Name:      "Sales Helper",
		ModelType: agent.ModelGPT,
		Features:  []string{plan.FeatureWebResearch},
	})
	if err != nil {
		t.Fatalf("Provision failed: %v", err)
	}
	if !result.OK {
		t.Fatalf("expected validation ok, got %+v", result)
	}
	if rec.Slug != "sales-helper" {
		t.Fatalf("unexpected slug: %q", rec.Slug)
	}
	if rec.Status != agent.StatusActive {
		t.Fatalf("expected active, got %s", rec.Status)
	}
	if rec.AccessURL != "https://sales-helper.saintvisionai.com/console" {
		t.Fatalf("unexpected access url: %q", rec.AccessURL)
	}
	if len(assistants.created) != 1 {
		t.Fatalf("expected 1 assistant, got %d", len(assistants.created))
	}
	if len(dns.records) != 1 || dns.records[0] != "sales-helper.saintvisionai.com" {
		t.Fatalf("unexpected dns records: %v", dns.records)
	}
}

func TestProvisionSlugConflictRetries(t *testing.T) {
	store := newMockStore()
	store.slugs["sales-helper"] = true
	store.slugs["sales-helper-1"] = true
	svc := newAgentService(store, &mockAssistants{}, nil, nil, nil)

	rec, _, err := svc.Provision(context.Background(), "u1", plan.TierFree, testBrand(), &agent.Config{
		Name:      "Sales Helper",
		ModelType: agent.ModelGPT,
	})
	if err != nil {
		t.Fatalf("Provision failed: %v", err)
	}
	if rec.Slug != "sales-helper-2" {
		t.Fatalf("expected sales-helper-2, got %q", rec.Slug)
	}
}

func TestProvisionValidationFailureCreatesNothing(t *testing.T) {
	store := newMockStore()
	assistants := &mockAssistants{}
	svc := newAgentService(store, assistants, nil, nil, nil)

	rec, result, err := svc.Provision(context.Background(), "u1", plan.TierFree, testBrand(), &agent.Config{
		Name:      "Voice Agent",
		ModelType: agent.ModelGPT,
		Features:  []string{plan.FeatureVoiceEnabled},
	})
	if err != nil {
		t.Fatalf("Provision failed: %v", err)
	}
	if rec != nil {
		t.Fatal("expected no record on validation failure")
	}
	if result.OK || !result.UpgradeRequired {
		t.Fatalf("expected upgrade-required denial, got %+v", result)
	}
	if len(store.agents) != 0 || len(assistants.created) != 0 {
		t.Fatal("validation failure must not create anything")
	}
}

func TestProvisionShortSubdomainRejectedBeforeDNS(t *testing.T) {
	store := newMockStore()
	dns := &mockDNS{}
	svc := newAgentService(store, &mockAssistants{}, dns, nil, nil)

	_, _, err := svc.Provision(context.Background(), "u1", plan.TierFree, testBrand(), &agent.Config{
		Name:      "ab",
		ModelType: agent.ModelGPT,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(dns.records) != 0 {
		t.Fatal("DNS must not be called for an invalid subdomain")
	}
	if len(store.agents) != 0 {
		t.Fatal("no record should be persisted for an invalid subdomain")
	}
}

func TestProvisionFailureMarksRecordFailed(t *testing.T) {
	store := newMockStore()
	assistants := &mockAssistants{createErr: fmt.Errorf("provider down")}
	svc := newAgentService(store, assistants, nil, nil, nil)

	_, _, err := svc.Provision(context.Background(), "u1", plan.TierFree, testBrand(), &agent.Config{
		Name:      "Doomed",
		ModelType: agent.ModelGPT,
	})
	if err == nil {
		t.Fatal("expected provisioning error")
	}
	if !strings.Contains(err.Error(), "assistant_creation") {
		t.Fatalf("error should name the failed step: %v", err)
	}

	var failed *agent.Record
	for _, rec := range store.agents {
		failed = rec
	}
	if failed == nil {
		t.Fatal("record should exist in failed state")
	}
	if failed.Status != agent.StatusFailed || failed.FailedStep != "assistant_creation" {
		t.Fatalf("expected failed/assistant_creation, got %s/%s", failed.Status, failed.FailedStep)
	}
}

func TestProvisionDualCompensatesAssistant(t *testing.T) {
	store := newMockStore()
	store.createRouteErr = fmt.Errorf("db down")
	assistants := &mockAssistants{}
	svc := newAgentService(store, assistants, nil, nil, nil)

	_, _, err := svc.Provision(context.Background(), "u1", plan.TierEnterprise, testBrand(), &agent.Config{
		Name:      "Dual Agent",
		ModelType: agent.ModelDual,
	})
	if err == nil {
		t.Fatal("expected provisioning error")
	}
	if len(assistants.created) != 1 {
		t.Fatalf("expected assistant created before route failure, got %d", len(assistants.created))
	}
	if len(assistants.deleted) != 1 {
		t.Fatalf("expected compensation to delete the assistant, got %d deletions", len(assistants.deleted))
	}
}

func TestProvisionDualWritesRoute(t *testing.T) {
	store := newMockStore()
	svc := newAgentService(store, &mockAssistants{}, nil, nil, nil)

	rec, _, err := svc.Provision(context.Background(), "u1", plan.TierEnterprise, testBrand(), &agent.Config{
		Name:      "Dual Agent",
		ModelType: agent.ModelDual,
	})
	if err != nil {
		t.Fatalf("Provision failed: %v", err)
	}

	route, err := store.GetAgentRoute(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("route not written: %v", err)
	}
	if route.Primary != agent.ModelGPT || route.Secondary != agent.ModelAzureCognitive {
		t.Fatalf("unexpected route: %+v", route)
	}
	if route.EscalationTarget != "senior_handler" {
		t.Fatalf("unexpected escalation target: %q", route.EscalationTarget)
	}
}

func TestProvisionVoiceAndCRMRegistrations(t *testing.T) {
	store := newMockStore()
	voice := &mockVoice{}
	crm := &mockCRM{}
	svc := newAgentService(store, &mockAssistants{}, nil, voice, crm)

	_, _, err := svc.Provision(context.Background(), "u1", plan.TierEnterprise, testBrand(), &agent.Config{
		Name:      "Full Stack",
		ModelType: agent.ModelGPT,
		Features:  []string{plan.FeatureVoiceEnabled, plan.FeatureCRMRouting},
	})
	if err != nil {
		t.Fatalf("Provision failed: %v", err)
	}
	if len(voice.provisioned) != 1 {
		t.Fatalf("expected voice provisioning, got %d", len(voice.provisioned))
	}
	if len(crm.contacts) != 1 {
		t.Fatalf("expected crm registration, got %d", len(crm.contacts))
	}
}

func TestProvisionDNSFailureIsBestEffort(t *testing.T) {
	store := newMockStore()
	dns := &mockDNS{err: fmt.Errorf("zone unavailable")}
	svc := newAgentService(store, &mockAssistants{}, dns, nil, nil)

	rec, _, err := svc.Provision(context.Background(), "u1", plan.TierFree, testBrand(), &agent.Config{
		Name:      "Resilient",
		ModelType: agent.ModelGPT,
	})
	if err != nil {
		t.Fatalf("DNS failure must not fail provisioning: %v", err)
	}
	if rec.Status != agent.StatusActive {
		t.Fatalf("expected active despite DNS failure, got %s", rec.Status)
	}
}

func TestGetScopedToOwner(t *testing.T) {
	store := newMockStore()
	svc := newAgentService(store, &mockAssistants{}, nil, nil, nil)

	rec, _, err := svc.Provision(context.Background(), "u1", plan.TierFree, testBrand(), &agent.Config{
		Name:      "Private",
		ModelType: agent.ModelGPT,
	})
	if err != nil {
		t.Fatalf("Provision failed: %v", err)
	}

	if _, err := svc.Get(context.Background(), "u2", false, rec.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found for foreign owner, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "internal", true, rec.ID); err != nil {
		t.Fatalf("service principal should read any agent: %v", err)
	}
}
