package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saintvisionai/platform/internal/adapter/cloudflare"
	"github.com/saintvisionai/platform/internal/adapter/openai"
	"github.com/saintvisionai/platform/internal/adapter/twilio"
	"github.com/saintvisionai/platform/internal/adapter/ws"
	"github.com/saintvisionai/platform/internal/domain"
	"github.com/saintvisionai/platform/internal/domain/agent"
	"github.com/saintvisionai/platform/internal/domain/brand"
	"github.com/saintvisionai/platform/internal/domain/plan"
	"github.com/saintvisionai/platform/internal/port/database"
	"github.com/saintvisionai/platform/internal/port/messagequeue"
)

// slugAttempts bounds how many suffixed slugs we try when the unique
// constraint rejects an insert.
const slugAttempts = 10

// AssistantProvider provisions and tears down chat-assistant resources.
type AssistantProvider interface {
	CreateAssistant(ctx context.Context, req openai.CreateAssistantRequest) (*openai.Assistant, error)
	DeleteAssistant(ctx context.Context, assistantID string) error
}

// DNSProvider registers agent subdomains.
type DNSProvider interface {
	CreateRecord(ctx context.Context, rec cloudflare.Record) (string, error)
	DeleteRecord(ctx context.Context, recordID string) error
}

// VoiceProvider provisions phone numbers for voice-enabled agents.
type VoiceProvider interface {
	ProvisionNumber(ctx context.Context, areaCode, voiceURL string) (*twilio.Number, error)
	ReleaseNumber(ctx context.Context, sid string) error
}

// CRMRegistrar registers agent contacts in the CRM.
type CRMRegistrar interface {
	UpsertContact(ctx context.Context, contact Contact) (string, error)
}

// Contact mirrors the CRM contact payload without binding the service layer
// to a concrete CRM client.
type Contact struct {
	Email string
	Name  string
	Tags  []string
}

// AgentService runs the agent provisioning saga.
type AgentService struct {
	store      database.Store
	queue      messagequeue.Queue
	hub        *ws.Hub
	access     *AccessService
	assistants AssistantProvider
	dns        DNSProvider
	voice      VoiceProvider
	crm        CRMRegistrar
	domain     string // apex domain agent subdomains hang off
	model      string // underlying chat model for provisioned assistants
}

// NewAgentService creates a new AgentService. dns, voice, and crm may be nil
// when the corresponding integration is not configured; their registration
// steps are skipped.
func NewAgentService(
	store database.Store,
	queue messagequeue.Queue,
	hub *ws.Hub,
	access *AccessService,
	assistants AssistantProvider,
	dns DNSProvider,
	voice VoiceProvider,
	crm CRMRegistrar,
	platformDomain, model string,
) *AgentService {
	return &AgentService{
		store:      store,
		queue:      queue,
		hub:        hub,
		access:     access,
		assistants: assistants,
		dns:        dns,
		voice:      voice,
		crm:        crm,
		domain:     platformDomain,
		model:      model,
	}
}

// Provision validates the config and runs the provisioning saga. A validation
// failure is returned in the result with no record created. A failed
// provisioning step leaves the record in status failed with the step name
// recorded, after compensating already-created external resources.
func (s *AgentService) Provision(ctx context.Context, userID string, tierID plan.TierID, b *brand.Descriptor, cfg *agent.Config) (*agent.Record, *agent.ValidationResult, error) {
	if cfg.Name == "" {
		return nil, nil, fmt.Errorf("agent name is required: %w", domain.ErrValidation)
	}

	result, err := s.access.Validate(ctx, userID, tierID, b, cfg)
	if err != nil {
		return nil, nil, err
	}
	if !result.OK {
		return nil, result, nil
	}

	base := agent.Slugify(cfg.Name)
	if err := agent.ValidateSubdomain(base); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", err, domain.ErrValidation)
	}

	now := time.Now().UTC()
	rec := &agent.Record{
		ID:        uuid.NewString(),
		OwnerID:   userID,
		BrandID:   b.ID,
		Config:    *cfg,
		Status:    agent.StatusProvisioning,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The unique constraint on slug is the arbiter. Each conflict bumps the
	// suffix and retries the insert.
	inserted := false
	for attempt := 0; attempt < slugAttempts; attempt++ {
		rec.Slug = agent.NextSlug(base, attempt)
		err := s.store.CreateAgent(ctx, rec)
		if err == nil {
			inserted = true
			break
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, nil, fmt.Errorf("insert agent: %w", err)
		}
	}
	if !inserted {
		return nil, nil, fmt.Errorf("no free slug for %q after %d attempts: %w", base, slugAttempts, domain.ErrConflict)
	}

	rec.AccessURL = fmt.Sprintf("https://%s.%s/console", rec.Slug, s.domain)

	if err := s.provisionModel(ctx, rec); err != nil {
		return nil, nil, err
	}

	// Subdomain, voice, and CRM registrations are independent and
	// best-effort; a failure here does not roll back the agent.
	s.registerSubdomain(ctx, rec)
	if cfg.HasFeature(plan.FeatureVoiceEnabled) {
		s.registerVoice(ctx, rec)
	}
	if cfg.HasFeature(plan.FeatureCRMRouting) {
		s.registerCRM(ctx, rec)
	}

	if err := s.store.UpdateAgentStatus(ctx, rec.ID, agent.StatusActive, ""); err != nil {
		return nil, nil, fmt.Errorf("activate agent: %w", err)
	}
	rec.Status = agent.StatusActive

	s.publish(ctx, messagequeue.SubjectAgentProvisioned, rec)
	s.notify(ctx, rec)

	slog.Info("agent provisioned",
		"agent_id", rec.ID, "slug", rec.Slug, "model_type", cfg.ModelType, "brand_id", b.ID)
	return rec, result, nil
}

// provisionModel dispatches to the strategy for the agent's model type and
// compensates on failure.
func (s *AgentService) provisionModel(ctx context.Context, rec *agent.Record) error {
	switch rec.Config.ModelType {
	case agent.ModelGPT:
		if _, err := s.createAssistant(ctx, rec); err != nil {
			return s.fail(ctx, rec, "assistant_creation", err, "")
		}

	case agent.ModelAzureCognitive:
		// Azure bots bind lazily on first chat; only the routing row is
		// written here.
		route := &agent.Route{
			AgentID:          rec.ID,
			Primary:          agent.ModelAzureCognitive,
			Secondary:        agent.ModelGPT,
			Fallback:         agent.ModelGPT,
			EscalationTarget: "senior_handler",
		}
		if err := s.store.CreateAgentRoute(ctx, route); err != nil {
			return s.fail(ctx, rec, "route_creation", err, "")
		}

	case agent.ModelDual:
		asst, err := s.createAssistant(ctx, rec)
		if err != nil {
			return s.fail(ctx, rec, "assistant_creation", err, "")
		}
		route := &agent.Route{
			AgentID:          rec.ID,
			Primary:          agent.ModelGPT,
			Secondary:        agent.ModelAzureCognitive,
			Fallback:         agent.ModelGPT,
			EscalationTarget: "senior_handler",
		}
		if err := s.store.CreateAgentRoute(ctx, route); err != nil {
			return s.fail(ctx, rec, "route_creation", err, asst)
		}

	default:
		err := fmt.Errorf("unknown model type %q: %w", rec.Config.ModelType, domain.ErrValidation)
		return s.fail(ctx, rec, "model_dispatch", err, "")
	}
	return nil
}

func (s *AgentService) createAssistant(ctx context.Context, rec *agent.Record) (string, error) {
	if s.assistants == nil {
		return "", nil
	}
	asst, err := s.assistants.CreateAssistant(ctx, openai.CreateAssistantRequest{
		Name:  rec.Slug,
		Model: s.model,
		Instructions: fmt.Sprintf("You are %s. Skillset: %s. Features: %s.",
			rec.Config.Name, rec.Config.Skillset, jsonTags(rec.Config.Features)),
	})
	if err != nil {
		return "", err
	}
	return asst.ID, nil
}

// fail compensates created external resources, marks the record failed with
// the step name, and publishes the failure event.
func (s *AgentService) fail(ctx context.Context, rec *agent.Record, step string, cause error, assistantID string) error {
	slog.Error("provisioning step failed",
		"agent_id", rec.ID, "step", step, "error", cause)

	if assistantID != "" && s.assistants != nil {
		if err := s.assistants.DeleteAssistant(ctx, assistantID); err != nil {
			slog.Error("compensation failed", "agent_id", rec.ID, "assistant_id", assistantID, "error", err)
		}
	}

	if err := s.store.UpdateAgentStatus(ctx, rec.ID, agent.StatusFailed, step); err != nil {
		slog.Error("mark agent failed", "agent_id", rec.ID, "error", err)
	}
	rec.Status = agent.StatusFailed
	rec.FailedStep = step

	s.publish(ctx, messagequeue.SubjectAgentFailed, rec)
	s.notify(ctx, rec)

	return fmt.Errorf("provisioning step %s: %w", step, cause)
}

func (s *AgentService) registerSubdomain(ctx context.Context, rec *agent.Record) {
	if s.dns == nil {
		return
	}
	_, err := s.dns.CreateRecord(ctx, cloudflare.Record{
		Type:    "CNAME",
		Name:    rec.Slug + "." + s.domain,
		Content: s.domain,
		TTL:     300,
		Proxied: true,
	})
	if err != nil {
		slog.Warn("subdomain registration failed", "agent_id", rec.ID, "slug", rec.Slug, "error", err)
	}
}

func (s *AgentService) registerVoice(ctx context.Context, rec *agent.Record) {
	if s.voice == nil {
		return
	}
	voiceURL := fmt.Sprintf("https://%s.%s/voice", rec.Slug, s.domain)
	if _, err := s.voice.ProvisionNumber(ctx, "", voiceURL); err != nil {
		slog.Warn("voice provisioning failed", "agent_id", rec.ID, "error", err)
	}
}

func (s *AgentService) registerCRM(ctx context.Context, rec *agent.Record) {
	if s.crm == nil {
		return
	}
	_, err := s.crm.UpsertContact(ctx, Contact{
		Name: rec.Config.Name,
		Tags: []string{"agent", rec.BrandID, rec.Slug},
	})
	if err != nil {
		slog.Warn("crm registration failed", "agent_id", rec.ID, "error", err)
	}
}

// Get returns an agent by ID, scoped to its owner. Service principals may
// read any agent.
func (s *AgentService) Get(ctx context.Context, userID string, isService bool, agentID string) (*agent.Record, error) {
	rec, err := s.store.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if !isService && rec.OwnerID != userID {
		return nil, fmt.Errorf("agent %s: %w", agentID, domain.ErrNotFound)
	}
	return rec, nil
}

// List returns all agents owned by the user.
func (s *AgentService) List(ctx context.Context, userID string) ([]agent.Record, error) {
	return s.store.ListAgentsByOwner(ctx, userID)
}

func (s *AgentService) publish(ctx context.Context, subject string, rec *agent.Record) {
	if s.queue == nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		slog.Error("marshal agent event", "agent_id", rec.ID, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.Error("publish agent event", "subject", subject, "agent_id", rec.ID, "error", err)
	}
}

func (s *AgentService) notify(ctx context.Context, rec *agent.Record) {
	if s.hub == nil {
		return
	}
	s.hub.EventToUser(ctx, rec.OwnerID, ws.EventAgentStatus, ws.AgentStatusEvent{
		AgentID:    rec.ID,
		Slug:       rec.Slug,
		Status:     string(rec.Status),
		FailedStep: rec.FailedStep,
	})
}

func jsonTags(tags []string) string {
	data, _ := json.Marshal(tags)
	return string(data)
}
