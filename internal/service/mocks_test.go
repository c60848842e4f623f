package service

import (
	"context"
	"fmt"

	"github.com/saintvisionai/platform/internal/adapter/azureai"
	"github.com/saintvisionai/platform/internal/adapter/cloudflare"
	"github.com/saintvisionai/platform/internal/adapter/openai"
	"github.com/saintvisionai/platform/internal/adapter/twilio"
	"github.com/saintvisionai/platform/internal/domain"
	"github.com/saintvisionai/platform/internal/domain/agent"
	"github.com/saintvisionai/platform/internal/domain/billing"
	"github.com/saintvisionai/platform/internal/domain/escalation"
)

// mockStore is an in-memory database.Store with the same uniqueness rules as
// the real schema: unique agent slugs, one ticket per escalation.
type mockStore struct {
	agents      map[string]*agent.Record
	slugs       map[string]bool
	routes      map[string]*agent.Route
	escalations map[string]*escalation.Record
	tickets     map[string]*escalation.Ticket // keyed by escalation ID
	subs        map[string]*billing.Subscription
	usage       map[string]int

	createAgentErr error
	createRouteErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		agents:      make(map[string]*agent.Record),
		slugs:       make(map[string]bool),
		routes:      make(map[string]*agent.Route),
		escalations: make(map[string]*escalation.Record),
		tickets:     make(map[string]*escalation.Ticket),
		subs:        make(map[string]*billing.Subscription),
		usage:       make(map[string]int),
	}
}

func (m *mockStore) CreateAgent(_ context.Context, rec *agent.Record) error {
	if m.createAgentErr != nil {
		return m.createAgentErr
	}
	if m.slugs[rec.Slug] {
		return fmt.Errorf("create agent %s: %w", rec.Slug, domain.ErrConflict)
	}
	cp := *rec
	m.agents[rec.ID] = &cp
	m.slugs[rec.Slug] = true
	return nil
}

func (m *mockStore) GetAgent(_ context.Context, id string) (*agent.Record, error) {
	rec, ok := m.agents[id]
	if !ok {
		return nil, fmt.Errorf("get agent %s: %w", id, domain.ErrNotFound)
	}
	cp := *rec
	return &cp, nil
}

func (m *mockStore) ListAgentsByOwner(_ context.Context, ownerID string) ([]agent.Record, error) {
	var recs []agent.Record
	for _, rec := range m.agents {
		if rec.OwnerID == ownerID {
			recs = append(recs, *rec)
		}
	}
	return recs, nil
}

func (m *mockStore) CountAgentsByOwner(_ context.Context, ownerID string) (int, error) {
	n := 0
	for _, rec := range m.agents {
		if rec.OwnerID == ownerID && rec.Status != agent.StatusFailed {
			n++
		}
	}
	return n, nil
}

func (m *mockStore) UpdateAgentStatus(_ context.Context, id string, status agent.Status, failedStep string) error {
	rec, ok := m.agents[id]
	if !ok {
		return fmt.Errorf("update agent %s: %w", id, domain.ErrNotFound)
	}
	rec.Status = status
	rec.FailedStep = failedStep
	return nil
}

func (m *mockStore) SetOwnerAgentsStatus(_ context.Context, ownerID string, from, to agent.Status) (int, error) {
	n := 0
	for _, rec := range m.agents {
		if rec.OwnerID == ownerID && rec.Status == from {
			rec.Status = to
			n++
		}
	}
	return n, nil
}

func (m *mockStore) CreateAgentRoute(_ context.Context, route *agent.Route) error {
	if m.createRouteErr != nil {
		return m.createRouteErr
	}
	cp := *route
	m.routes[route.AgentID] = &cp
	return nil
}

func (m *mockStore) GetAgentRoute(_ context.Context, agentID string) (*agent.Route, error) {
	route, ok := m.routes[agentID]
	if !ok {
		return nil, fmt.Errorf("get route %s: %w", agentID, domain.ErrNotFound)
	}
	cp := *route
	return &cp, nil
}

func (m *mockStore) CreateEscalation(_ context.Context, rec *escalation.Record) error {
	cp := *rec
	m.escalations[rec.ID] = &cp
	return nil
}

func (m *mockStore) GetEscalation(_ context.Context, id string) (*escalation.Record, error) {
	rec, ok := m.escalations[id]
	if !ok {
		return nil, fmt.Errorf("get escalation %s: %w", id, domain.ErrNotFound)
	}
	cp := *rec
	return &cp, nil
}

func (m *mockStore) UpdateEscalationOutcome(_ context.Context, id, response string, resolved bool, ticketID string) error {
	rec, ok := m.escalations[id]
	if !ok {
		return fmt.Errorf("update escalation %s: %w", id, domain.ErrNotFound)
	}
	rec.Response = response
	rec.Resolved = resolved
	rec.SupportTicketID = ticketID
	return nil
}

func (m *mockStore) CreateTicket(_ context.Context, ticket *escalation.Ticket) error {
	if _, exists := m.tickets[ticket.EscalationID]; exists {
		return fmt.Errorf("create ticket: %w", domain.ErrConflict)
	}
	cp := *ticket
	m.tickets[ticket.EscalationID] = &cp
	return nil
}

func (m *mockStore) GetSubscriptionByUser(_ context.Context, userID string) (*billing.Subscription, error) {
	sub, ok := m.subs[userID]
	if !ok {
		return nil, fmt.Errorf("get subscription %s: %w", userID, domain.ErrNotFound)
	}
	cp := *sub
	return &cp, nil
}

func (m *mockStore) UpsertSubscription(_ context.Context, sub *billing.Subscription) error {
	cp := *sub
	m.subs[sub.UserID] = &cp
	return nil
}

func (m *mockStore) IncrementUsage(_ context.Context, userID, period string) (int, error) {
	m.usage[userID+"/"+period]++
	return m.usage[userID+"/"+period], nil
}

func (m *mockStore) GetUsage(_ context.Context, userID, period string) (int, error) {
	return m.usage[userID+"/"+period], nil
}

// mockAssistants records assistant lifecycle calls.
type mockAssistants struct {
	created   []string
	deleted   []string
	createErr error
}

func (m *mockAssistants) CreateAssistant(_ context.Context, req openai.CreateAssistantRequest) (*openai.Assistant, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	id := fmt.Sprintf("asst-%d", len(m.created)+1)
	m.created = append(m.created, req.Name)
	return &openai.Assistant{ID: id, Name: req.Name, Model: req.Model}, nil
}

func (m *mockAssistants) DeleteAssistant(_ context.Context, assistantID string) error {
	m.deleted = append(m.deleted, assistantID)
	return nil
}

// mockDNS records DNS registrations.
type mockDNS struct {
	records []string
	err     error
}

func (m *mockDNS) CreateRecord(_ context.Context, rec cloudflare.Record) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.records = append(m.records, rec.Name)
	return fmt.Sprintf("dns-%d", len(m.records)), nil
}

func (m *mockDNS) DeleteRecord(_ context.Context, _ string) error { return nil }

// mockVoice records number provisioning.
type mockVoice struct {
	provisioned []string
}

func (m *mockVoice) ProvisionNumber(_ context.Context, _, voiceURL string) (*twilio.Number, error) {
	m.provisioned = append(m.provisioned, voiceURL)
	return &twilio.Number{SID: "PN1", PhoneNumber: "+15550100"}, nil
}

func (m *mockVoice) ReleaseNumber(_ context.Context, _ string) error { return nil }

// mockCRM records contact upserts.
type mockCRM struct {
	contacts []Contact
}

func (m *mockCRM) UpsertContact(_ context.Context, contact Contact) (string, error) {
	m.contacts = append(m.contacts, contact)
	return fmt.Sprintf("contact-%d", len(m.contacts)), nil
}

// mockChat returns a scripted chat completion.
type mockChat struct {
	content      string
	finishReason string
	toolArgs     string // when set, the response is a handle_escalation call
	err          error
	calls        int
}

func (m *mockChat) ChatCompletion(_ context.Context, _ openai.ChatRequest) (*openai.ChatResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	resp := &openai.ChatResponse{ID: "chatcmpl-test"}
	finish := m.finishReason
	if finish == "" {
		finish = "stop"
	}
	choice := struct {
		Message      openai.ChatMessage `json:"message"`
		FinishReason string             `json:"finish_reason"`
	}{
		Message:      openai.ChatMessage{Role: "assistant", Content: m.content},
		FinishReason: finish,
	}
	if m.toolArgs != "" {
		call := openai.ToolCall{ID: "call-1", Type: "function"}
		call.Function.Name = "handle_escalation"
		call.Function.Arguments = m.toolArgs
		choice.Message.ToolCalls = []openai.ToolCall{call}
		choice.FinishReason = "tool_calls"
	}
	resp.Choices = append(resp.Choices, choice)
	return resp, nil
}

// mockAzure returns a scripted Azure chat completion and sentiment verdict.
type mockAzure struct {
	content      string
	finishReason string
	err          error
	calls        int

	sentiment           string
	sentimentConfidence float64
	analyzeErr          error
	analyzeCalls        int
}

func (m *mockAzure) ChatCompletion(_ context.Context, _ azureai.ChatRequest) (*azureai.ChatResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	finish := m.finishReason
	if finish == "" {
		finish = "stop"
	}
	resp := &azureai.ChatResponse{ID: "azure-test"}
	resp.Choices = append(resp.Choices, struct {
		Message      azureai.ChatMessage `json:"message"`
		FinishReason string              `json:"finish_reason"`
	}{
		Message:      azureai.ChatMessage{Role: "assistant", Content: m.content},
		FinishReason: finish,
	})
	return resp, nil
}

func (m *mockAzure) AnalyzeText(_ context.Context, _ string) (*azureai.Analysis, error) {
	m.analyzeCalls++
	if m.analyzeErr != nil {
		return nil, m.analyzeErr
	}
	sentiment := m.sentiment
	if sentiment == "" {
		sentiment = "neutral"
	}
	return &azureai.Analysis{Sentiment: sentiment, Confidence: m.sentimentConfidence}, nil
}
