package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saintvisionai/platform/internal/adapter/openai"
	"github.com/saintvisionai/platform/internal/adapter/ws"
	"github.com/saintvisionai/platform/internal/domain"
	"github.com/saintvisionai/platform/internal/domain/escalation"
	"github.com/saintvisionai/platform/internal/port/database"
	"github.com/saintvisionai/platform/internal/port/messagequeue"
)

// Resolution confidence thresholds for the senior handler.
const (
	resolveConfidence = 0.7 // above this (and can_resolve) the escalation closes
	humanConfidence   = 0.5 // below this a human always follows up
)

// seniorHandlerPrompt frames the senior-handler review call.
const seniorHandlerPrompt = `You are the senior escalation handler for a customer-facing AI platform.
Review the escalated conversation and decide whether you can resolve it yourself.
Always respond by calling the handle_escalation function.`

// ChatProvider runs chat completions for the senior handler.
type ChatProvider interface {
	ChatCompletion(ctx context.Context, req openai.ChatRequest) (*openai.ChatResponse, error)
}

// handlerVerdict is the structured function-call payload the senior handler
// model returns.
type handlerVerdict struct {
	CanResolve           bool    `json:"can_resolve"`
	ResolutionConfidence float64 `json:"resolution_confidence"`
	RequiresHuman        bool    `json:"requires_human"`
	Response             string  `json:"response"`
	NextSteps            string  `json:"next_steps,omitempty"`
}

// Outcome is the result of resolving an escalation.
type Outcome struct {
	Record        *escalation.Record `json:"record"`
	TicketCreated bool               `json:"ticket_created"`
}

// EscalationService creates escalation records and resolves them through the
// senior handler.
type EscalationService struct {
	store database.Store
	queue messagequeue.Queue
	hub   *ws.Hub
	chat  ChatProvider
	model string
}

// NewEscalationService creates a new EscalationService. chat may be nil, in
// which case every escalation takes the canned-response path.
func NewEscalationService(store database.Store, queue messagequeue.Queue, hub *ws.Hub, chat ChatProvider, model string) *EscalationService {
	return &EscalationService{store: store, queue: queue, hub: hub, chat: chat, model: model}
}

// Escalate records the escalation, runs the senior handler, and persists the
// outcome. The caller always gets a response, even on total provider failure.
func (s *EscalationService) Escalate(ctx context.Context, req *escalation.Request) (*Outcome, error) {
	if req.AgentID == "" || req.Message == "" {
		return nil, fmt.Errorf("agent_id and message are required: %w", domain.ErrValidation)
	}
	if req.Reason == "" {
		// Callers may omit the reason; classify from the message.
		decision := escalation.ShouldEscalate(req.Message)
		req.Reason = decision.Reason
		if !decision.Escalate {
			req.Reason = escalation.ReasonManualRequest
		}
	}
	if req.Urgency == "" {
		req.Urgency = escalation.UrgencyMedium
	}
	if !req.Reason.Valid() {
		return nil, fmt.Errorf("unknown escalation reason %q: %w", req.Reason, domain.ErrValidation)
	}
	if !req.Urgency.Valid() {
		return nil, fmt.Errorf("unknown escalation urgency %q: %w", req.Urgency, domain.ErrValidation)
	}

	now := time.Now().UTC()
	rec := &escalation.Record{
		ID:             uuid.NewString(),
		AgentID:        req.AgentID,
		ConversationID: req.ConversationID,
		UserID:         req.UserID,
		Reason:         req.Reason,
		Urgency:        req.Urgency,
		Message:        req.Message,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateEscalation(ctx, rec); err != nil {
		return nil, fmt.Errorf("create escalation: %w", err)
	}

	s.publishEvent(ctx, messagequeue.SubjectEscalationCreated, rec)
	s.notify(ctx, ws.EventEscalationOpened, rec, "")

	verdict := s.review(ctx, rec)

	rec.Response = verdict.Response
	rec.Resolved = verdict.CanResolve && verdict.ResolutionConfidence > resolveConfidence
	requiresHuman := verdict.RequiresHuman || verdict.ResolutionConfidence < humanConfidence

	ticketCreated := false
	if requiresHuman {
		ticket, err := s.openTicket(ctx, rec)
		if err != nil {
			return nil, err
		}
		if ticket != nil {
			rec.SupportTicketID = ticket.ID
			ticketCreated = true
		}
	}

	if err := s.store.UpdateEscalationOutcome(ctx, rec.ID, rec.Response, rec.Resolved, rec.SupportTicketID); err != nil {
		return nil, fmt.Errorf("record escalation outcome: %w", err)
	}

	s.publishEvent(ctx, messagequeue.SubjectEscalationClosed, rec)
	s.notify(ctx, ws.EventEscalationClosed, rec, rec.SupportTicketID)

	slog.Info("escalation handled",
		"escalation_id", rec.ID, "reason", rec.Reason, "resolved", rec.Resolved,
		"ticket_created", ticketCreated)
	return &Outcome{Record: rec, TicketCreated: ticketCreated}, nil
}

// Get returns an escalation by ID.
func (s *EscalationService) Get(ctx context.Context, id string) (*escalation.Record, error) {
	return s.store.GetEscalation(ctx, id)
}

// review asks the senior handler model for a structured verdict. Any failure
// (provider down, no function call, malformed arguments) degrades to the
// canned response for the reason, forcing human follow-up.
func (s *EscalationService) review(ctx context.Context, rec *escalation.Record) handlerVerdict {
	fallback := handlerVerdict{
		Response:      escalation.FallbackResponse(rec.Reason),
		RequiresHuman: true,
	}
	if s.chat == nil {
		return fallback
	}

	resp, err := s.chat.ChatCompletion(ctx, openai.ChatRequest{
		Model: s.model,
		Messages: []openai.ChatMessage{
			{Role: "system", Content: seniorHandlerPrompt},
			{Role: "user", Content: fmt.Sprintf("Reason: %s\nUrgency: %s\nMessage: %s", rec.Reason, rec.Urgency, rec.Message)},
		},
		Tools: []openai.Tool{{
			Type: "function",
			Function: openai.Function{
				Name:        "handle_escalation",
				Description: "Report the escalation verdict",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"can_resolve":           map[string]any{"type": "boolean"},
						"resolution_confidence": map[string]any{"type": "number"},
						"requires_human":        map[string]any{"type": "boolean"},
						"response":              map[string]any{"type": "string"},
						"next_steps":            map[string]any{"type": "string"},
					},
					"required": []string{"can_resolve", "resolution_confidence", "requires_human", "response"},
				},
			},
		}},
		ToolChoice: map[string]any{
			"type":     "function",
			"function": map[string]string{"name": "handle_escalation"},
		},
	})
	if err != nil {
		slog.Warn("senior handler call failed", "escalation_id", rec.ID, "error", err)
		return fallback
	}

	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) == 0 {
		slog.Warn("senior handler returned no function call", "escalation_id", rec.ID)
		return fallback
	}

	var verdict handlerVerdict
	if err := json.Unmarshal([]byte(calls[0].Function.Arguments), &verdict); err != nil {
		slog.Warn("senior handler arguments unparseable", "escalation_id", rec.ID, "error", err)
		return fallback
	}
	if verdict.Response == "" {
		verdict.Response = escalation.FallbackResponse(rec.Reason)
	}
	return verdict
}

// openTicket creates the support ticket for an escalation. The unique
// constraint on escalation_id makes this idempotent: a second attempt finds
// the conflict and reuses the existing reference.
func (s *EscalationService) openTicket(ctx context.Context, rec *escalation.Record) (*escalation.Ticket, error) {
	ticket := &escalation.Ticket{
		ID:           uuid.NewString(),
		EscalationID: rec.ID,
		AssignedTo:   escalation.SupportTeam,
		Priority:     escalation.TicketPriority(rec.Urgency),
		Summary:      summarize(rec.Message),
		CreatedAt:    time.Now().UTC(),
	}
	err := s.store.CreateTicket(ctx, ticket)
	if err == nil {
		return ticket, nil
	}
	if errors.Is(err, domain.ErrConflict) {
		slog.Info("ticket already exists for escalation", "escalation_id", rec.ID)
		return nil, nil
	}
	return nil, fmt.Errorf("create support ticket: %w", err)
}

func (s *EscalationService) publishEvent(ctx context.Context, subject string, rec *escalation.Record) {
	if s.queue == nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		slog.Error("marshal escalation event", "escalation_id", rec.ID, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.Error("publish escalation event", "subject", subject, "escalation_id", rec.ID, "error", err)
	}
}

func (s *EscalationService) notify(ctx context.Context, event string, rec *escalation.Record, ticketID string) {
	if s.hub == nil {
		return
	}
	s.hub.EventToUser(ctx, rec.UserID, event, ws.EscalationEvent{
		EscalationID: rec.ID,
		AgentID:      rec.AgentID,
		Reason:       string(rec.Reason),
		Resolved:     rec.Resolved,
		TicketID:     ticketID,
	})
}

const summaryLimit = 200

func summarize(message string) string {
	runes := []rune(message)
	if len(runes) <= summaryLimit {
		return message
	}
	return string(runes[:summaryLimit]) + "..."
}
