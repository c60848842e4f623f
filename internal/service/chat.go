package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/saintvisionai/platform/internal/adapter/azureai"
	"github.com/saintvisionai/platform/internal/adapter/openai"
	"github.com/saintvisionai/platform/internal/domain"
	"github.com/saintvisionai/platform/internal/domain/agent"
	"github.com/saintvisionai/platform/internal/domain/escalation"
	"github.com/saintvisionai/platform/internal/domain/plan"
	"github.com/saintvisionai/platform/internal/port/database"
)

// AzureProvider runs chat completions and text analytics against the
// cognitive-services deployment.
type AzureProvider interface {
	ChatCompletion(ctx context.Context, req azureai.ChatRequest) (*azureai.ChatResponse, error)
	AnalyzeText(ctx context.Context, text string) (*azureai.Analysis, error)
}

// ChatRequest is the inbound chat payload.
type ChatRequest struct {
	AgentID        string `json:"agent_id"`
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	Mode           string `json:"mode,omitempty"`
	// ModelType is accepted for wire compatibility; routing always follows
	// the persisted agent record.
	ModelType string `json:"model_type,omitempty"`
}

// ChatReply is the chat response envelope.
type ChatReply struct {
	Response     string       `json:"response"`
	Escalated    bool         `json:"escalated"`
	EscalationID string       `json:"escalation_id,omitempty"`
	Metadata     ChatMetadata `json:"metadata"`
}

// ChatMetadata carries routing and fusion details alongside the answer.
type ChatMetadata struct {
	Model         string  `json:"model"`
	RoutingReason string  `json:"routing_reason,omitempty"`
	FusionScore   float64 `json:"fusion_score,omitempty"`
	Consensus     bool    `json:"consensus,omitempty"`
	UsedSecondary bool    `json:"used_secondary,omitempty"`
}

// ChatService answers inbound messages, gating on the monthly quota and
// diverting trigger messages to the escalation path.
type ChatService struct {
	store       database.Store
	matrix      *plan.Matrix
	escalations *EscalationService
	gpt         ChatProvider
	azure       AzureProvider
	model       string
}

// NewChatService creates a new ChatService.
func NewChatService(store database.Store, matrix *plan.Matrix, escalations *EscalationService, gpt ChatProvider, azure AzureProvider, model string) *ChatService {
	return &ChatService{
		store:       store,
		matrix:      matrix,
		escalations: escalations,
		gpt:         gpt,
		azure:       azure,
		model:       model,
	}
}

// UsagePeriod returns the fixed-window usage key for a point in time.
func UsagePeriod(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Send handles one chat turn. Order matters: quota gate first, then the
// escalation check, then model routing.
func (s *ChatService) Send(ctx context.Context, userID string, tierID plan.TierID, req *ChatRequest) (*ChatReply, error) {
	if req.AgentID == "" || req.Message == "" {
		return nil, fmt.Errorf("agent_id and message are required: %w", domain.ErrValidation)
	}

	rec, err := s.store.GetAgent(ctx, req.AgentID)
	if err != nil {
		return nil, err
	}
	if rec.OwnerID != userID {
		return nil, fmt.Errorf("agent %s: %w", req.AgentID, domain.ErrNotFound)
	}
	if rec.Status != agent.StatusActive {
		return nil, fmt.Errorf("agent %s is %s: %w", req.AgentID, rec.Status, domain.ErrValidation)
	}

	tier := s.matrix.Get(tierID)
	if tier.MonthlyMessageQuota != plan.Unlimited {
		used, err := s.store.IncrementUsage(ctx, userID, UsagePeriod(time.Now()))
		if err != nil {
			return nil, fmt.Errorf("usage gate: %w", err)
		}
		if used > tier.MonthlyMessageQuota {
			return nil, fmt.Errorf("monthly message quota of %d exceeded on the %s plan: %w",
				tier.MonthlyMessageQuota, tier.ID, domain.ErrValidation)
		}
	}

	if decision := escalation.ShouldEscalate(req.Message); decision.Escalate {
		return s.escalate(ctx, userID, rec, req, decision.Reason)
	}

	if rec.Config.ModelType == agent.ModelDual {
		return s.sendDual(ctx, rec, req)
	}
	return s.sendSingle(ctx, rec, req)
}

// escalate diverts the message to the senior handler instead of answering.
func (s *ChatService) escalate(ctx context.Context, userID string, rec *agent.Record, req *ChatRequest, reason escalation.Reason) (*ChatReply, error) {
	outcome, err := s.escalations.Escalate(ctx, &escalation.Request{
		AgentID:        rec.ID,
		ConversationID: req.ConversationID,
		UserID:         userID,
		Reason:         reason,
		Urgency:        s.gradeUrgency(ctx, reason, req.Message),
		Message:        req.Message,
	})
	if err != nil {
		return nil, fmt.Errorf("escalate chat: %w", err)
	}
	return &ChatReply{
		Response:     outcome.Record.Response,
		Escalated:    true,
		EscalationID: outcome.Record.ID,
		Metadata:     ChatMetadata{Model: "senior_handler", RoutingReason: string(reason)},
	}, nil
}

// gradeUrgency upgrades frustration escalations to high urgency when the
// sentiment service reads the message as strongly negative. Analysis failures
// leave the default grade.
func (s *ChatService) gradeUrgency(ctx context.Context, reason escalation.Reason, message string) escalation.Urgency {
	if reason != escalation.ReasonUserFrustration || s.azure == nil {
		return escalation.UrgencyMedium
	}
	a, err := s.azure.AnalyzeText(ctx, message)
	if err != nil {
		slog.Warn("sentiment analysis failed", "error", err)
		return escalation.UrgencyMedium
	}
	if a.Sentiment == "negative" && a.Confidence > 0.8 {
		return escalation.UrgencyHigh
	}
	return escalation.UrgencyMedium
}

// sendSingle answers with the agent's configured model.
func (s *ChatService) sendSingle(ctx context.Context, rec *agent.Record, req *ChatRequest) (*ChatReply, error) {
	if rec.Config.ModelType == agent.ModelAzureCognitive {
		content, _, err := s.askAzure(ctx, rec, req.Message)
		if err != nil {
			return nil, err
		}
		return &ChatReply{Response: content, Metadata: ChatMetadata{Model: agent.ModelAzureCognitive}}, nil
	}

	content, _, err := s.askGPT(ctx, rec, req.Message)
	if err != nil {
		return nil, err
	}
	return &ChatReply{Response: content, Metadata: ChatMetadata{Model: agent.ModelGPT}}, nil
}

// sendDual routes through the decision table, invoking both models
// concurrently when the secondary participates, and reports the fusion score.
func (s *ChatService) sendDual(ctx context.Context, rec *agent.Record, req *ChatRequest) (*ChatReply, error) {
	route := escalation.RouteDualModel(req.Message, rec.Config.Skillset)

	if !route.UseSecondary {
		content, _, err := s.ask(ctx, rec, route.Primary, req.Message)
		if err != nil {
			return nil, err
		}
		return &ChatReply{
			Response: content,
			Metadata: ChatMetadata{Model: route.Primary, RoutingReason: route.Reason},
		}, nil
	}

	secondary := agent.ModelAzureCognitive
	if route.Primary == agent.ModelAzureCognitive {
		secondary = agent.ModelGPT
	}

	var (
		primaryContent, secondaryContent string
		primaryConf, secondaryConf       float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		primaryContent, primaryConf, err = s.ask(gctx, rec, route.Primary, req.Message)
		return err
	})
	g.Go(func() error {
		var err error
		secondaryContent, secondaryConf, err = s.ask(gctx, rec, secondary, req.Message)
		return err
	})
	if err := g.Wait(); err != nil {
		// Fall back to the primary alone before giving up.
		slog.Warn("dual invocation degraded", "agent_id", rec.ID, "error", err)
		content, _, ferr := s.ask(ctx, rec, route.Primary, req.Message)
		if ferr != nil {
			return nil, ferr
		}
		return &ChatReply{
			Response: content,
			Metadata: ChatMetadata{Model: route.Primary, RoutingReason: route.Reason},
		}, nil
	}

	score := escalation.FusionScore(primaryConf, secondaryConf)
	_ = secondaryContent // secondary output informs the score only

	return &ChatReply{
		Response: primaryContent,
		Metadata: ChatMetadata{
			Model:         route.Primary,
			RoutingReason: route.Reason,
			FusionScore:   score,
			Consensus:     escalation.Consensus(score),
			UsedSecondary: true,
		},
	}, nil
}

func (s *ChatService) ask(ctx context.Context, rec *agent.Record, model, message string) (string, float64, error) {
	if model == agent.ModelAzureCognitive {
		return s.askAzure(ctx, rec, message)
	}
	return s.askGPT(ctx, rec, message)
}

func (s *ChatService) askGPT(ctx context.Context, rec *agent.Record, message string) (string, float64, error) {
	if s.gpt == nil {
		return "", 0, fmt.Errorf("chat provider not configured")
	}
	resp, err := s.gpt.ChatCompletion(ctx, openai.ChatRequest{
		Model: s.model,
		Messages: []openai.ChatMessage{
			{Role: "system", Content: systemPrompt(rec)},
			{Role: "user", Content: message},
		},
	})
	if err != nil {
		return "", 0, fmt.Errorf("gpt completion: %w", err)
	}
	choice := resp.Choices[0]
	return choice.Message.Content, responseConfidence(choice.FinishReason, choice.Message.Content), nil
}

func (s *ChatService) askAzure(ctx context.Context, rec *agent.Record, message string) (string, float64, error) {
	if s.azure == nil {
		return "", 0, fmt.Errorf("azure provider not configured")
	}
	resp, err := s.azure.ChatCompletion(ctx, azureai.ChatRequest{
		Messages: []azureai.ChatMessage{
			{Role: "system", Content: systemPrompt(rec)},
			{Role: "user", Content: message},
		},
	})
	if err != nil {
		return "", 0, fmt.Errorf("azure completion: %w", err)
	}
	choice := resp.Choices[0]
	return choice.Message.Content, responseConfidence(choice.FinishReason, choice.Message.Content), nil
}

func systemPrompt(rec *agent.Record) string {
	return fmt.Sprintf("You are %s, an assistant with the %s skillset. Stay within your configured features.",
		rec.Config.Name, rec.Config.Skillset)
}

// responseConfidence grades a completion for the fusion score. A clean stop
// with substantive content scores high; truncation or filtering scores low.
func responseConfidence(finishReason, content string) float64 {
	switch {
	case content == "":
		return 0.1
	case finishReason == "stop":
		return 0.9
	case finishReason == "length":
		return 0.6
	default:
		return 0.4
	}
}
