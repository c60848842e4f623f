// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/saintvisionai/platform/internal/domain/agent"
	"github.com/saintvisionai/platform/internal/domain/billing"
	"github.com/saintvisionai/platform/internal/domain/escalation"
)

// Store is the port interface for database operations.
type Store interface {
	// Agents
	CreateAgent(ctx context.Context, rec *agent.Record) error
	GetAgent(ctx context.Context, id string) (*agent.Record, error)
	ListAgentsByOwner(ctx context.Context, ownerID string) ([]agent.Record, error)
	CountAgentsByOwner(ctx context.Context, ownerID string) (int, error)
	UpdateAgentStatus(ctx context.Context, id string, status agent.Status, failedStep string) error
	SetOwnerAgentsStatus(ctx context.Context, ownerID string, from, to agent.Status) (int, error)
	CreateAgentRoute(ctx context.Context, route *agent.Route) error
	GetAgentRoute(ctx context.Context, agentID string) (*agent.Route, error)

	// Escalations
	CreateEscalation(ctx context.Context, rec *escalation.Record) error
	GetEscalation(ctx context.Context, id string) (*escalation.Record, error)
	UpdateEscalationOutcome(ctx context.Context, id, response string, resolved bool, ticketID string) error
	CreateTicket(ctx context.Context, ticket *escalation.Ticket) error

	// Subscriptions
	GetSubscriptionByUser(ctx context.Context, userID string) (*billing.Subscription, error)
	UpsertSubscription(ctx context.Context, sub *billing.Subscription) error

	// Usage counters (fixed monthly window)
	IncrementUsage(ctx context.Context, userID, period string) (int, error)
	GetUsage(ctx context.Context, userID, period string) (int, error)
}
