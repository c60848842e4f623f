// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a single message. Returning an error NAKs the message.
type Handler func(subject string, data []byte) error

// Queue is the port interface for the platform event stream.
type Queue interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)
	Close() error
}

// Subjects published by the platform.
const (
	SubjectAgentProvisioned  = "agents.provisioned"
	SubjectAgentFailed       = "agents.failed"
	SubjectAgentSuspended    = "agents.suspended"
	SubjectAgentReactivated  = "agents.reactivated"
	SubjectEscalationCreated = "escalations.created"
	SubjectEscalationClosed  = "escalations.closed"
	SubjectBillingChanged    = "billing.changed"
)
