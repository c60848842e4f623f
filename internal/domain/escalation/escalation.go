// Package escalation defines escalation records and the pure decision
// procedures for escalating and routing inbound messages.
package escalation

import "time"

// Reason classifies why a conversation was escalated.
type Reason string

const (
	ReasonUserFrustration    Reason = "user_frustration"
	ReasonCapabilityExceeded Reason = "capability_exceeded"
	ReasonPolicyViolation    Reason = "policy_violation"
	ReasonManualRequest      Reason = "manual_request"
	ReasonTechnicalIssue     Reason = "technical_issue"
)

// Valid reports whether the reason is one of the closed set.
func (r Reason) Valid() bool {
	switch r {
	case ReasonUserFrustration, ReasonCapabilityExceeded, ReasonPolicyViolation,
		ReasonManualRequest, ReasonTechnicalIssue:
		return true
	}
	return false
}

// Urgency grades an escalation.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Valid reports whether the urgency is one of the closed set.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// SupportTeam is the only assignment target for support tickets. Escalations
// are never routed to individual principals.
const SupportTeam = "support_team"

// Request is the inbound escalation payload.
type Request struct {
	AgentID        string  `json:"agent_id"`
	ConversationID string  `json:"conversation_id"`
	UserID         string  `json:"user_id"`
	Reason         Reason  `json:"reason"`
	Urgency        Urgency `json:"urgency"`
	Message        string  `json:"message"`
}

// Record is the persisted escalation. Each record belongs to exactly one
// agent/conversation pair and is updated at most once with the senior-handler
// outcome.
type Record struct {
	ID              string    `json:"id"`
	AgentID         string    `json:"agent_id"`
	ConversationID  string    `json:"conversation_id"`
	UserID          string    `json:"user_id"`
	Reason          Reason    `json:"reason"`
	Urgency         Urgency   `json:"urgency"`
	Message         string    `json:"message"`
	Response        string    `json:"response,omitempty"`
	Resolved        bool      `json:"resolved"`
	SupportTicketID string    `json:"support_ticket_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Ticket is a support ticket spawned by an unresolved escalation.
// At most one ticket exists per escalation.
type Ticket struct {
	ID           string    `json:"id"`
	EscalationID string    `json:"escalation_id"`
	AssignedTo   string    `json:"assigned_to"` // always SupportTeam
	Priority     string    `json:"priority"`
	Summary      string    `json:"summary"`
	CreatedAt    time.Time `json:"created_at"`
}

// TicketPriority maps escalation urgency to ticket priority.
func TicketPriority(u Urgency) string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyMedium:
		return "medium"
	case UrgencyHigh:
		return "high"
	case UrgencyCritical:
		return "urgent"
	default:
		return "medium"
	}
}
