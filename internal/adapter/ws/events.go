package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventAgentStatus      = "agent.status"
	EventEscalationOpened = "escalation.opened"
	EventEscalationClosed = "escalation.closed"
)

// AgentStatusEvent is broadcast as an agent moves through its provisioning
// lifecycle.
type AgentStatusEvent struct {
	AgentID    string `json:"agent_id"`
	Slug       string `json:"slug"`
	Status     string `json:"status"`
	FailedStep string `json:"failed_step,omitempty"`
}

// EscalationEvent is broadcast when an escalation opens or closes.
type EscalationEvent struct {
	EscalationID string `json:"escalation_id"`
	AgentID      string `json:"agent_id"`
	Reason       string `json:"reason"`
	Resolved     bool   `json:"resolved"`
	TicketID     string `json:"ticket_id,omitempty"`
}

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}

// EventToUser marshals a typed event and sends it only to one user's connections.
func (h *Hub) EventToUser(ctx context.Context, userID, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.BroadcastToUser(ctx, userID, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
