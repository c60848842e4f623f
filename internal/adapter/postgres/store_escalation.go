package postgres

import (
	"context"

	"github.com/saintvisionai/platform/internal/domain/escalation"
)

// CreateEscalation inserts a new escalation record.
func (s *Store) CreateEscalation(ctx context.Context, rec *escalation.Record) error {
	const query = `
		INSERT INTO escalations (id, agent_id, conversation_id, user_id, reason,
			urgency, message, response, resolved, support_ticket_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.AgentID, rec.ConversationID, rec.UserID, rec.Reason,
		rec.Urgency, rec.Message, rec.Response, rec.Resolved, rec.SupportTicketID,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return conflictWrap(err, "create escalation %s", rec.ID)
	}
	return nil
}

// GetEscalation fetches an escalation by ID.
func (s *Store) GetEscalation(ctx context.Context, id string) (*escalation.Record, error) {
	const query = `
		SELECT id, agent_id, conversation_id, user_id, reason, urgency, message,
			response, resolved, support_ticket_id, created_at, updated_at
		FROM escalations WHERE id = $1`

	var rec escalation.Record
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.AgentID, &rec.ConversationID, &rec.UserID, &rec.Reason,
		&rec.Urgency, &rec.Message, &rec.Response, &rec.Resolved,
		&rec.SupportTicketID, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, notFoundWrap(err, "get escalation %s", id)
	}
	return &rec, nil
}

// UpdateEscalationOutcome records the senior-handler outcome. ticketID is ""
// when the escalation resolved without spawning a ticket.
func (s *Store) UpdateEscalationOutcome(ctx context.Context, id, response string, resolved bool, ticketID string) error {
	const query = `
		UPDATE escalations
		SET response = $2, resolved = $3, support_ticket_id = $4, updated_at = now()
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id, response, resolved, ticketID)
	return execExpectOne(tag, err, "update escalation %s outcome", id)
}

// CreateTicket inserts a support ticket. The unique constraint on
// escalation_id guarantees at most one ticket per escalation; a second insert
// returns domain.ErrConflict.
func (s *Store) CreateTicket(ctx context.Context, ticket *escalation.Ticket) error {
	const query = `
		INSERT INTO support_tickets (id, escalation_id, assigned_to, priority, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, query,
		ticket.ID, ticket.EscalationID, ticket.AssignedTo, ticket.Priority,
		ticket.Summary, ticket.CreatedAt,
	)
	if err != nil {
		return conflictWrap(err, "create ticket for escalation %s", ticket.EscalationID)
	}
	return nil
}
