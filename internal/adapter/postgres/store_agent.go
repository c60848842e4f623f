package postgres

import (
	"context"
	"fmt"

	"github.com/saintvisionai/platform/internal/domain/agent"
)

const agentColumns = `id, slug, owner_id, brand_id, name, description, model_type,
	skillset, features, permissions, status, failed_step, access_url, created_at, updated_at`

// CreateAgent inserts a new agent row. A duplicate slug returns
// domain.ErrConflict so the caller can retry with the next suffix.
func (s *Store) CreateAgent(ctx context.Context, rec *agent.Record) error {
	const query = `
		INSERT INTO agents (id, slug, owner_id, brand_id, name, description,
			model_type, skillset, features, permissions, status, failed_step,
			access_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.Slug, rec.OwnerID, rec.BrandID,
		rec.Config.Name, rec.Config.Description, rec.Config.ModelType,
		rec.Config.Skillset, pgTextArray(rec.Config.Features), rec.Config.Permissions,
		rec.Status, rec.FailedStep, rec.AccessURL, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return conflictWrap(err, "create agent %s", rec.Slug)
	}
	return nil
}

// GetAgent fetches an agent by ID.
func (s *Store) GetAgent(ctx context.Context, id string) (*agent.Record, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id = $1`

	rec, err := scanAgent(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFoundWrap(err, "get agent %s", id)
	}
	return rec, nil
}

// ListAgentsByOwner returns all agents belonging to a user, newest first.
func (s *Store) ListAgentsByOwner(ctx context.Context, ownerID string) ([]agent.Record, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list agents for %s: %w", ownerID, err)
	}
	defer rows.Close()

	var recs []agent.Record
	for rows.Next() {
		rec, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

// CountAgentsByOwner counts agents in any non-failed state. Failed agents do
// not consume plan quota.
func (s *Store) CountAgentsByOwner(ctx context.Context, ownerID string) (int, error) {
	const query = `SELECT COUNT(*) FROM agents WHERE owner_id = $1 AND status <> 'failed'`

	var n int
	if err := s.pool.QueryRow(ctx, query, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count agents for %s: %w", ownerID, err)
	}
	return n, nil
}

// UpdateAgentStatus sets the agent's status. failedStep is only recorded for
// transitions to the failed state; pass "" otherwise.
func (s *Store) UpdateAgentStatus(ctx context.Context, id string, status agent.Status, failedStep string) error {
	const query = `
		UPDATE agents
		SET status = $2, failed_step = $3, updated_at = now()
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id, status, failedStep)
	return execExpectOne(tag, err, "update agent %s status", id)
}

// SetOwnerAgentsStatus bulk-transitions an owner's agents from one status to
// another and reports how many rows changed. Used by billing suspend/reactivate.
func (s *Store) SetOwnerAgentsStatus(ctx context.Context, ownerID string, from, to agent.Status) (int, error) {
	const query = `
		UPDATE agents
		SET status = $3, updated_at = now()
		WHERE owner_id = $1 AND status = $2`

	tag, err := s.pool.Exec(ctx, query, ownerID, from, to)
	if err != nil {
		return 0, fmt.Errorf("set agents %s -> %s for %s: %w", from, to, ownerID, err)
	}
	return int(tag.RowsAffected()), nil
}

// CreateAgentRoute persists the dual-model routing descriptor for an agent.
func (s *Store) CreateAgentRoute(ctx context.Context, route *agent.Route) error {
	const query = `
		INSERT INTO agent_routes (agent_id, primary_model, secondary_model, fallback, escalation_target)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.pool.Exec(ctx, query,
		route.AgentID, route.Primary, route.Secondary, route.Fallback, route.EscalationTarget)
	if err != nil {
		return conflictWrap(err, "create route for agent %s", route.AgentID)
	}
	return nil
}

// GetAgentRoute fetches the routing descriptor for an agent.
func (s *Store) GetAgentRoute(ctx context.Context, agentID string) (*agent.Route, error) {
	const query = `
		SELECT agent_id, primary_model, secondary_model, fallback, escalation_target
		FROM agent_routes WHERE agent_id = $1`

	var route agent.Route
	err := s.pool.QueryRow(ctx, query, agentID).Scan(
		&route.AgentID, &route.Primary, &route.Secondary, &route.Fallback, &route.EscalationTarget)
	if err != nil {
		return nil, notFoundWrap(err, "get route for agent %s", agentID)
	}
	return &route, nil
}

// scannable covers both pgx.Row and pgx.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanAgent(row scannable) (*agent.Record, error) {
	var rec agent.Record
	err := row.Scan(
		&rec.ID, &rec.Slug, &rec.OwnerID, &rec.BrandID,
		&rec.Config.Name, &rec.Config.Description, &rec.Config.ModelType,
		&rec.Config.Skillset, &rec.Config.Features, &rec.Config.Permissions,
		&rec.Status, &rec.FailedStep, &rec.AccessURL, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
