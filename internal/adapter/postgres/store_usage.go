package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// IncrementUsage atomically bumps the message counter for a user's monthly
// window and returns the new count. The period key is "YYYY-MM".
func (s *Store) IncrementUsage(ctx context.Context, userID, period string) (int, error) {
	const query = `
		INSERT INTO usage_counters (user_id, period, messages)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, period) DO UPDATE
		SET messages = usage_counters.messages + 1
		RETURNING messages`

	var n int
	if err := s.pool.QueryRow(ctx, query, userID, period).Scan(&n); err != nil {
		return 0, fmt.Errorf("increment usage for %s/%s: %w", userID, period, err)
	}
	return n, nil
}

// GetUsage returns the message count for a user's monthly window. A window
// with no traffic reads as zero.
func (s *Store) GetUsage(ctx context.Context, userID, period string) (int, error) {
	const query = `SELECT messages FROM usage_counters WHERE user_id = $1 AND period = $2`

	var n int
	err := s.pool.QueryRow(ctx, query, userID, period).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get usage for %s/%s: %w", userID, period, err)
	}
	return n, nil
}
