package postgres

import (
	"context"
	"fmt"

	"github.com/saintvisionai/platform/internal/domain/billing"
)

// GetSubscriptionByUser fetches a user's subscription.
func (s *Store) GetSubscriptionByUser(ctx context.Context, userID string) (*billing.Subscription, error) {
	const query = `
		SELECT id, user_id, tier, stripe_customer_id, status, created_at, updated_at
		FROM subscriptions WHERE user_id = $1`

	var sub billing.Subscription
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&sub.ID, &sub.UserID, &sub.Tier, &sub.StripeCustomerID,
		&sub.Status, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, notFoundWrap(err, "get subscription for %s", userID)
	}
	return &sub, nil
}

// UpsertSubscription writes the subscription for a user, replacing any
// existing row. Webhook deliveries are at-least-once, so this must be
// idempotent.
func (s *Store) UpsertSubscription(ctx context.Context, sub *billing.Subscription) error {
	const query = `
		INSERT INTO subscriptions (id, user_id, tier, stripe_customer_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE
		SET tier = EXCLUDED.tier,
			stripe_customer_id = EXCLUDED.stripe_customer_id,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`

	_, err := s.pool.Exec(ctx, query,
		sub.ID, sub.UserID, sub.Tier, sub.StripeCustomerID,
		sub.Status, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert subscription for %s: %w", sub.UserID, err)
	}
	return nil
}
