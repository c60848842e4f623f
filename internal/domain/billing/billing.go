// Package billing defines subscription state driven by payment-processor webhooks.
package billing

import (
	"time"

	"github.com/saintvisionai/platform/internal/domain/plan"
)

// Stripe event types the platform reacts to. Everything else is acked and ignored.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventPaymentSucceeded    = "invoice.payment_succeeded"
	EventPaymentFailed       = "invoice.payment_failed"
)

// Subscription is the persisted billing state for a user.
type Subscription struct {
	ID               string      `json:"id"`
	UserID           string      `json:"user_id"`
	Tier             plan.TierID `json:"tier"`
	StripeCustomerID string      `json:"stripe_customer_id"`
	Status           string      `json:"status"` // active, past_due, canceled
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// Event is the decoded envelope of an inbound Stripe webhook.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object EventObject `json:"object"`
	} `json:"data"`
}

// EventObject carries the fields we read from Stripe payloads. Metadata is
// where checkout sessions carry the platform user ID and purchased tier.
type EventObject struct {
	ID       string            `json:"id"`
	Customer string            `json:"customer"`
	Status   string            `json:"status,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
