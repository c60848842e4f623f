package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saintvisionai/platform/internal/domain"
	"github.com/saintvisionai/platform/internal/domain/agent"
	"github.com/saintvisionai/platform/internal/domain/billing"
	"github.com/saintvisionai/platform/internal/domain/plan"
	"github.com/saintvisionai/platform/internal/port/cache"
	"github.com/saintvisionai/platform/internal/port/database"
	"github.com/saintvisionai/platform/internal/port/messagequeue"
)

// tierCacheTTL bounds how stale a cached tier lookup may be after a billing
// event lands.
const tierCacheTTL = time.Minute

// BillingService applies payment-processor events to subscription state and
// agent availability.
type BillingService struct {
	store database.Store
	queue messagequeue.Queue
	cache cache.Cache
}

// NewBillingService creates a new BillingService.
func NewBillingService(store database.Store, queue messagequeue.Queue, c cache.Cache) *BillingService {
	return &BillingService{store: store, queue: queue, cache: c}
}

// HandleStripeEvent routes a verified Stripe event. Unrecognised event types
// are acked and ignored. Errors here surface in logs only; the webhook
// endpoint always acks parseable payloads.
func (s *BillingService) HandleStripeEvent(ctx context.Context, evt *billing.Event) error {
	switch evt.Type {
	case billing.EventCheckoutCompleted, billing.EventSubscriptionUpdated:
		return s.applySubscription(ctx, evt)
	case billing.EventSubscriptionDeleted:
		return s.cancelSubscription(ctx, evt)
	case billing.EventPaymentFailed:
		return s.suspendAgents(ctx, evt)
	case billing.EventPaymentSucceeded:
		return s.reactivateAgents(ctx, evt)
	default:
		slog.Debug("ignoring stripe event", "type", evt.Type, "event_id", evt.ID)
		return nil
	}
}

// applySubscription upserts the user's subscription from checkout metadata.
func (s *BillingService) applySubscription(ctx context.Context, evt *billing.Event) error {
	obj := evt.Data.Object
	userID := obj.Metadata["user_id"]
	if userID == "" {
		slog.Warn("stripe event missing user_id metadata", "type", evt.Type, "event_id", evt.ID)
		return nil
	}

	tier := plan.TierID(obj.Metadata["tier"])
	if tier == "" {
		tier = plan.TierStarter
	}

	status := obj.Status
	if status == "" {
		status = "active"
	}

	now := time.Now().UTC()
	sub := &billing.Subscription{
		ID:               uuid.NewString(),
		UserID:           userID,
		Tier:             tier,
		StripeCustomerID: obj.Customer,
		Status:           status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.UpsertSubscription(ctx, sub); err != nil {
		return fmt.Errorf("apply subscription: %w", err)
	}

	s.invalidateTier(ctx, userID)
	s.publishChange(ctx, sub)
	slog.Info("subscription applied", "user_id", userID, "tier", tier, "event_id", evt.ID)
	return nil
}

// cancelSubscription drops the user back to the free tier and suspends
// agents above the free allowance.
func (s *BillingService) cancelSubscription(ctx context.Context, evt *billing.Event) error {
	obj := evt.Data.Object
	userID := obj.Metadata["user_id"]
	if userID == "" {
		userID = s.userByCustomer(ctx, obj.Customer)
	}
	if userID == "" {
		slog.Warn("cannot resolve user for subscription deletion", "event_id", evt.ID)
		return nil
	}

	now := time.Now().UTC()
	sub := &billing.Subscription{
		ID:               uuid.NewString(),
		UserID:           userID,
		Tier:             plan.TierFree,
		StripeCustomerID: obj.Customer,
		Status:           "canceled",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.UpsertSubscription(ctx, sub); err != nil {
		return fmt.Errorf("cancel subscription: %w", err)
	}

	s.invalidateTier(ctx, userID)
	s.publishChange(ctx, sub)

	n, err := s.store.SetOwnerAgentsStatus(ctx, userID, agent.StatusActive, agent.StatusSuspended)
	if err != nil {
		return fmt.Errorf("suspend agents on cancellation: %w", err)
	}
	s.publishAgents(ctx, messagequeue.SubjectAgentSuspended, userID, n)
	slog.Info("subscription canceled", "user_id", userID, "agents_suspended", n)
	return nil
}

// suspendAgents pauses all of a user's active agents after a failed payment.
func (s *BillingService) suspendAgents(ctx context.Context, evt *billing.Event) error {
	userID := s.resolveUser(ctx, evt)
	if userID == "" {
		return nil
	}

	n, err := s.store.SetOwnerAgentsStatus(ctx, userID, agent.StatusActive, agent.StatusSuspended)
	if err != nil {
		return fmt.Errorf("suspend agents: %w", err)
	}
	s.publishAgents(ctx, messagequeue.SubjectAgentSuspended, userID, n)
	slog.Info("agents suspended for failed payment", "user_id", userID, "count", n)
	return nil
}

// reactivateAgents resumes suspended agents after a successful payment.
func (s *BillingService) reactivateAgents(ctx context.Context, evt *billing.Event) error {
	userID := s.resolveUser(ctx, evt)
	if userID == "" {
		return nil
	}

	n, err := s.store.SetOwnerAgentsStatus(ctx, userID, agent.StatusSuspended, agent.StatusActive)
	if err != nil {
		return fmt.Errorf("reactivate agents: %w", err)
	}
	s.publishAgents(ctx, messagequeue.SubjectAgentReactivated, userID, n)
	if n > 0 {
		slog.Info("agents reactivated", "user_id", userID, "count", n)
	}
	return nil
}

// TierFor resolves a user's plan tier from the subscription row, with a
// short-lived cache in front. Missing subscriptions read as free.
func (s *BillingService) TierFor(ctx context.Context, userID string) plan.TierID {
	key := "tier:" + userID
	if s.cache != nil {
		if data, ok, _ := s.cache.Get(ctx, key); ok {
			return plan.TierID(data)
		}
	}

	sub, err := s.store.GetSubscriptionByUser(ctx, userID)
	tier := plan.TierFree
	switch {
	case err == nil && sub.Status != "canceled":
		tier = sub.Tier
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		slog.Error("tier lookup failed", "user_id", userID, "error", err)
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, []byte(tier), tierCacheTTL)
	}
	return tier
}

func (s *BillingService) invalidateTier(ctx context.Context, userID string) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "tier:"+userID)
	}
}

func (s *BillingService) resolveUser(ctx context.Context, evt *billing.Event) string {
	obj := evt.Data.Object
	if userID := obj.Metadata["user_id"]; userID != "" {
		return userID
	}
	userID := s.userByCustomer(ctx, obj.Customer)
	if userID == "" {
		slog.Warn("cannot resolve user for stripe event", "type", evt.Type, "event_id", evt.ID)
	}
	return userID
}

// userByCustomer is a placeholder until invoice events carry user metadata;
// the subscription row keyed by customer would need a reverse index.
// TODO: add a stripe_customer_id index lookup to the store.
func (s *BillingService) userByCustomer(_ context.Context, _ string) string {
	return ""
}

func (s *BillingService) publishChange(ctx context.Context, sub *billing.Subscription) {
	if s.queue == nil {
		return
	}
	data, err := json.Marshal(sub)
	if err != nil {
		slog.Error("marshal billing event", "user_id", sub.UserID, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, messagequeue.SubjectBillingChanged, data); err != nil {
		slog.Error("publish billing event", "user_id", sub.UserID, "error", err)
	}
}

func (s *BillingService) publishAgents(ctx context.Context, subject, userID string, count int) {
	if s.queue == nil || count == 0 {
		return
	}
	data, _ := json.Marshal(map[string]any{"user_id": userID, "count": count})
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.Error("publish agent status event", "subject", subject, "user_id", userID, "error", err)
	}
}
