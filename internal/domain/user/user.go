// Package user defines the authenticated user identity.
package user

import "github.com/saintvisionai/platform/internal/domain/plan"

// User is the identity attached to authenticated requests. Tier is resolved
// from the subscription store after token validation; it defaults to free
// when no subscription row exists.
type User struct {
	ID      string      `json:"id"`
	Email   string      `json:"email"`
	Name    string      `json:"name,omitempty"`
	Tier    plan.TierID `json:"tier"`
	Service bool        `json:"service,omitempty"` // internal service-to-service identity
}
