package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/saintvisionai/platform/internal/domain/plan"
	"github.com/saintvisionai/platform/internal/domain/user"
)

type authUserCtxKey struct{}

// publicPaths are exempt from authentication. Webhooks carry their own
// signature verification instead.
var publicPaths = map[string]bool{
	"/health":                  true,
	"/api/v1/webhooks/stripe":  true,
	"/api/v1/webhooks/ghl":     true,
}

// Claims are the JWT claims the platform accepts. Tokens are issued by the
// identity provider with the user ID in the standard subject claim.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TierLookup resolves a user's plan tier after token validation.
type TierLookup func(ctx context.Context, userID string) plan.TierID

// Auth returns middleware that validates Bearer JWTs (HS256) or the internal
// X-API-Key service credential. On success the user identity, with resolved
// plan tier, is stored in the request context.
func Auth(jwtSecret, internalKey string, lookupTier TierLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			// Internal service-to-service key.
			if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
				if internalKey == "" ||
					subtle.ConstantTimeCompare([]byte(apiKey), []byte(internalKey)) != 1 {
					http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
					return
				}
				svc := &user.User{ID: "internal", Tier: plan.TierCustom, Service: true}
				next.ServeHTTP(w, r.WithContext(withUser(r.Context(), svc)))
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == authHeader {
				http.Error(w, `{"error":"invalid authorization header"}`, http.StatusUnauthorized)
				return
			}

			claims, err := parseToken(token, jwtSecret)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			u := &user.User{
				ID:    claims.Subject,
				Email: claims.Email,
				Name:  claims.Name,
				Tier:  plan.TierFree,
			}
			if lookupTier != nil {
				u.Tier = lookupTier(r.Context(), u.ID)
			}

			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
		})
	}
}

// parseToken validates an HS256 token and returns its claims.
func parseToken(token, secret string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token missing subject")
	}
	return claims, nil
}

func withUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, authUserCtxKey{}, u)
}

// UserFromContext returns the authenticated user from the request context.
func UserFromContext(ctx context.Context) *user.User {
	u, _ := ctx.Value(authUserCtxKey{}).(*user.User)
	return u
}

// WithUserForTest injects a user into the context. Exported only for tests.
func WithUserForTest(ctx context.Context, u *user.User) context.Context {
	return withUser(ctx, u)
}
