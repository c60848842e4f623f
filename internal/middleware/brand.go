// Package middleware provides HTTP middleware for the platform API.
package middleware

import (
	"context"
	"net/http"

	"github.com/saintvisionai/platform/internal/domain/brand"
)

const (
	headerBrandID   = "X-Brand-ID"
	headerBrandName = "X-Brand-Name"
)

type brandCtxKey struct{}

// Brand is middleware that resolves the request Host against the brand
// registry, stores the descriptor in the request context, and advertises the
// resolved brand on the response headers. Resolution is total, so every
// request downstream has a brand.
func Brand(registry *brand.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b := registry.Resolve(r.Host)

			w.Header().Set(headerBrandID, b.ID)
			w.Header().Set(headerBrandName, b.Name)

			ctx := context.WithValue(r.Context(), brandCtxKey{}, b)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BrandFromContext returns the brand descriptor stored in ctx, or nil when
// the middleware did not run (tests hitting handlers directly).
func BrandFromContext(ctx context.Context) *brand.Descriptor {
	b, _ := ctx.Value(brandCtxKey{}).(*brand.Descriptor)
	return b
}
