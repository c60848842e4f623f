// Package brand defines the brand registry and domain resolution for the
// multi-brand platform.
package brand

import (
	"net"
	"strings"
)

// FeatureAll is the sentinel feature tag meaning a brand imposes no feature
// restrictions of its own.
const FeatureAll = "all"

// Descriptor describes a single brand: which hostnames it serves, its display
// theme, and the feature/compliance envelope agents created under it inherit.
type Descriptor struct {
	ID               string            `json:"id" yaml:"id"`
	Name             string            `json:"name" yaml:"name"`
	MatchDomains     []string          `json:"match_domains" yaml:"match_domains"`
	Theme            map[string]string `json:"theme,omitempty" yaml:"theme,omitempty"`
	DefaultSkillsets []string          `json:"default_skillsets,omitempty" yaml:"default_skillsets,omitempty"`
	AllowedFeatures  []string          `json:"allowed_features" yaml:"allowed_features"`
	ComplianceTags   []string          `json:"compliance_tags,omitempty" yaml:"compliance_tags,omitempty"`
}

// AllowsFeature reports whether the brand permits the given feature tag.
func (d *Descriptor) AllowsFeature(feature string) bool {
	for _, f := range d.AllowedFeatures {
		if f == FeatureAll || f == feature {
			return true
		}
	}
	return false
}

// Registry is an immutable, ordered set of brand descriptors built once at
// startup. Resolution order follows descriptor order, so more specific
// domains must be registered before broader ones.
type Registry struct {
	brands    []Descriptor
	defaultID string
	byID      map[string]*Descriptor
}

// NewRegistry builds a registry from the given descriptors. defaultID names
// the platform's primary brand returned when no domain matches.
func NewRegistry(brands []Descriptor, defaultID string) *Registry {
	byID := make(map[string]*Descriptor, len(brands))
	for i := range brands {
		byID[brands[i].ID] = &brands[i]
	}
	return &Registry{brands: brands, defaultID: defaultID, byID: byID}
}

// Resolve returns the brand serving the given request host. The port suffix
// is stripped, then exact domain matches are tried before suffix matches.
// Resolution is total: an unknown host yields the default brand.
func (r *Registry) Resolve(host string) *Descriptor {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(host)

	for i := range r.brands {
		for _, d := range r.brands[i].MatchDomains {
			if host == d {
				return &r.brands[i]
			}
		}
	}
	for i := range r.brands {
		for _, d := range r.brands[i].MatchDomains {
			if strings.HasSuffix(host, d) {
				return &r.brands[i]
			}
		}
	}
	return r.Default()
}

// Get returns the brand with the given ID, or nil.
func (r *Registry) Get(id string) *Descriptor {
	return r.byID[id]
}

// Default returns the platform's primary brand.
func (r *Registry) Default() *Descriptor {
	return r.byID[r.defaultID]
}

// List returns all registered descriptors in resolution order.
func (r *Registry) List() []Descriptor {
	return r.brands
}
