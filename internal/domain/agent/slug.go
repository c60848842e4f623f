package agent

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	slugInvalid  = regexp.MustCompile(`[^a-z0-9-]+`)
	slugHyphens  = regexp.MustCompile(`-{2,}`)
	subdomainRex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{1,61}[a-z0-9])?$`)
)

// Slugify derives a deterministic subdomain slug from an agent name.
// The result is lowercase alphanumeric with single hyphens, trimmed to 63
// characters. Names that reduce to nothing yield "agent".
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugHyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 63 {
		s = strings.Trim(s[:63], "-")
	}
	if s == "" {
		return "agent"
	}
	return s
}

// NextSlug returns the candidate slug for the given retry attempt:
// the base itself for attempt 0, then base-1, base-2, ...
func NextSlug(base string, attempt int) string {
	if attempt == 0 {
		return base
	}
	suffix := fmt.Sprintf("-%d", attempt)
	if len(base)+len(suffix) > 63 {
		base = base[:63-len(suffix)]
	}
	return base + suffix
}

// ValidateSubdomain checks the DNS label constraints for an agent subdomain:
// 3-63 characters, lowercase alphanumeric with interior hyphens.
func ValidateSubdomain(slug string) error {
	if len(slug) < 3 || len(slug) > 63 {
		return fmt.Errorf("subdomain must be 3-63 characters, got %d", len(slug))
	}
	if !subdomainRex.MatchString(slug) {
		return fmt.Errorf("subdomain %q must be lowercase alphanumeric with interior hyphens", slug)
	}
	return nil
}
