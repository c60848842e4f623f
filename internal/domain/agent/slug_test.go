package agent

import "testing"

func TestSlugifyDeterministic(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"My Sales Bot", "my-sales-bot"},
		{"  Athena  ", "athena"},
		{"Legal Review (v2)!", "legal-review-v2"},
		{"---", "agent"},
		{"ÜberBot", "berbot"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.name); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.name, got, tt.want)
		}
		// idempotent under retry
		if again := Slugify(tt.name); again != Slugify(tt.name) {
			t.Errorf("Slugify(%q) not deterministic: %q vs %q", tt.name, again, Slugify(tt.name))
		}
	}
}

func TestSlugifyTruncates(t *testing.T) {
	long := make([]byte, 100)
	for i := range long {
		long[i] = 'a'
	}
	s := Slugify(string(long))
	if len(s) != 63 {
		t.Errorf("expected 63 chars, got %d", len(s))
	}
}

func TestNextSlug(t *testing.T) {
	if got := NextSlug("sales-bot", 0); got != "sales-bot" {
		t.Errorf("attempt 0: got %q", got)
	}
	if got := NextSlug("sales-bot", 1); got != "sales-bot-1" {
		t.Errorf("attempt 1: got %q", got)
	}
	if got := NextSlug("sales-bot", 12); got != "sales-bot-12" {
		t.Errorf("attempt 12: got %q", got)
	}
}

func TestValidateSubdomain(t *testing.T) {
	valid := []string{"abc", "my-agent", "a1b", "agent-42"}
	for _, s := range valid {
		if err := ValidateSubdomain(s); err != nil {
			t.Errorf("ValidateSubdomain(%q) unexpected error: %v", s, err)
		}
	}

	invalid := []string{"ab", "", "-abc", "abc-", "Has-Caps", "under_score"}
	for _, s := range invalid {
		if err := ValidateSubdomain(s); err == nil {
			t.Errorf("ValidateSubdomain(%q) expected error", s)
		}
	}
}
