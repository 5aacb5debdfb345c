package form

import (
	"strings"

	"github.com/fullstackverse/form-gateway/internal/domain"
)

// fieldAliases maps each canonical field to the alias keys clients are known
// to send, in priority order. The first alias with a non-empty raw value wins,
// even when that value trims down to nothing.
var fieldAliases = []struct {
	field   string
	aliases []string
}{
	{"full_name", []string{"full_name", "fullName", "name", "fullname"}},
	{"email", []string{"email", "email_address", "emailAddress"}},
	{"contact_number", []string{"contact_number", "contact", "phone", "phone_number", "phoneNumber"}},
	{"project_description", []string{"project_description", "projectDescription", "description"}},
	{"budget", []string{"budget", "estimate", "project_budget"}},
	{"type", []string{"type", "project_type", "category"}},
}

// Normalize resolves alias keys onto the canonical submission shape, trimming
// every value. It is pure and total: missing or oddly-shaped payloads yield
// empty fields, never an error.
func Normalize(payload map[string]string) domain.Submission {
	resolved := make(map[string]string, len(fieldAliases))
	for _, fa := range fieldAliases {
		resolved[fa.field] = resolveAlias(payload, fa.aliases)
	}

	sub := domain.Submission{
		FullName:           resolved["full_name"],
		Email:              resolved["email"],
		ContactNumber:      StripNonDigits(resolved["contact_number"]),
		ProjectDescription: resolved["project_description"],
		Type:               resolved["type"],
	}

	// Budget only travels with proposal submissions; everything else
	// normalizes it away to null.
	if sub.Type == domain.ProposalType {
		budget := resolved["budget"]
		sub.Budget = &budget
	}

	return sub
}

// resolveAlias picks the first alias carrying a non-empty raw value and trims
// the winner. Selection happens before trimming: a whitespace-only value still
// claims its priority slot and resolves to the empty string rather than
// falling through to a lower-priority alias.
func resolveAlias(payload map[string]string, aliases []string) string {
	for _, key := range aliases {
		if v, ok := payload[key]; ok && v != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// StripNonDigits removes every non-digit character so contact numbers store
// and search consistently. Idempotent: stripping twice equals stripping once.
func StripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Truncate cuts s to at most max characters, replacing the tail with a "..."
// marker when it was cut. A truncated value is never longer than max.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
