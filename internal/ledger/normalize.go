package ledger

import (
	"strings"

	"github.com/gautamnaik0719/noormeds/internal/models"
)

// Normalize trims, lowercases and collapses internal whitespace so that
// presentation differences never create duplicate rows.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// NormalizeDose goes one step further than Normalize and drops internal
// whitespace entirely, so "5 mg" and "5mg" compare equal. Used by the
// new-item merge check only.
func NormalizeDose(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// IsAliased reports whether a submitted name carries the private-stash
// marker prefix.
func IsAliased(name, marker string) bool {
	return marker != "" && strings.HasPrefix(name, marker)
}

// StripAlias removes the marker prefix. Idempotent on non-aliased input.
func StripAlias(name, marker string) string {
	if IsAliased(name, marker) {
		return strings.TrimPrefix(name, marker)
	}
	return name
}

// SplitAlias resolves a raw submitted name into a clean name and a scope.
// This is the only place the marker is interpreted; everything downstream
// receives the scope explicitly.
func (l *Ledger) SplitAlias(raw string) (string, models.Scope) {
	if IsAliased(raw, l.tables.AliasMarker) {
		return StripAlias(raw, l.tables.AliasMarker), models.ScopePrivate
	}
	return raw, models.ScopeNormal
}
