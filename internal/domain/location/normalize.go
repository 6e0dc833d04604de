package location

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize maps a raw country name to its canonical label.
//
// Empty input yields "". Known spellings (matched case-insensitively and in
// full, never as substrings) yield the group's canonical label. Anything
// else comes back with the first letter upper-cased and the rest
// lower-cased; callers must treat such values as low confidence.
// Normalize(Normalize(x)) == Normalize(x) for every x.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if canonical, ok := aliasIndex[foldKey(trimmed)]; ok {
		return canonical
	}
	fallback := capitalize(trimmed)
	// Case mapping is not always reversible (dotless i), so the capitalized
	// form may itself be a known alias.
	if canonical, ok := aliasIndex[foldKey(fallback)]; ok {
		return canonical
	}
	return fallback
}

// IsCanonical reports whether country has a curated synonym group.
func IsCanonical(country string) bool {
	_, ok := spellingIndex[country]
	return ok
}

// Variants returns the spellings of canonical that may be stored verbatim
// upstream. The result is never empty and always contains canonical.
func Variants(canonical string) []string {
	if spellings, ok := spellingIndex[canonical]; ok {
		out := make([]string, len(spellings))
		copy(out, spellings)
		return out
	}
	return []string{canonical}
}

// foldKey lower-cases and trims s. The combining dot left behind by
// lower-casing a Turkish dotted capital I is dropped.
func foldKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "\u0307", "")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return strings.ToLower(s)
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
