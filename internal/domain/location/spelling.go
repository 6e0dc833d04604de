package location

import "strings"

// Locale selects how country names are spelled in the profile store.
type Locale string

// Supported store locales.
const (
	LocaleEnglish Locale = "en"
	LocaleTurkish Locale = "tr"
)

// ParseLocale accepts "en" and "tr" (case-insensitive); anything else is
// reported as not ok.
func ParseLocale(raw string) (Locale, bool) {
	switch Locale(strings.ToLower(strings.TrimSpace(raw))) {
	case LocaleEnglish:
		return LocaleEnglish, true
	case LocaleTurkish:
		return LocaleTurkish, true
	}
	return "", false
}

// StoreSpelling converts an English country name into the spelling used by
// a store with the given locale. Lookup is exact first, then
// case-insensitive; unmapped names and Unknown pass through unchanged.
func StoreSpelling(locale Locale, country string) string {
	if locale != LocaleTurkish || !IsKnown(country) {
		return country
	}
	if local, ok := turkishSpellings[country]; ok {
		return local
	}
	if local, ok := turkishByLower[foldKey(country)]; ok {
		return local
	}
	return country
}
