package entity

import (
	"encoding/json"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLocales is the locale preference for exported names
var DefaultLocales = []string{"de", "de-informal", "en"}

// LocalizedString picks a display value from a stored i18n string.
//
// The platform stores translatable names as a JSON object keyed by locale
// ({"de": "Teilnehmer", "en": "Participant"}); older rows hold a plain string.
// The best match for preferred among the locales with a non-empty value wins.
// Without a match the alphabetically first of those locales is used.
func LocalizedString(raw string, preferred ...string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return raw
	}
	var values map[string]string
	if err := json.Unmarshal([]byte(trimmed), &values); err != nil {
		return raw
	}

	locales := make([]string, 0, len(values))
	for locale, v := range values {
		if v != "" {
			locales = append(locales, locale)
		}
	}
	if len(locales) == 0 {
		return ""
	}
	sort.Strings(locales)

	// The first supported tag is the matcher's fallback
	supported := make([]language.Tag, len(locales))
	for i, locale := range locales {
		supported[i] = parseLocale(locale)
	}
	desired := make([]language.Tag, 0, len(preferred))
	for _, locale := range preferred {
		desired = append(desired, parseLocale(locale))
	}

	_, index, _ := language.NewMatcher(supported).Match(desired...)
	return values[locales[index]]
}

// parseLocale maps a stored locale key to a tag. Platform specific variants
// such as "de-informal" are not registered subtags and fall back to their
// base language.
func parseLocale(locale string) language.Tag {
	if tag, err := language.Parse(locale); err == nil {
		return tag
	}
	base, _, _ := strings.Cut(locale, "-")
	if tag, err := language.Parse(base); err == nil {
		return tag
	}
	return language.Und
}
