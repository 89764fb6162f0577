package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var slugRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9.\-]*$`)

// ValidateSlug validates an event slug
func ValidateSlug(slug string) error {
	if len(slug) > 50 {
		return fmt.Errorf("slug too long: %s", slug)
	}
	if !slugRegex.MatchString(slug) {
		return fmt.Errorf("invalid slug format: %q", slug)
	}
	return nil
}

// ParseSlugs splits comma separated values into unique, validated slugs,
// keeping the first occurrence order. Empty entries are ignored.
func ParseSlugs(values ...string) ([]string, error) {
	var slugs []string
	seen := make(map[string]bool)
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			slug := strings.TrimSpace(part)
			if slug == "" || seen[slug] {
				continue
			}
			if err := ValidateSlug(slug); err != nil {
				return nil, err
			}
			seen[slug] = true
			slugs = append(slugs, slug)
		}
	}
	return slugs, nil
}
