// Package sanitize strips markup from free-text fields before they are stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// Text removes every HTML element from s and trims surrounding whitespace.
// Entities produced by the policy are decoded so "Lari & Jalan" round trips.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(s)))
}

// OptionalText applies Text to a nullable value; blank results collapse to nil.
func OptionalText(s *string) *string {
	if s == nil {
		return nil
	}
	clean := Text(*s)
	if clean == "" {
		return nil
	}
	return &clean
}
