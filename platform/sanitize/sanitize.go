// Package sanitize provides text sanitization utilities to prevent XSS attacks.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every element and attribute, keeping text content only.
var strict = bluemonday.StrictPolicy()

// StripHTML removes all HTML tags from a string, making it safe for text-only display.
// Entity-encoded tags are decoded and stripped a second time.
func StripHTML(s string) string {
	result := html.UnescapeString(strict.Sanitize(s))
	result = html.UnescapeString(strict.Sanitize(result))
	return strings.TrimSpace(result)
}

// Text sanitizes a string for safe text storage by stripping HTML
// and normalizing whitespace. Use for user-provided text fields like
// notes and absence reasons.
func Text(s string) string {
	return strings.Join(strings.Fields(StripHTML(s)), " ")
}

// TextPtr is a helper for optional string pointers
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	return &result
}
