// Package sanitize cleans user-supplied free text before it is stored.
package sanitize

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// Text strips every HTML tag, drops unprintable runes and trims surrounding
// whitespace. Entities escaped by the policy are decoded again so labels like
// "Food & Dining" survive unchanged.
func Text(s string) string {
	cleaned := html.UnescapeString(strictPolicy.Sanitize(s))
	cleaned = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' {
			return r
		}
		return -1
	}, cleaned)
	return strings.TrimSpace(cleaned)
}

// OptionalText applies Text to a non-nil pointer.
func OptionalText(s *string) *string {
	if s == nil {
		return nil
	}
	v := Text(*s)
	return &v
}
