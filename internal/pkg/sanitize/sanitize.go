// Package sanitize strips markup from user supplied free text before it is
// stored. Names, addresses and job titles are plain text everywhere they are
// rendered.
package sanitize

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text removes every HTML element and trims surrounding whitespace. The
// result is plain text, so entities escaped by the policy are decoded again.
func Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// Len counts runes, not bytes.
func Len(s string) int {
	return utf8.RuneCountInString(s)
}
