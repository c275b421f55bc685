// Package textutil holds the small string helpers shared by the research
// steps and the extractors.
package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var urlPattern = regexp.MustCompile(`https?://\S+`)

// Truncate returns at most n characters (runes) of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// WordCount counts whitespace separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// FindURLs returns every http(s) URL in s, in order of appearance.
func FindURLs(s string) []string {
	return urlPattern.FindAllString(s, -1)
}
