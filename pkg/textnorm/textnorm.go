// Package textnorm holds the text preprocessing shared by every keyword scan.
// All substring matching must run against Normalize output so that keywords
// and complaint text agree on casing, punctuation and spacing.
package textnorm

import (
	"strings"
	"unicode"
)

// Normalize lowercases s, drops every character outside [a-z0-9], whitespace
// and '-', then collapses whitespace runs to single spaces and trims the ends.
// Dropped characters are removed, not replaced, so "water,supply" becomes
// "watersupply".
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens splits already-normalized text on spaces.
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}

// IsPhrase reports whether a normalized keyword spans more than one word.
func IsPhrase(keyword string) bool {
	return strings.Contains(keyword, " ")
}

// Truncate shortens s to at most n runes for log output.
func Truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n]) + "..."
	}
	return s
}

// EstimateTokens gives a rough LLM token count (~1.3 tokens per word,
// ~4 characters per token, averaged).
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	wordEstimate := int(float64(words) * 1.3)
	charEstimate := len(text) / 4
	return (wordEstimate + charEstimate) / 2
}
