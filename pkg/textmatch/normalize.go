// Package textmatch provides label canonicalization and synonym lookup used
// when comparing free-text activity names.
package textmatch

import "strings"

// Normalize lower-cases s, drops every character outside [a-z0-9] and
// whitespace, collapses whitespace runs to single spaces and trims the ends.
// Whitespace is the regular-expression \s class, see isSpace.
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range strings.ToLower(s) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		case isSpace(r):
			pendingSpace = true
		}
	}
	return b.String()
}

// isSpace reports whether r is in the regular-expression \s class: ASCII
// whitespace, the Unicode space separators, the line and paragraph
// separators and U+FEFF. U+0085 is not whitespace here.
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		'\u00a0', '\u1680', '\u2028', '\u2029', '\u202f', '\u205f', '\u3000', '\ufeff':
		return true
	}
	return r >= '\u2000' && r <= '\u200a'
}

// Tokens splits a normalized string into its set of words.
func Tokens(normalized string) map[string]struct{} {
	fields := strings.Fields(normalized)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// WordOverlap returns |A ∩ B| / max(|A|, |B|) over the word sets of two
// normalized strings, or 0 when both are empty.
func WordOverlap(a, b string) float64 {
	setA := Tokens(a)
	setB := Tokens(b)
	larger := len(setA)
	if len(setB) > larger {
		larger = len(setB)
	}
	if larger == 0 {
		return 0
	}
	shared := 0
	for word := range setA {
		if _, ok := setB[word]; ok {
			shared++
		}
	}
	return float64(shared) / float64(larger)
}

// Contains reports whether either normalized string contains the other.
// Empty strings never match.
func Contains(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
