package normalize

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Canonical normalizes a free-text field value for comparison following the
// same rules for every string-class field (name, address, email, ...):
// NFKC unicode normalization, uppercase, punctuation replaced by spaces,
// whitespace collapsed.
func Canonical(raw string) (canonical string, tokens []string) {
	if raw == "" {
		return "", nil
	}

	s := norm.NFKC.String(raw)
	s = strings.ToUpper(strings.TrimSpace(s))

	// Remove punctuation but preserve spaces
	b := strings.Builder{}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	tokens = strings.Fields(b.String())
	canonical = strings.Join(tokens, " ")
	return canonical, tokens
}

// Identifier normalizes identifier values (id, customer_id, bank_id,
// passport, ssn). Identifiers are compared exactly, so normalization is
// limited to trimming and case folding.
func Identifier(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Digits reduces a phone value to its digits, dropping formatting
// punctuation ("+", "-", "(", ")", spaces) and extension markers.
func Digits(raw string) string {
	b := strings.Builder{}
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// dateLayouts lists the calendar layouts accepted for dob values,
// tried in order. Day-first layouts follow the source data convention.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02/01/06",
	"2/1/06",
	"2006/01/02",
	"20060102",
	"January 2, 2006",
	"2 January 2006",
}

// ParseDate parses a date value into a canonical calendar date (UTC
// midnight). The boolean reports whether any layout matched. Dates carry no
// fuzziness: callers compare the returned dates for exact equality.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}

	return time.Time{}, false
}

// TokenOverlap calculates the overlap ratio between two token sets,
// measured against the smaller set.
func TokenOverlap(tokens1, tokens2 []string) float64 {
	if len(tokens1) == 0 && len(tokens2) == 0 {
		return 1.0
	}
	if len(tokens1) == 0 || len(tokens2) == 0 {
		return 0.0
	}

	set1 := make(map[string]bool)
	for _, token := range tokens1 {
		set1[token] = true
	}

	overlap := 0
	seen := make(map[string]bool)
	for _, token := range tokens2 {
		if set1[token] && !seen[token] {
			overlap++
			seen[token] = true
		}
	}

	minLen := len(tokens1)
	if len(tokens2) < minLen {
		minLen = len(tokens2)
	}

	return float64(overlap) / float64(minLen)
}

// IsBlank reports whether a value is empty after canonicalization.
func IsBlank(raw string) bool {
	canonical, _ := Canonical(raw)
	return canonical == ""
}
