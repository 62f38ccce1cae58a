// Package shipmark canonicalizes human-entered shipping marks so that the
// same customer code always compares equal, however an operator typed it.
// The same functions are applied when the entity index is built and when
// candidates are normalized; matching depends on that equivalence.
package shipmark

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// cleaner folds compatibility forms (full-width letters and digits are
// common in marks typed with a CJK input method) and drops invisible
// format characters such as zero-width spaces and BOMs.
var cleaner = transform.Chain(norm.NFKC, runes.Remove(runes.In(unicode.Cf)))

func clean(raw string) string {
	s, _, err := transform.String(cleaner, raw)
	if err != nil {
		return raw
	}
	return s
}

// Normalize returns the canonical form of a raw shipping mark: compatibility
// normalized, invisible characters stripped, upper-cased, internal runs of
// whitespace collapsed to single spaces, leading and trailing punctuation
// removed. Normalize is idempotent.
func Normalize(raw string) string {
	s := strings.ToUpper(clean(raw))
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}

func isListSeparator(r rune) bool {
	switch r {
	case '/', ',', ';', '|':
		return true
	}
	return false
}

// Split decomposes a raw identifier that may carry several marks in one
// cell ("A/B", "A, B") into normalized values, dropping empties and
// de-duplicating while preserving order. A single-valued cell yields a
// one-element slice.
func Split(raw string) []string {
	parts := strings.FieldsFunc(clean(raw), isListSeparator)
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		normalized := Normalize(part)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

// Tokens returns the space-separated segments of a normalized mark.
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}

// NormalizePhone keeps digits and a single leading plus sign.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
