// Package textproc turns a raw transcript into the final text handed to
// the injector. The pipeline is sanitize, word overrides, sanitize
// again, then an optional style transform. The second sanitize pass
// exists because override replacements are operator-configured and may
// reintroduce characters the first pass already removed.
package textproc

import (
	"strings"
	"unicode"
)

// SanitizeRules controls how transcripts are cleaned before and after
// override substitution.
type SanitizeRules struct {
	// TrimEdges removes leading and trailing whitespace. Interior
	// whitespace is always left alone.
	TrimEdges bool
}

// Apply normalizes line endings to \n, removes control characters
// other than tab and newline, and optionally trims the edges.
func (r SanitizeRules) Apply(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	s = strings.Map(func(c rune) rune {
		if c == '\n' || c == '\t' {
			return c
		}
		if unicode.IsControl(c) {
			return -1
		}
		return c
	}, s)

	if r.TrimEdges {
		s = strings.TrimSpace(s)
	}
	return s
}
