package textproc

import (
	"sort"
	"strings"
	"unicode"
)

// Rule maps a spoken phrase to its replacement. Phrases are stored as
// normalized lowercase word tokens so lookups are case-insensitive.
type Rule struct {
	Phrase      string
	Replacement string

	tokens []string
}

// OverrideSet holds override rules sorted for longest-match-first
// scanning, so "parra keat" wins over a hypothetical "parra" rule.
type OverrideSet struct {
	rules []Rule
}

// NewOverrideSet builds an OverrideSet from a phrase-to-replacement
// map. Keys are lowercased; empty keys are skipped.
func NewOverrideSet(overrides map[string]string) *OverrideSet {
	set := &OverrideSet{}
	for phrase, replacement := range overrides {
		phrase = strings.ToLower(strings.TrimSpace(phrase))
		tokens := splitWords(phrase)
		if len(tokens) == 0 {
			continue
		}
		set.rules = append(set.rules, Rule{
			Phrase:      phrase,
			Replacement: replacement,
			tokens:      tokens,
		})
	}

	// More tokens first, then longer phrases, then lexicographic so
	// iteration order of the source map never changes the result.
	sort.Slice(set.rules, func(i, j int) bool {
		a, b := set.rules[i], set.rules[j]
		if len(a.tokens) != len(b.tokens) {
			return len(a.tokens) > len(b.tokens)
		}
		if len(a.Phrase) != len(b.Phrase) {
			return len(a.Phrase) > len(b.Phrase)
		}
		return a.Phrase < b.Phrase
	})

	return set
}

// Len reports the number of rules in the set.
func (s *OverrideSet) Len() int {
	return len(s.rules)
}

// Apply replaces configured phrases in text, case-insensitively and
// non-overlapping, scanning left to right with longer phrases taking
// precedence. Text outside matches, separators included, is preserved
// byte-for-byte.
func (s *OverrideSet) Apply(text string) string {
	if len(s.rules) == 0 || text == "" {
		return text
	}

	segs := segment(text)

	// Indices of word segments, for multi-token lookahead.
	var words []int
	for i, seg := range segs {
		if seg.word {
			words = append(words, i)
		}
	}

	var b strings.Builder
	b.Grow(len(text))

	si := 0
	for wi := 0; wi < len(words); {
		// Emit separators preceding the current word untouched.
		for si < words[wi] {
			b.WriteString(segs[si].text)
			si++
		}

		var applied *Rule
		endWord := wi
		for ri := range s.rules {
			if end, ok := matchRule(segs, words, wi, s.rules[ri]); ok {
				applied = &s.rules[ri]
				endWord = end
				break
			}
		}

		if applied == nil {
			b.WriteString(segs[si].text)
			si++
			wi++
			continue
		}

		b.WriteString(applied.Replacement)
		si = words[endWord] + 1
		wi = endWord + 1
	}
	for ; si < len(segs); si++ {
		b.WriteString(segs[si].text)
	}
	return b.String()
}

// matchRule reports whether rule matches the word sequence starting at
// word index wi. Separators between matched words must be pure
// whitespace, otherwise "parra, keat" would match a "parra keat" rule.
// Returns the index of the last matched word.
func matchRule(segs []segSpan, words []int, wi int, rule Rule) (int, bool) {
	if wi+len(rule.tokens) > len(words) {
		return 0, false
	}
	for k, token := range rule.tokens {
		seg := segs[words[wi+k]]
		if !strings.EqualFold(seg.text, token) {
			return 0, false
		}
		if k > 0 {
			for si := words[wi+k-1] + 1; si < words[wi+k]; si++ {
				if !isWhitespace(segs[si].text) {
					return 0, false
				}
			}
		}
	}
	return wi + len(rule.tokens) - 1, true
}

// segSpan is a run of word runes or a run of non-word runes.
type segSpan struct {
	text string
	word bool
}

// segment splits text into alternating word and separator spans.
func segment(text string) []segSpan {
	var segs []segSpan
	start := 0
	var inWord, started bool
	for i, c := range text {
		w := isWordRune(c)
		if !started {
			inWord = w
			started = true
			continue
		}
		if w != inWord {
			segs = append(segs, segSpan{text: text[start:i], word: inWord})
			start = i
			inWord = w
		}
	}
	if started {
		segs = append(segs, segSpan{text: text[start:], word: inWord})
	}
	return segs
}

// isWordRune matches the rune classes that form override tokens.
// Apostrophes stay inside words so "don't" is a single token.
func isWordRune(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '\''
}

// splitWords tokenizes a phrase with the same word classes as segment.
func splitWords(phrase string) []string {
	return strings.FieldsFunc(phrase, func(c rune) bool {
		return !isWordRune(c)
	})
}

func isWhitespace(s string) bool {
	return strings.TrimSpace(s) == ""
}
