package textproc

import (
	"strings"
	"unicode"
)

// Transform is a deterministic final text transform applied after both
// sanitize passes. A nil Transform leaves the text unchanged.
type Transform func(string) string

// StyleGuide is a Transform built from the post_processing prompt. Each
// non-empty prompt line selects a directive:
//
//	sentence case | uppercase | lowercase
//	prepend: <text>
//	append: <text>
//
// Case directives are mutually exclusive; the last one wins.
type StyleGuide struct {
	SentenceCase bool
	Uppercase    bool
	Lowercase    bool
	Prepend      string
	Append       string
}

// ParseStyle reads style directives from a prompt string. Unknown lines
// are ignored so the prompt can carry free-form notes.
func ParseStyle(prompt string) StyleGuide {
	var g StyleGuide
	for _, rawLine := range strings.Split(prompt, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		switch {
		case lower == "sentence case" || lower == "sentence-case" || lower == "capitalize sentences":
			g.SentenceCase = true
			g.Uppercase = false
			g.Lowercase = false
		case lower == "uppercase" || lower == "upper":
			g.Uppercase = true
			g.SentenceCase = false
			g.Lowercase = false
		case lower == "lowercase" || lower == "lower":
			g.Lowercase = true
			g.Uppercase = false
			g.SentenceCase = false
		case strings.HasPrefix(lower, "prepend:"):
			g.Prepend = strings.TrimSpace(line[len("prepend:"):])
		case strings.HasPrefix(lower, "append:"):
			g.Append = strings.TrimSpace(line[len("append:"):])
		}
	}
	return g
}

// IsZero reports whether the guide would leave any text unchanged.
func (g StyleGuide) IsZero() bool {
	return g == StyleGuide{}
}

// Transform applies the guide to text.
func (g StyleGuide) Transform(text string) string {
	result := text
	switch {
	case g.Uppercase:
		result = strings.ToUpper(result)
	case g.Lowercase:
		result = strings.ToLower(result)
	case g.SentenceCase:
		result = sentenceCase(result)
	}
	if g.Prepend != "" {
		result = strings.TrimSpace(g.Prepend + " " + result)
	}
	if g.Append != "" {
		result = strings.TrimSpace(result + " " + g.Append)
	}
	return result
}

// sentenceCase capitalizes the first letter of each sentence and
// lowercases the rest.
func sentenceCase(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	capitalizeNext := true
	for _, c := range text {
		if capitalizeNext && unicode.IsLetter(c) {
			b.WriteRune(unicode.ToUpper(c))
			capitalizeNext = false
		} else {
			b.WriteRune(unicode.ToLower(c))
		}
		switch c {
		case '.', '!', '?', '\n':
			capitalizeNext = true
		}
	}
	return b.String()
}
