package textproc

// Processor runs the full post-processing pipeline:
// sanitize, overrides, sanitize again, optional style transform.
// Its output is the only text that may reach the injector.
type Processor struct {
	rules     SanitizeRules
	overrides *OverrideSet
	style     Transform
}

// New builds a Processor. overrides maps spoken phrases to
// replacements (keys matched case-insensitively); stylePrompt is the
// post_processing prompt, empty for no style transform.
func New(overrides map[string]string, trimEdges bool, stylePrompt string) *Processor {
	p := &Processor{
		rules:     SanitizeRules{TrimEdges: trimEdges},
		overrides: NewOverrideSet(overrides),
	}
	if guide := ParseStyle(stylePrompt); !guide.IsZero() {
		p.style = guide.Transform
	}
	return p
}

// WithStyle replaces the style transform, for callers that plug in
// their own final transform instead of a prompt-derived one.
func (p *Processor) WithStyle(t Transform) *Processor {
	p.style = t
	return p
}

// Process transforms a raw transcript into final injectable text.
// The post-override sanitize pass repeats the same rules because
// replacement text is operator-configured input.
func (p *Processor) Process(raw string) string {
	s := p.rules.Apply(raw)
	s = p.overrides.Apply(s)
	s = p.rules.Apply(s)
	if p.style != nil {
		s = p.style(s)
	}
	return s
}
