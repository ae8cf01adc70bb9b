// Package overlay layers line-anchored rewrite rules onto a base strategy.
//
// An Overlay is composition, not inheritance: it runs the base block
// strategy first and then applies its rules, in order, to the output.
// The built-in rules convert the file-summary line and single-word
// section headers between the documentation and source conventions.
// Rules silently no-op when their pattern is absent; a missing construct
// is a valid document, not an error.
package overlay

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/weftlabs/weft/internal/engine"
)

// Rule is a single line-anchored substitution over transformed text.
type Rule interface {
	// Name identifies the rule in logs and error messages.
	Name() string

	// Apply rewrites text and returns the result. Absence of a match
	// is a no-op, never an error.
	Apply(text string) (string, error)

	// Invert returns the rule for the opposite direction.
	Invert() Rule
}

// Overlay wraps a base strategy with ordered rules applied to its output.
type Overlay struct {
	base  engine.Strategy
	rules []Rule
}

// New composes rules onto a base strategy. Rules run in the given order
// after the base transform.
func New(base engine.Strategy, rules ...Rule) *Overlay {
	return &Overlay{base: base, rules: rules}
}

// Name identifies the composed strategy.
func (o *Overlay) Name() string { return o.base.Name() + "+overlay" }

// Base returns the wrapped strategy.
func (o *Overlay) Base() engine.Strategy { return o.base }

// Transform runs the base strategy and then each rule in order.
func (o *Overlay) Transform(text string) (string, error) {
	out, err := o.base.Transform(text)
	if err != nil {
		return "", err
	}
	for _, rule := range o.rules {
		out, err = rule.Apply(out)
		if err != nil {
			return "", fmt.Errorf("overlay rule %s: %w", rule.Name(), err)
		}
	}
	return out, nil
}

// Invert returns an overlay wrapping the base's inverse with every rule
// inverted, preserving rule order.
func (o *Overlay) Invert() engine.Strategy {
	rules := make([]Rule, len(o.rules))
	for i, r := range o.rules {
		rules[i] = r.Invert()
	}
	return New(o.base.Invert(), rules...)
}

var _ engine.Strategy = (*Overlay)(nil)

// SummaryRule converts the leading file-summary line between the two
// representations. In the documentation form the summary is written as
// the comment prefix followed by "# # "; in the source form it carries
// the language's canonical summary marker (";;; " for Emacs Lisp).
//
// The rule only ever touches text before the first line break. Going
// doc to source it runs after the base comment pass, so it accepts an
// optional extra comment prefix added by that pass.
type SummaryRule struct {
	prefix  string
	marker  string
	forward bool
	match   *regexp.Regexp
}

// NewSummaryRule builds the summary rule. prefix is the link's comment
// prefix, marker the source-side summary marker. forward selects the
// doc-to-source direction.
func NewSummaryRule(prefix, marker string, forward bool) *SummaryRule {
	r := &SummaryRule{prefix: prefix, marker: marker, forward: forward}
	p := regexp.QuoteMeta(prefix)
	if forward {
		r.match = regexp.MustCompile(`^(?:` + p + `)?` + p + `# # `)
	} else {
		r.match = regexp.MustCompile(`^` + regexp.QuoteMeta(marker))
	}
	return r
}

// Name identifies the rule.
func (r *SummaryRule) Name() string {
	if r.forward {
		return "summary-to-source"
	}
	return "summary-to-doc"
}

// Apply rewrites the summary marker within the first logical line only.
func (r *SummaryRule) Apply(text string) (string, error) {
	firstLen := len(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		firstLen = i
	}
	first := text[:firstLen]

	loc := r.match.FindStringIndex(first)
	if loc == nil {
		return text, nil
	}

	replacement := r.marker
	if !r.forward {
		replacement = r.prefix + "# # "
	}
	return replacement + first[loc[1]:] + text[firstLen:], nil
}

// Invert returns the rule for the opposite direction.
func (r *SummaryRule) Invert() Rule {
	return NewSummaryRule(r.prefix, r.marker, !r.forward)
}

var _ Rule = (*SummaryRule)(nil)

// HeaderRule converts single-word section headers. The documentation
// form writes them as a commented level-1 heading ("<prefix>* Word");
// the source form as a named section comment ("<heading> Word:").
// Multi-word headers are a known limitation and pass through untouched.
type HeaderRule struct {
	prefix  string
	heading string
	forward bool
	match   *regexp.Regexp
}

// NewHeaderRule builds the header rule. heading is the source-side
// heading prefix (";;;" for Emacs Lisp). forward selects the
// doc-to-source direction.
func NewHeaderRule(prefix, heading string, forward bool) *HeaderRule {
	r := &HeaderRule{prefix: prefix, heading: heading, forward: forward}
	p := regexp.QuoteMeta(prefix)
	if forward {
		// Tolerates the extra prefix the base comment pass adds.
		r.match = regexp.MustCompile(`(?m)^(?:` + p + `)?` + p + `\* (\w+)$`)
	} else {
		r.match = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(heading) + ` (\w+):$`)
	}
	return r
}

// Name identifies the rule.
func (r *HeaderRule) Name() string {
	if r.forward {
		return "header-to-source"
	}
	return "header-to-doc"
}

// Apply rewrites every matching header line.
func (r *HeaderRule) Apply(text string) (string, error) {
	if r.forward {
		return r.match.ReplaceAllString(text, r.heading+" $1:"), nil
	}
	return r.match.ReplaceAllString(text, r.prefix+"* $1"), nil
}

// Invert returns the rule for the opposite direction.
func (r *HeaderRule) Invert() Rule {
	return NewHeaderRule(r.prefix, r.heading, !r.forward)
}

var _ Rule = (*HeaderRule)(nil)
