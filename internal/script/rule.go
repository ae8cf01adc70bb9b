package script

import (
	"github.com/weftlabs/weft/internal/engine"
	"github.com/weftlabs/weft/internal/engine/overlay"
)

// Rule adapts a loaded script into an overlay rule, applying the
// scripted function to every line of the transformed text.
type Rule struct {
	rules   *Rules
	forward bool
}

// ForwardRule returns the script's doc-to-source rule.
func (r *Rules) ForwardRule() *Rule {
	return &Rule{rules: r, forward: true}
}

// ReverseRule returns the script's source-to-doc rule.
func (r *Rules) ReverseRule() *Rule {
	return &Rule{rules: r, forward: false}
}

// Name identifies the rule.
func (r *Rule) Name() string {
	if r.forward {
		return "script-forward(" + r.rules.Source() + ")"
	}
	return "script-reverse(" + r.rules.Source() + ")"
}

// Apply runs the scripted function over each line. Any script error
// fails the whole transform; the caller's destination stays untouched.
func (r *Rule) Apply(text string) (string, error) {
	lines, trailing := engine.SplitLines(text)
	out := make([]string, len(lines))
	for i, line := range lines {
		var (
			replaced string
			err      error
		)
		if r.forward {
			replaced, err = r.rules.Forward(line)
		} else {
			replaced, err = r.rules.Reverse(line)
		}
		if err != nil {
			return "", err
		}
		out[i] = replaced
	}
	return engine.JoinLines(out, trailing), nil
}

// Invert returns the rule for the opposite direction.
func (r *Rule) Invert() overlay.Rule {
	return &Rule{rules: r.rules, forward: !r.forward}
}

var _ overlay.Rule = (*Rule)(nil)
