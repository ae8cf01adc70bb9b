package engine

import "strings"

// Strategy is a pure text transformation with a structural inverse.
//
// Transform returns the rewritten text; it must preserve the line count
// of its input and must not retain state between calls. Invert returns a
// fully configured counterpart strategy such that applying a strategy
// and then its inverse reproduces the original text, except for the
// documented summary-line case.
type Strategy interface {
	// Name identifies the strategy in logs and error messages.
	Name() string

	// Transform rewrites text and returns the new content.
	Transform(text string) (string, error)

	// Invert returns the structurally opposite strategy.
	Invert() Strategy
}

// SplitLines splits text into lines without terminators and reports
// whether the text ended with a newline. A final newline does not
// produce a trailing empty line.
func SplitLines(text string) (lines []string, trailingNewline bool) {
	if text == "" {
		return []string{}, false
	}
	trailingNewline = strings.HasSuffix(text, "\n")
	if trailingNewline {
		text = text[:len(text)-1]
	}
	return strings.Split(text, "\n"), trailingNewline
}

// JoinLines is the inverse of SplitLines.
func JoinLines(lines []string, trailingNewline bool) string {
	s := strings.Join(lines, "\n")
	if trailingNewline {
		s += "\n"
	}
	return s
}
