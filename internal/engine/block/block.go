// Package block implements the two comment-toggling transform strategies.
//
// Comment rewrites the documentation form into the source form by
// prefixing every prose line with the link's comment prefix; Uncomment
// is its inverse and strips the prefix again. Code and delimiter lines
// pass through verbatim in both directions, so applying one strategy
// and then the other reproduces the starting text.
package block

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/weftlabs/weft/internal/engine"
	"github.com/weftlabs/weft/internal/engine/region"
)

// Mode selects which way the comment prefix is toggled.
type Mode uint8

const (
	// Comment prefixes prose lines: documentation form to source form.
	Comment Mode = iota
	// Uncomment strips the prefix from prose lines: source form to
	// documentation form.
	Uncomment
)

// String returns the strategy name for the mode.
func (m Mode) String() string {
	if m == Comment {
		return "comment-block"
	}
	return "uncomment-block"
}

// Strategy toggles line-prefix commenting across prose regions.
type Strategy struct {
	mode          Mode
	prefix        string
	startPattern  string
	endPattern    string
	caseSensitive bool
	matcher       *region.Matcher
	log           *slog.Logger
}

// Option configures a Strategy.
type Option func(*Strategy)

// WithLogger sets the logger used to report recovered region errors.
func WithLogger(log *slog.Logger) Option {
	return func(s *Strategy) {
		s.log = log
	}
}

// New creates a block strategy. prefix is the comment prefix toggled on
// prose lines; startPattern and endPattern delimit code regions.
func New(mode Mode, prefix, startPattern, endPattern string, caseSensitive bool, opts ...Option) (*Strategy, error) {
	matcher, err := region.NewMatcher(startPattern, endPattern, caseSensitive)
	if err != nil {
		return nil, err
	}
	s := &Strategy{
		mode:          mode,
		prefix:        prefix,
		startPattern:  startPattern,
		endPattern:    endPattern,
		caseSensitive: caseSensitive,
		matcher:       matcher,
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name identifies the strategy.
func (s *Strategy) Name() string { return s.mode.String() }

// Mode returns the strategy's direction.
func (s *Strategy) Mode() Mode { return s.mode }

// Prefix returns the comment prefix.
func (s *Strategy) Prefix() string { return s.prefix }

// Transform rewrites text, toggling the comment prefix on every prose
// line. The output always has exactly one line per input line; code and
// delimiter lines are copied verbatim. A malformed region partition is
// logged and recovery continues with the best-effort classification.
func (s *Strategy) Transform(text string) (string, error) {
	lines, trailing := engine.SplitLines(text)

	regions, err := s.matcher.Classify(lines)
	if err != nil {
		s.log.Warn("recovering from unbalanced region delimiters",
			"strategy", s.Name(), "error", err)
	}

	out := make([]string, len(lines))
	copy(out, lines)
	for _, r := range regions {
		if r.Kind != region.Prose {
			continue
		}
		for i := r.Start; i < r.End; i++ {
			out[i] = s.toggle(lines[i])
		}
	}
	return engine.JoinLines(out, trailing), nil
}

// toggle applies the prefix change to a single prose line.
func (s *Strategy) toggle(line string) string {
	switch s.mode {
	case Comment:
		// Empty lines are commented too; Uncomment tolerates the
		// resulting trailing whitespace, keeping round-trips exact.
		return s.prefix + line
	default:
		if strings.HasPrefix(line, s.prefix) {
			return line[len(s.prefix):]
		}
		// Hand-written files often comment blank lines without the
		// prefix's trailing spaces.
		if line == strings.TrimRight(s.prefix, " ") {
			return ""
		}
		return line
	}
}

// Invert returns the opposite strategy with identical configuration.
func (s *Strategy) Invert() engine.Strategy {
	inv := &Strategy{
		prefix:        s.prefix,
		startPattern:  s.startPattern,
		endPattern:    s.endPattern,
		caseSensitive: s.caseSensitive,
		matcher:       s.matcher,
		log:           s.log,
	}
	if s.mode == Comment {
		inv.mode = Uncomment
	} else {
		inv.mode = Comment
	}
	return inv
}

var _ engine.Strategy = (*Strategy)(nil)

// Describe returns a short configuration summary for diagnostics.
func (s *Strategy) Describe() string {
	return fmt.Sprintf("%s prefix=%q start=%q end=%q case-sensitive=%t",
		s.Name(), s.prefix, s.startPattern, s.endPattern, s.caseSensitive)
}
