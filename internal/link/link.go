package link

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/weftlabs/weft/internal/engine"
	"github.com/weftlabs/weft/internal/engine/block"
	"github.com/weftlabs/weft/internal/engine/buffer"
	"github.com/weftlabs/weft/internal/engine/overlay"
)

// Direction tags which canonical strategy a configuration applies when
// cloning from This to That.
type Direction uint8

const (
	// DocToSource comments prose regions: This is the documentation
	// form, That the source form.
	DocToSource Direction = iota

	// SourceToDoc uncomments prose regions: This is the source form,
	// That the documentation form.
	SourceToDoc
)

// String returns the direction tag name.
func (d Direction) String() string {
	switch d {
	case DocToSource:
		return "doc-to-source"
	case SourceToDoc:
		return "source-to-doc"
	default:
		return "unknown"
	}
}

// Configuration is the parameterized descriptor of one buffer pairing.
// It holds no transformation state; every Clone call is a pure function
// of the input text and these fields.
type Configuration struct {
	// Name identifies the link type, e.g. "org-el".
	Name string

	// This identifies the owning side's buffer or file.
	This string

	// That identifies the generated side. The caller supplies it
	// explicitly (usually derived from This by swapping extensions);
	// the engine never touches the file system to derive it.
	That string

	// Prefix is the comment prefix toggled on prose lines.
	Prefix string

	// StartPattern and EndPattern delimit code regions, read in the
	// prose direction.
	StartPattern string
	EndPattern   string

	// CaseSensitive controls delimiter pattern matching. Most links
	// match insensitively; Clojure links must be sensitive so a
	// lowercase delimiter literal in prose is not taken for a marker.
	CaseSensitive bool

	// Direction selects the canonical strategy for This -> That.
	Direction Direction

	// Overlay enables the summary-line and header rules.
	Overlay bool

	// SummaryMarker is the source-side file-summary marker, e.g. ";;; ".
	SummaryMarker string

	// HeaderPrefix is the source-side section heading prefix, e.g. ";;;".
	HeaderPrefix string

	// Rules are extra overlay rules appended after the built-ins, in
	// their doc-to-source orientation.
	Rules []overlay.Rule

	// Log reports recovered region errors. Defaults to slog.Default.
	Log *slog.Logger
}

// Validate checks required fields eagerly. It returns a
// *ConfigurationError describing the first inconsistency found.
func (c *Configuration) Validate() error {
	if c.Name == "" {
		return &ConfigurationError{Field: "name", Reason: "must not be empty"}
	}
	if c.Prefix == "" {
		return &ConfigurationError{Link: c.Name, Field: "prefix", Reason: "must not be empty"}
	}
	if c.StartPattern == "" {
		return &ConfigurationError{Link: c.Name, Field: "start-pattern", Reason: "must not be empty"}
	}
	if c.EndPattern == "" {
		return &ConfigurationError{Link: c.Name, Field: "end-pattern", Reason: "must not be empty"}
	}
	if _, err := regexp.Compile(c.StartPattern); err != nil {
		return &ConfigurationError{Link: c.Name, Field: "start-pattern", Reason: err.Error()}
	}
	if _, err := regexp.Compile(c.EndPattern); err != nil {
		return &ConfigurationError{Link: c.Name, Field: "end-pattern", Reason: err.Error()}
	}
	if c.Direction != DocToSource && c.Direction != SourceToDoc {
		return &ConfigurationError{Link: c.Name, Field: "direction", Reason: "unknown direction tag"}
	}
	if c.Overlay {
		if c.SummaryMarker == "" {
			return &ConfigurationError{Link: c.Name, Field: "summary-marker", Reason: "required when overlay is enabled"}
		}
		if c.HeaderPrefix == "" {
			return &ConfigurationError{Link: c.Name, Field: "header-prefix", Reason: "required when overlay is enabled"}
		}
	}
	return nil
}

// Strategy builds the transformation pipeline for This -> That.
func (c *Configuration) Strategy() (engine.Strategy, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	mode := block.Comment
	if c.Direction == SourceToDoc {
		mode = block.Uncomment
	}

	var opts []block.Option
	if c.Log != nil {
		opts = append(opts, block.WithLogger(c.Log))
	}
	base, err := block.New(mode, c.Prefix, c.StartPattern, c.EndPattern, c.CaseSensitive, opts...)
	if err != nil {
		return nil, &ConfigurationError{Link: c.Name, Field: "patterns", Reason: err.Error()}
	}

	if !c.Overlay && len(c.Rules) == 0 {
		return base, nil
	}

	forward := c.Direction == DocToSource
	var rules []overlay.Rule
	if c.Overlay {
		rules = append(rules,
			overlay.NewSummaryRule(c.Prefix, c.SummaryMarker, forward),
			overlay.NewHeaderRule(c.Prefix, c.HeaderPrefix, forward),
		)
	}
	for _, r := range c.Rules {
		if forward {
			rules = append(rules, r)
		} else {
			rules = append(rules, r.Invert())
		}
	}
	return overlay.New(base, rules...), nil
}

// Clone applies the forward transformation to text, returning the
// content for the That side. On failure the caller's destination is
// untouched; the error names the link and the owning buffer.
func (c *Configuration) Clone(text string) (string, error) {
	strategy, err := c.Strategy()
	if err != nil {
		return "", err
	}
	out, err := strategy.Transform(text)
	if err != nil {
		return "", fmt.Errorf("clone %s (%s -> %s): %w", c.Name, c.This, c.That, err)
	}
	return out, nil
}

// CloneBuffer applies the forward transformation from one buffer into
// another. The destination is replaced wholesale on success and left
// untouched on failure.
func (c *Configuration) CloneBuffer(this, that *buffer.Buffer) error {
	out, err := c.Clone(this.Text())
	if err != nil {
		return err
	}
	that.SetText(out)
	return nil
}

// Invert returns the counterpart configuration: buffer roles swapped,
// direction flipped, everything else preserved.
func (c *Configuration) Invert() *Configuration {
	inv := *c
	inv.This, inv.That = c.That, c.This
	if c.Direction == DocToSource {
		inv.Direction = SourceToDoc
	} else {
		inv.Direction = DocToSource
	}
	return &inv
}
