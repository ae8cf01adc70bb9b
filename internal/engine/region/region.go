// Package region partitions buffer lines into prose and code regions.
//
// Regions are derived, never stored: every transformation reclassifies
// the current buffer content from scratch. Delimiter lines are emitted
// as their own single-line regions so that the partition is total —
// every line belongs to exactly one region and concatenating the
// regions in order reconstructs the input.
package region

import (
	"fmt"
	"regexp"
)

// Kind classifies a region's lines.
type Kind uint8

const (
	// Prose lines live outside code blocks. They are the lines the
	// block strategies comment and uncomment.
	Prose Kind = iota

	// Code lines live between a start and an end delimiter and are
	// always copied verbatim.
	Code

	// Delimiter marks a single boundary line, preserved verbatim and
	// excluded from both adjacent regions.
	Delimiter
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case Prose:
		return "prose"
	case Code:
		return "code"
	case Delimiter:
		return "delimiter"
	default:
		return "unknown"
	}
}

// Region is a maximal run of consecutive lines with one classification.
// Start is inclusive, End exclusive, both line indexes.
type Region struct {
	Kind  Kind
	Start int
	End   int
}

// Len returns the number of lines in the region.
func (r Region) Len() int { return r.End - r.Start }

// MalformedRegionError reports unbalanced delimiters: the scan reached
// end of buffer while still inside a code region. The partition
// returned alongside it is still usable; the trailing lines keep the
// kind implied by the last delimiter.
type MalformedRegionError struct {
	// OpenLine is the line index of the start delimiter left open.
	OpenLine int
}

func (e *MalformedRegionError) Error() string {
	return fmt.Sprintf("unbalanced region delimiters: code region opened at line %d is never closed", e.OpenLine+1)
}

// Matcher holds the compiled delimiter patterns for one link.
type Matcher struct {
	start *regexp.Regexp
	end   *regexp.Regexp
}

// NewMatcher compiles the delimiter patterns. startPattern marks where a
// code region begins and endPattern where it ends, both read in the
// prose direction. When caseSensitive is false the patterns match
// case-insensitively.
func NewMatcher(startPattern, endPattern string, caseSensitive bool) (*Matcher, error) {
	if !caseSensitive {
		startPattern = "(?i)" + startPattern
		endPattern = "(?i)" + endPattern
	}
	start, err := regexp.Compile(startPattern)
	if err != nil {
		return nil, fmt.Errorf("compiling region start pattern: %w", err)
	}
	end, err := regexp.Compile(endPattern)
	if err != nil {
		return nil, fmt.Errorf("compiling region end pattern: %w", err)
	}
	return &Matcher{start: start, end: end}, nil
}

// Classify partitions lines into regions. The scan starts in Prose and
// flips at each delimiter matching the pattern appropriate to the
// current kind; the delimiter line itself becomes a Delimiter region.
//
// Unbalanced delimiters are not fatal: the remaining lines keep the
// current kind and a *MalformedRegionError is returned together with
// the best-effort partition.
func (m *Matcher) Classify(lines []string) ([]Region, error) {
	var (
		regions  []Region
		kind     = Prose
		runStart = 0
		openLine = -1
	)

	flush := func(end int) {
		if end > runStart {
			regions = append(regions, Region{Kind: kind, Start: runStart, End: end})
		}
	}

	for i, line := range lines {
		var boundary bool
		switch kind {
		case Prose:
			boundary = m.start.MatchString(line)
		case Code:
			boundary = m.end.MatchString(line)
		}
		if !boundary {
			continue
		}

		flush(i)
		regions = append(regions, Region{Kind: Delimiter, Start: i, End: i + 1})
		if kind == Prose {
			kind = Code
			openLine = i
		} else {
			kind = Prose
		}
		runStart = i + 1
	}

	flush(len(lines))

	if kind == Code {
		return regions, &MalformedRegionError{OpenLine: openLine}
	}
	return regions, nil
}
