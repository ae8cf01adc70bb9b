// Package config loads weft's TOML configuration.
//
// Configuration is optional: a missing file yields the defaults.
// Custom link types declared in [[link]] tables are validated eagerly
// and registered next to the built-ins.
package config

import (
	"time"

	"github.com/weftlabs/weft/internal/link"
)

// Config is the top-level weft configuration.
type Config struct {
	// Debounce is the delay before a file change triggers a clone,
	// in milliseconds.
	Debounce int `toml:"debounce_ms"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// LogFile receives a JSON log stream in addition to stderr.
	LogFile string `toml:"log_file"`

	// StatePath overrides where sync state is persisted.
	StatePath string `toml:"state_path"`

	// Links declares custom link types.
	Links []LinkSpec `toml:"link"`
}

// LinkSpec declares a custom link type in the configuration file.
type LinkSpec struct {
	Name          string `toml:"name"`
	FromExt       string `toml:"from_ext"`
	ToExt         string `toml:"to_ext"`
	Prefix        string `toml:"prefix"`
	StartPattern  string `toml:"start_pattern"`
	EndPattern    string `toml:"end_pattern"`
	CaseSensitive bool   `toml:"case_sensitive"`
	Direction     string `toml:"direction"` // "doc-to-source" or "source-to-doc"
	Overlay       bool   `toml:"overlay"`
	SummaryMarker string `toml:"summary_marker"`
	HeaderPrefix  string `toml:"header_prefix"`

	// RuleScript is an optional Lua file defining extra line rules.
	RuleScript string `toml:"rule_script"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Debounce: 150,
		LogLevel: "info",
	}
}

// DebounceDelay returns the debounce setting as a duration.
func (c Config) DebounceDelay() time.Duration {
	if c.Debounce <= 0 {
		return 150 * time.Millisecond
	}
	return time.Duration(c.Debounce) * time.Millisecond
}

// Configuration builds a link configuration from the spec for a
// concrete this/that pair.
func (s LinkSpec) Configuration(this, that string) *link.Configuration {
	dir := link.SourceToDoc
	if s.Direction == "doc-to-source" {
		dir = link.DocToSource
	}
	return &link.Configuration{
		Name:          s.Name,
		This:          this,
		That:          that,
		Prefix:        s.Prefix,
		StartPattern:  s.StartPattern,
		EndPattern:    s.EndPattern,
		CaseSensitive: s.CaseSensitive,
		Direction:     dir,
		Overlay:       s.Overlay,
		SummaryMarker: s.SummaryMarker,
		HeaderPrefix:  s.HeaderPrefix,
	}
}

// Validate checks every declared link spec by building and validating
// a throwaway configuration.
func (c Config) Validate() error {
	for _, s := range c.Links {
		if s.Direction != "" && s.Direction != "doc-to-source" && s.Direction != "source-to-doc" {
			return &link.ConfigurationError{Link: s.Name, Field: "direction", Reason: "must be doc-to-source or source-to-doc"}
		}
		if err := s.Configuration("this", "that").Validate(); err != nil {
			return err
		}
	}
	return nil
}
