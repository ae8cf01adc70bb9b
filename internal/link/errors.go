package link

import "fmt"

// ConfigurationError reports a missing or inconsistent field detected
// at construction time. It is fatal to that link's setup only.
type ConfigurationError struct {
	// Link is the configuration name, if known.
	Link string
	// Field is the offending field.
	Field string
	// Reason describes the inconsistency.
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Link == "" {
		return fmt.Sprintf("invalid link configuration: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid link configuration %s: %s: %s", e.Link, e.Field, e.Reason)
}
