package triage

import "fmt"

// ConfigurationError reports a required setting that no source provided.
type ConfigurationError struct {
	Setting string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Message)
}
