package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}

	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}

	return sb.String()
}

// ValidLogLevels returns the accepted log levels.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats returns the accepted log formats.
func ValidLogFormats() []string {
	return []string{"text", "json"}
}

// ValidTraceFormats returns the accepted trace formats.
func ValidTraceFormats() []string {
	return []string{"sqlite", "csv"}
}

// Validate checks c and returns every problem found.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if c.Version == "" {
		errs = append(errs, ValidationError{
			Field: "version", Value: c.Version, Message: "must not be empty",
		})
	}

	if c.LiveSplit.Address == "" {
		errs = append(errs, ValidationError{
			Field: "livesplit.address", Value: c.LiveSplit.Address,
			Message: "must not be empty",
		})
	}

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Log.Level)) {
		errs = append(errs, ValidationError{
			Field: "log.level", Value: c.Log.Level,
			Message: "must be one of " + strings.Join(ValidLogLevels(), ", "),
		})
	}

	if !slices.Contains(ValidLogFormats(), c.Log.Format) {
		errs = append(errs, ValidationError{
			Field: "log.format", Value: c.Log.Format,
			Message: "must be one of " + strings.Join(ValidLogFormats(), ", "),
		})
	}

	if c.Monitor.Port < 0 || c.Monitor.Port > 65535 {
		errs = append(errs, ValidationError{
			Field: "monitor.port", Value: c.Monitor.Port,
			Message: "must be a TCP port",
		})
	}

	if !slices.Contains(ValidTraceFormats(), c.Trace.Format) {
		errs = append(errs, ValidationError{
			Field: "trace.format", Value: c.Trace.Format,
			Message: "must be one of " + strings.Join(ValidTraceFormats(), ", "),
		})
	}

	if c.Attach.PollInterval <= 0 {
		errs = append(errs, ValidationError{
			Field: "attach.poll_interval", Value: c.Attach.PollInterval,
			Message: "must be positive",
		})
	}

	if c.Attach.RetryInterval <= 0 {
		errs = append(errs, ValidationError{
			Field: "attach.retry_interval", Value: c.Attach.RetryInterval,
			Message: "must be positive",
		})
	}

	for i, vc := range c.Versions {
		if _, err := vc.Build(); err != nil {
			errs = append(errs, ValidationError{
				Field: fmt.Sprintf("versions[%d]", i), Value: vc.Name,
				Message: err.Error(),
			})
		}
	}

	return errs
}
