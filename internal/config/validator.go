package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hugo-lorenzo-mato/exitguard/internal/logging"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateFault(&cfg.Fault)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

func (v *Validator) validateLog(cfg *LogConfig) {
	if !slices.Contains(logging.ValidLevels, cfg.Level) {
		v.addError("log.level", cfg.Level, "must be one of "+strings.Join(logging.ValidLevels, ", "))
	}
	if !slices.Contains(logging.ValidFormats, cfg.Format) {
		v.addError("log.format", cfg.Format, "must be one of "+strings.Join(logging.ValidFormats, ", "))
	}
}

func (v *Validator) validateFault(cfg *FaultConfig) {
	if strings.TrimSpace(cfg.WorkDir) == "" {
		v.addError("fault.workdir", cfg.WorkDir, "required")
	}
	if cfg.TraceFile != "" && cfg.TraceFile == cfg.WorkDir {
		v.addError("fault.trace_file", cfg.TraceFile, "must be a file, not the work directory")
	}
}

// Validate is a convenience wrapper around NewValidator().Validate.
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}
