package errs

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrConfig     = errors.New("configuration error")
	ErrOverlap    = errors.New("overlap error")
)

// Config error codes.
const (
	CodeNoCurrentSetting = "NoCurrentSetting"
	CodeMissingConfig    = "MissingBillingConfig"
	CodeInvalidConfig    = "InvalidBillingConfig"
	CodeConfigLocked     = "ConfigLocked"
	CodeInvalidPolicy    = "InvalidWarningPolicy"
)

// ValidationError reports a malformed time entry or request value. It is raised at the
// boundary where the value enters the system and is never corrected silently.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Reason)
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConfigError reports missing or invalid configuration, including the absence of a
// minijob limit for a date that needs one.
type ConfigError struct {
	Code   string
	Detail string
}

func (e *ConfigError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("configuration error: %s", e.Code)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Code, e.Detail)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// OverlapError reports two date ranges that must be disjoint but are not.
type OverlapError struct {
	Kind   string
	First  string
	Second string
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("overlapping %s: %s and %s", e.Kind, e.First, e.Second)
}

func (e *OverlapError) Is(target error) bool {
	return target == ErrOverlap
}

func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func Config(code, detail string) error {
	return &ConfigError{Code: code, Detail: detail}
}

// HasCode reports whether err wraps a ConfigError with the given code.
func HasCode(err error, code string) bool {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Code == code
	}
	return false
}
