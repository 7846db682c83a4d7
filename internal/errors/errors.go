// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNotFound         = errors.New("record not found")
	ErrNoHoldings       = errors.New("no holdings for instrument")
	ErrScripNotFound    = errors.New("scrip not found in portfolio")
	ErrRuleNotFound     = errors.New("alert rule not found")
	ErrDatabase         = errors.New("database error")
	ErrQuoteUnavailable = errors.New("quote unavailable")
	ErrConfigInvalid    = errors.New("invalid configuration")
)

// ValidationError represents malformed input, rejected before any state
// mutation.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// QuoteError represents a per-instrument quote provider failure. These are
// non-fatal and aggregated into a batch result by the price updater.
type QuoteError struct {
	ScripCode string
	Source    string
	Err       error
}

func (e *QuoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("quote error [%s] %s: %v", e.Source, e.ScripCode, e.Err)
	}
	return fmt.Sprintf("quote error [%s] %s", e.Source, e.ScripCode)
}

func (e *QuoteError) Unwrap() error {
	return e.Err
}

// NewQuoteError creates a new QuoteError.
func NewQuoteError(scripCode, source string, err error) *QuoteError {
	return &QuoteError{
		ScripCode: scripCode,
		Source:    source,
		Err:       err,
	}
}

// RatioError represents a malformed bonus/split ratio string. The only
// accepted form is "<int>:<int>" with both parts strictly positive.
type RatioError struct {
	Ratio string
}

func (e *RatioError) Error() string {
	return fmt.Sprintf("invalid ratio %q: want \"<int>:<int>\" with positive integers", e.Ratio)
}
