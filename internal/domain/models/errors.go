package models

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable marks an upstream fetch that failed at the transport level.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInvalidTicker marks a request without a usable ticker symbol.
	ErrInvalidTicker = errors.New("invalid ticker")
	// ErrSchemaMismatch marks a payload whose shape is not recognized.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrInsufficientHistory marks an indicator window that could not be filled.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrModelLoad marks a missing or corrupt classifier artifact.
	ErrModelLoad = errors.New("model load failure")
	// ErrArithmeticDegenerate marks a ratio with a zero denominator.
	ErrArithmeticDegenerate = errors.New("arithmetic degenerate")
)

// ProviderError wraps an upstream failure with the provider that produced it.
type ProviderError struct {
	Provider  string
	Err       error
	Retryable bool
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Unavailable builds a retryable ProviderError that matches ErrDataUnavailable.
func Unavailable(provider string, err error) error {
	return &ProviderError{
		Provider:  provider,
		Err:       fmt.Errorf("%w: %v", ErrDataUnavailable, err),
		Retryable: true,
	}
}
