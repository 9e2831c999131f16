package repository

import (
	"errors"
	"fmt"
)

// Provider failure taxonomy. Rate limits and generic provider failures
// both push the orchestrator down its fallback chain; insufficient data
// yields an empty-but-valid result rather than an error.
var (
	ErrRateLimited      = errors.New("provider rate limited")
	ErrProvider         = errors.New("provider error")
	ErrInsufficientData = errors.New("insufficient data")
)

// RateLimitedError wraps ErrRateLimited with the provider name.
func RateLimitedError(provider string) error {
	return fmt.Errorf("%s: %w", provider, ErrRateLimited)
}

// ProviderFailure wraps an upstream failure so callers can match it with
// errors.Is(err, ErrProvider).
func ProviderFailure(provider string, err error) error {
	return fmt.Errorf("%s: %w: %v", provider, ErrProvider, err)
}

// IsRetriable reports whether err should trigger the next fallback tier.
func IsRetriable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrProvider)
}
