package providers

import (
	"errors"
	"fmt"

	"skydeck/flightdeck/internal/constants"
)

// ProviderError represents a provider-specific error
type ProviderError struct {
	Code    string
	Message string
	Details string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ErrBudgetExhausted signals that every eligible provider was skipped because
// its call budget for the current window is spent. This is a deferral, not a
// failure; callers push the flight to the next tick.
var ErrBudgetExhausted = errors.New(constants.GetErrorMessage(constants.ErrCodeBudgetExhausted))

// ErrNoProvider signals that no provider in the chain supports the requested
// capability.
var ErrNoProvider = errors.New(constants.GetErrorMessage(constants.ErrCodeCapabilityUnsupported))

// IsDeferral reports whether an error represents budget exhaustion rather
// than a real failure.
func IsDeferral(err error) bool {
	return errors.Is(err, ErrBudgetExhausted)
}
