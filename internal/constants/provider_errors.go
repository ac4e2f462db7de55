package constants

// Provider Error Codes
// These constants define specific error scenarios for external flight-data providers

// Credential / transport errors
const (
	ErrCodeInvalidAPIKey = "INVALID_API_KEY"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeNetworkError  = "NETWORK_ERROR"
	ErrCodeTimeout       = "TIMEOUT"
)

// Data errors
const (
	ErrCodeInvalidDataFormat = "INVALID_DATA_FORMAT"
	ErrCodeNoMatch           = "NO_MATCH"
	ErrCodeIncompleteData    = "INCOMPLETE_DATA"
	ErrCodeAmbiguousMatch    = "AMBIGUOUS_MATCH"
)

// Capability / budget errors
const (
	ErrCodeCapabilityUnsupported = "CAPABILITY_UNSUPPORTED"
	ErrCodeBudgetExhausted       = "BUDGET_EXHAUSTED"
)

// Error Messages
// Human-readable messages corresponding to error codes

var ProviderErrorMessages = map[string]string{
	ErrCodeInvalidAPIKey:         "The configured API key was rejected by the provider",
	ErrCodeRateLimited:           "The provider reported that its rate limit was exceeded",
	ErrCodeNetworkError:          "A network error occurred while contacting the provider",
	ErrCodeTimeout:               "The provider call timed out",
	ErrCodeInvalidDataFormat:     "The provider returned data in an unexpected format",
	ErrCodeNoMatch:               "No flight matched the given airline, number and date",
	ErrCodeIncompleteData:        "The provider response was missing required fields",
	ErrCodeAmbiguousMatch:        "Multiple flights matched; provide a departure airport to disambiguate",
	ErrCodeCapabilityUnsupported: "No configured provider supports this capability",
	ErrCodeBudgetExhausted:       "The provider call budget for the current window is exhausted",
}

// GetErrorMessage returns the human-readable message for a code, or the code itself
func GetErrorMessage(code string) string {
	if msg, ok := ProviderErrorMessages[code]; ok {
		return msg
	}
	return code
}
