package llm

import (
	"errors"
	"strings"
)

// Error kinds shared by every provider. Callers match them with errors.Is;
// none of them is retried inside this module.
var (
	// ErrRateLimited: the provider throttled the request and a later retry may pass.
	ErrRateLimited = errors.New("llm: rate limited")
	// ErrCreditsExhausted: the account balance or a hard quota is used up (402, or
	// a 429 carrying an explicit balance marker).
	ErrCreditsExhausted = errors.New("llm: credits exhausted")
	// ErrServiceUnavailable covers transport failures, 5xx answers and timeouts.
	ErrServiceUnavailable = errors.New("llm: service unavailable")
	// ErrNotConfigured is returned when no API key or client is set up.
	ErrNotConfigured = errors.New("llm: provider not configured")
)

// creditHints mark a 429 that is really an exhausted balance. Plain "quota"
// or "billing" wording is not enough: throttling answers use it too.
var creditHints = []string{"insufficient_quota", "insufficient_balance", "insufficient credits", "credit balance", "billing_hard_limit"}

// Classify maps an HTTP-ish status code and error message onto the shared kinds.
// Codes it does not recognise map to ErrServiceUnavailable for 5xx and nil otherwise.
func Classify(code int, message string) error {
	switch {
	case code == 402:
		return ErrCreditsExhausted
	case code == 429:
		if MentionsCredits(message) {
			return ErrCreditsExhausted
		}
		return ErrRateLimited
	case code == 408 || code >= 500:
		return ErrServiceUnavailable
	}
	return nil
}

// MentionsCredits reports whether msg carries an explicit exhausted-balance marker.
func MentionsCredits(msg string) bool {
	lower := strings.ToLower(msg)
	for _, h := range creditHints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}
