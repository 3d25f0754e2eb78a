package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ProviderError is returned when a provider answers with a non-2xx status.
// It keeps the status code so callers can classify quota exhaustion.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error: status %d, body: %s", e.Provider, e.StatusCode, e.Body)
}

// IsQuotaError reports whether err looks like a rate-limit / quota failure:
// HTTP 429, or error text containing "quota" or "429".
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var perr *ProviderError
	if errors.As(err, &perr) && perr.StatusCode == http.StatusTooManyRequests {
		return true
	}

	text := strings.ToLower(err.Error())
	return strings.Contains(text, "quota") || strings.Contains(text, "429")
}
