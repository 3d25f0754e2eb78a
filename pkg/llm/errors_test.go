package llm

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsQuotaError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("connection refused"), false},
		{"429 provider error", &ProviderError{Provider: "gemini", StatusCode: 429, Body: "rate limited"}, true},
		{"500 provider error", &ProviderError{Provider: "gemini", StatusCode: 500, Body: "boom"}, false},
		{"quota substring", errors.New("Resource exhausted: quota exceeded for model"), true},
		{"429 substring", errors.New("google returned HTTP 429"), true},
		{"wrapped provider error", fmt.Errorf("chain failed: %w", &ProviderError{Provider: "gemini", StatusCode: 429}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsQuotaError(tt.err); got != tt.want {
				t.Errorf("IsQuotaError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
