package llm

import (
	"context"
)

// Message is one turn of a conversation. Role is "system", "user" or
// "assistant"; backends translate it to their own role names.
type Message struct {
	Role    string
	Content string
}

// Option tunes a single Chat or Generate call.
type Option func(*Options)

type Options struct {
	Temperature float64
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

// LLMProvider is the synchronous contract every chat backend satisfies.
// Non-2xx replies surface as *ProviderError so callers can inspect the
// status code.
type LLMProvider interface {
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate wraps a single prompt as a one-message chat.
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
