package llm

import (
	"context"
	"errors"
)

// ErrProviderFailure wraps errors returned by the model API.
var ErrProviderFailure = errors.New("llm provider failure")

// Provider generates a response for a conversation.
type Provider interface {
	Complete(ctx context.Context, messages []Message, opts ...CompletionOption) (Response, error)
}

// CompletionOptions holds per-request settings.
type CompletionOptions struct {
	Model       string
	Temperature *float32
	MaxTokens   int
	Stop        []string
}

// CompletionOption configures one Complete call.
type CompletionOption func(*CompletionOptions)

// WithModel overrides the configured model.
func WithModel(model string) CompletionOption {
	return func(o *CompletionOptions) { o.Model = model }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) CompletionOption {
	return func(o *CompletionOptions) { o.Temperature = &t }
}

// WithMaxTokens caps the generated tokens.
func WithMaxTokens(n int) CompletionOption {
	return func(o *CompletionOptions) { o.MaxTokens = n }
}

// WithStop sets stop sequences.
func WithStop(stop ...string) CompletionOption {
	return func(o *CompletionOptions) { o.Stop = stop }
}

// Logger defines the logging methods the provider uses.
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}
