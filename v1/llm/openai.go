package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Aleph-Alpha/microcore/v1/observability"
)

// OpenAI is a Provider for OpenAI-compatible APIs. It uses the chat
// completions endpoint for chat models and the legacy completions endpoint
// otherwise, see IsChatModel.
type OpenAI struct {
	client   *openai.Client
	cfg      Config
	log      Logger
	observer observability.Observer
}

var _ Provider = (*OpenAI)(nil)

// OpenAIOption configures NewOpenAI.
type OpenAIOption func(*OpenAI)

// WithLogger logs requests at debug level and failures at error level.
func WithLogger(log Logger) OpenAIOption {
	return func(o *OpenAI) {
		if log != nil {
			o.log = log
		}
	}
}

// WithObserver reports every call as an "llm" component operation.
func WithObserver(observer observability.Observer) OpenAIOption {
	return func(o *OpenAI) { o.observer = observer }
}

// NewOpenAI validates cfg and builds the provider.
func NewOpenAI(cfg *Config, opts ...OpenAIOption) (*OpenAI, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	c := *cfg
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	clientCfg := openai.DefaultConfig(c.APIKey)
	clientCfg.BaseURL = strings.TrimRight(c.BaseURL, "/")
	clientCfg.HTTPClient = &http.Client{Timeout: c.Timeout}

	o := &OpenAI{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    c,
		log:    nopLogger{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Complete sends messages to the model and returns its answer with the API
// fields attached. gen_duration is the wall time of the request.
func (o *OpenAI) Complete(ctx context.Context, messages []Message, opts ...CompletionOption) (Response, error) {
	options := CompletionOptions{Model: o.cfg.Model}
	for _, opt := range opts {
		opt(&options)
	}
	if len(messages) == 0 {
		return Response{}, errors.New("llm: no messages")
	}

	chat := IsChatModel(options.Model, o.cfg.ChatMode)
	operation := "complete"
	if chat {
		operation = "chat"
	}

	o.log.Debug("llm request", nil, map[string]interface{}{
		"model":    options.Model,
		"chat":     chat,
		"messages": len(messages),
	})

	start := time.Now()
	var (
		resp Response
		err  error
	)
	if chat {
		resp, err = o.chat(ctx, messages, options)
	} else {
		resp, err = o.completion(ctx, messages, options)
	}
	elapsed := time.Since(start)

	if o.observer != nil {
		o.observer.ObserveOperation(observability.OperationContext{
			Component: "llm",
			Operation: operation,
			Resource:  options.Model,
			Duration:  elapsed,
			Error:     err,
			Size:      int64(resp.Usage().TotalTokens),
		})
	}
	if err != nil {
		o.log.Error("llm request failed", err, map[string]interface{}{"model": options.Model})
		return Response{}, err
	}
	return NewResponse(resp.Text(), withDuration(resp.Attrs(), elapsed)), nil
}

func withDuration(attrs map[string]any, d time.Duration) map[string]any {
	attrs[AttrGenDuration] = d
	return attrs
}

func (o *OpenAI) chat(ctx context.Context, messages []Message, options CompletionOptions) (Response, error) {
	req := openai.ChatCompletionRequest{
		Model:     options.Model,
		Messages:  make([]openai.ChatCompletionMessage, len(messages)),
		MaxTokens: options.MaxTokens,
		Stop:      options.Stop,
	}
	if options.Temperature != nil {
		req.Temperature = *options.Temperature
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content}
	}

	res, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Response{}, parseAPIError(err)
	}
	if len(res.Choices) == 0 {
		return Response{}, fmt.Errorf("llm: empty choices: %w", ErrProviderFailure)
	}

	choice := res.Choices[0]
	role := Role(choice.Message.Role)
	if role == "" {
		role = RoleAssistant
	}
	return NewResponse(choice.Message.Content, map[string]any{
		AttrRole:             role,
		"id":                 res.ID,
		"model":              res.Model,
		"created":            res.Created,
		"finish_reason":      string(choice.FinishReason),
		"usage":              res.Usage,
		"system_fingerprint": res.SystemFingerprint,
	}), nil
}

func (o *OpenAI) completion(ctx context.Context, messages []Message, options CompletionOptions) (Response, error) {
	req := openai.CompletionRequest{
		Model:     options.Model,
		Prompt:    prompt(messages),
		MaxTokens: options.MaxTokens,
		Stop:      options.Stop,
	}
	if options.Temperature != nil {
		req.Temperature = *options.Temperature
	}

	res, err := o.client.CreateCompletion(ctx, req)
	if err != nil {
		return Response{}, parseAPIError(err)
	}
	if len(res.Choices) == 0 {
		return Response{}, fmt.Errorf("llm: empty choices: %w", ErrProviderFailure)
	}

	var usage openai.Usage
	if res.Usage != nil {
		usage = *res.Usage
	}
	choice := res.Choices[0]
	return NewResponse(choice.Text, map[string]any{
		"id":            res.ID,
		"model":         res.Model,
		"created":       res.Created,
		"finish_reason": choice.FinishReason,
		"usage":         usage,
	}), nil
}

// prompt flattens a conversation for the completions endpoint.
func prompt(messages []Message) string {
	if len(messages) == 1 {
		return messages[0].Content
	}
	parts := make([]string, len(messages))
	for i, m := range messages {
		parts[i] = m.Content
	}
	return strings.Join(parts, "\n\n")
}

func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("llm: http %d: %s: %w", reqErr.HTTPStatusCode, detail, ErrProviderFailure)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("llm: http %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, ErrProviderFailure)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("llm: request failed: %v: %w", err, ErrProviderFailure)
}

func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		return parsed.Detail
	}
	return ""
}
