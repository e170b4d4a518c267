package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// openAIProvider calls an OpenAI-compatible /embeddings endpoint.
type openAIProvider struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

func newOpenAIProvider(cfg *Config) (*openAIProvider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("inference: missing EMBEDDING_ENDPOINT")
	}

	clientCfg := openai.DefaultConfig(cfg.ServiceToken)
	// Remove trailing slash if user added it.
	clientCfg.BaseURL = strings.TrimRight(cfg.Endpoint, "/")
	clientCfg.HTTPClient = &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutS) * time.Second}

	return &openAIProvider{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed sends texts in one request and returns the vectors in input order.
func (p *openAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("inference: no texts provided")
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          texts,
		Model:          p.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	})
	if err != nil {
		return nil, parseAPIError(err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("inference: embeddings empty data: %w", ErrProviderFailure)
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	out := make([][]float32, len(data))
	for i, d := range data {
		out[i] = d.Embedding
	}
	return out, nil
}

func (p *openAIProvider) Dimensions() int {
	return p.dimensions
}

// parseAPIError extracts a readable message from an API error and wraps it
// with ErrProviderFailure.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("inference: http %d: %s: %w", reqErr.HTTPStatusCode, detail, ErrProviderFailure)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("inference: http %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, ErrProviderFailure)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("inference: request failed: %v: %w", err, ErrProviderFailure)
}

// extractDetail reads the "detail" field some OpenAI-compatible servers use
// for error bodies.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		return parsed.Detail
	}
	return ""
}
