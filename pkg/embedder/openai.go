package embedder

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/soundprediction/engram/pkg/utils"
)

const (
	// DefaultModel is used when no embedding model is configured.
	DefaultModel = "text-embedding-3-small"

	defaultBatchSize = 100
)

// OpenAIEmbedder implements Client using the OpenAI embeddings API or any
// compatible endpoint.
type OpenAIEmbedder struct {
	client    *openai.Client
	config    Config
	batchSize int
}

// NewOpenAIEmbedder creates an embedding client. An empty apiKey is allowed
// for compatible services that do not check credentials.
func NewOpenAIEmbedder(apiKey string, config Config) *OpenAIEmbedder {
	if config.Model == "" {
		config.Model = DefaultModel
	}

	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	if apiKey == "" && config.BaseURL != "" {
		// go-openai rejects requests without a bearer token even when
		// the target service ignores it.
		apiKey = "unused"
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = normalizeBaseURL(config.BaseURL)
	}

	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(clientConfig),
		config:    config,
		batchSize: batchSize,
	}
}

// Embed generates embeddings for the given texts, batching requests to stay
// within provider limits. Newlines are replaced with spaces before embedding.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	cleaned := make([]string, len(texts))
	for i, text := range texts {
		cleaned[i] = strings.ReplaceAll(text, "\n", " ")
	}

	out := make([][]float32, 0, len(cleaned))
	for _, batch := range utils.Batch(cleaned, e.batchSize) {
		req := openai.EmbeddingRequest{
			Input: batch,
			Model: openai.EmbeddingModel(e.config.Model),
		}
		if e.config.Dimensions > 0 && supportsDimensions(e.config.Model) {
			req.Dimensions = e.config.Dimensions
		}

		resp, err := e.client.CreateEmbeddings(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to create embeddings: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("%w: requested %d, got %d", ErrNoEmbeddings, len(batch), len(resp.Data))
		}
		for _, item := range resp.Data {
			out = append(out, item.Embedding)
		}
	}
	return out, nil
}

// EmbedSingle generates an embedding for a single text.
func (e *OpenAIEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, ErrNoEmbeddings
	}
	return embeddings[0], nil
}

// Dimensions returns the configured vector width, falling back to the
// model's native width.
func (e *OpenAIEmbedder) Dimensions() int {
	if e.config.Dimensions > 0 {
		return e.config.Dimensions
	}
	return modelDimensions(e.config.Model)
}

// Close releases resources. The underlying HTTP client needs no cleanup.
func (e *OpenAIEmbedder) Close() error {
	return nil
}

func modelDimensions(model string) int {
	switch model {
	case "text-embedding-3-large":
		return 3072
	case "text-embedding-3-small", "text-embedding-ada-002":
		return 1536
	default:
		return 1536
	}
}

// supportsDimensions reports whether the model accepts the dimensions
// request parameter. Only third-generation OpenAI models do.
func supportsDimensions(model string) bool {
	return strings.HasPrefix(model, "text-embedding-3")
}

var versionSegment = regexp.MustCompile(`^v\d+[a-z]*$`)

// normalizeBaseURL appends the /v1 path expected by OpenAI-compatible
// services when the URL carries no version segment of its own.
func normalizeBaseURL(raw string) string {
	raw = strings.TrimRight(raw, "/")
	last := raw[strings.LastIndex(raw, "/")+1:]
	if versionSegment.MatchString(last) {
		return raw
	}
	return raw + "/v1"
}
