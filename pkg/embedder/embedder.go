// Package embedder provides text embedding clients for vector representations.
//
// Embeddings power the similarity half of hybrid search: entity names,
// summaries, and edge facts are embedded at ingestion time and compared
// against the embedded query at retrieval time.
//
// The Client interface supports batch embedding for efficiency:
//   - Embed(): embed multiple texts in a single request
//   - EmbedSingle(): convenience method for one text
//
// Implementations handle batching internally based on provider limits.
package embedder

import (
	"context"
	"errors"
)

// ErrNoEmbeddings indicates the provider returned no vectors for the input.
var ErrNoEmbeddings = errors.New("no embeddings returned")

// Client generates vector embeddings for text.
type Client interface {
	// Embed generates embeddings for the given texts, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the width of the vectors this client produces.
	Dimensions() int

	// Close releases any resources held by the client.
	Close() error
}

// Config holds embedding client configuration.
type Config struct {
	// Model is the embedding model identifier.
	Model string

	// Dimensions overrides the vector width. Zero means use the
	// model's native width.
	Dimensions int

	// BatchSize caps how many texts go into one provider request.
	// Zero means use the default.
	BatchSize int

	// BaseURL points at an OpenAI-compatible endpoint. Empty means
	// the official API.
	BaseURL string
}
