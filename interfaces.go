package engram

import (
	"context"

	"github.com/soundprediction/engram/pkg/types"
)

// The facade is split into focused interfaces so consumers can depend on
// the smallest surface that meets their needs. The HTTP ingest handler
// takes EpisodeWriter and GraphAdmin, the retrieve handler GraphReader;
// the wipe command takes GraphAdmin.

// EpisodeWriter ingests episodes into the knowledge graph.
type EpisodeWriter interface {
	// AddEpisode processes one episode: extraction, resolution, temporal
	// edge invalidation, and persistence.
	AddEpisode(ctx context.Context, episode types.Episode, options *AddOptions) (*types.AddResult, error)

	// AddEpisodeBulk ingests episodes sequentially in the given order.
	AddEpisodeBulk(ctx context.Context, episodes []types.Episode, options *AddOptions) (*types.BulkResult, error)
}

// GraphReader queries the knowledge graph without mutating it.
type GraphReader interface {
	// Search runs the default edge-centric hybrid search.
	Search(ctx context.Context, query string, opts *types.SearchOptions) (*types.SearchResults, error)

	// SearchNodes runs a named node recipe search.
	SearchNodes(ctx context.Context, query, recipe string, opts *types.SearchOptions) ([]*types.Node, error)

	// GetEpisodes returns the lastN most recent episodes, oldest first.
	GetEpisodes(ctx context.Context, groupID string, lastN int) ([]*types.Node, error)
}

// GraphAdmin maintains the graph: index setup, destructive wipes, and
// teardown.
type GraphAdmin interface {
	// BuildIndices creates the fulltext and vector indices searches use.
	BuildIndices(ctx context.Context) error

	// ClearGraph deletes every node and edge in the client's group.
	ClearGraph(ctx context.Context) error

	// Close releases the driver, llm, and embedder. Safe to call twice.
	Close(ctx context.Context) error
}

// Engram is the full facade, composed from the focused interfaces.
type Engram interface {
	EpisodeWriter
	GraphReader
	GraphAdmin
}

var _ Engram = (*Client)(nil)
