package driver

import (
	"context"
	"time"

	"github.com/soundprediction/engram/pkg/types"
)

// Index names shared by BuildIndices and the search queries.
const (
	// NodeFulltextIndex covers entity name and summary.
	NodeFulltextIndex = "node_name_and_summary"
	// EdgeFulltextIndex covers relation name and fact text.
	EdgeFulltextIndex = "edge_name_and_fact"
	// EpisodeFulltextIndex covers episode content.
	EpisodeFulltextIndex = "episode_content"
	// NodeVectorIndex is the cosine index over entity name embeddings.
	NodeVectorIndex = "node_name_embedding"
	// EdgeVectorIndex is the cosine index over edge fact embeddings.
	EdgeVectorIndex = "edge_fact_embedding"
)

// DefaultMaxDepth bounds breadth-first neighbor expansion when the caller
// does not specify a depth.
const DefaultMaxDepth = 2

// DefaultEmbeddingDim matches text-embedding-3-small, the library default.
const DefaultEmbeddingDim = 1536

// VectorSearchOptions tunes a vector similarity query.
type VectorSearchOptions struct {
	// Limit caps the number of results. Zero means 10.
	Limit int `json:"limit"`
	// MinScore drops candidates scoring below the threshold.
	MinScore float64 `json:"min_score"`
}

// Neighbor pairs a node with its hop distance from the expansion origin.
type Neighbor struct {
	Node     *types.Node `json:"node"`
	Distance int         `json:"distance"`
}

// GraphStats summarizes the stored graph for one group, or for the whole
// database when the group ID is empty.
type GraphStats struct {
	NodeCount    int64            `json:"node_count"`
	EdgeCount    int64            `json:"edge_count"`
	EpisodeCount int64            `json:"episode_count"`
	NodesByLabel map[string]int64 `json:"nodes_by_label"`
	EdgesByType  map[string]int64 `json:"edges_by_type"`
	CollectedAt  time.Time        `json:"collected_at"`
}

// GraphDriver is the persistence boundary of the library. Point lookups
// return (nil, nil) when the record does not exist; callers that need an
// error translate at their own layer.
//
// Every query is scoped to a group_id so multiple datasets can share one
// database. Search methods return results in score order.
type GraphDriver interface {
	// Node operations.
	GetNode(ctx context.Context, uuid, groupID string) (*types.Node, error)
	UpsertNode(ctx context.Context, node *types.Node) error
	UpsertNodes(ctx context.Context, nodes []*types.Node) error
	GetNodesByUUIDs(ctx context.Context, uuids []string, groupID string) ([]*types.Node, error)
	SearchNodesByText(ctx context.Context, query, groupID string, limit int) ([]*types.Node, error)
	SearchNodesByVector(ctx context.Context, vector []float32, groupID string, opts *VectorSearchOptions) ([]*types.Node, error)
	SearchNodesByBFS(ctx context.Context, originUUIDs []string, groupID string, maxDepth, limit int) ([]*types.Node, error)
	GetNeighbors(ctx context.Context, uuid, groupID string, maxDepth int) ([]Neighbor, error)

	// Edge operations.
	GetEdge(ctx context.Context, uuid, groupID string) (*types.Edge, error)
	UpsertEdge(ctx context.Context, edge *types.Edge) error
	UpsertEdges(ctx context.Context, edges []*types.Edge) error
	SearchEdgesByText(ctx context.Context, query, groupID string, limit int) ([]*types.Edge, error)
	SearchEdgesByVector(ctx context.Context, vector []float32, groupID string, opts *VectorSearchOptions) ([]*types.Edge, error)
	SearchEdgesByBFS(ctx context.Context, originUUIDs []string, groupID string, maxDepth, limit int) ([]*types.Edge, error)
	GetEdgesBetween(ctx context.Context, sourceUUID, targetUUID, groupID string) ([]*types.Edge, error)

	// Episodic operations.
	UpsertEpisodicEdge(ctx context.Context, episodeUUID, entityUUID, groupID string) error
	RetrieveEpisodes(ctx context.Context, groupID string, reference time.Time, lastN int) ([]*types.Node, error)
	GetMentioningEpisodes(ctx context.Context, entityUUIDs []string, groupID string) (map[string][]*types.Node, error)

	// Maintenance.
	BuildIndices(ctx context.Context) error
	ClearGroup(ctx context.Context, groupID string) error
	Stats(ctx context.Context, groupID string) (*GraphStats, error)
	Close(ctx context.Context) error
}
