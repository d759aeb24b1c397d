package search

import "github.com/soundprediction/engram/pkg/types"

// Method selects how candidates are gathered before reranking.
type Method string

const (
	CosineSimilarity   Method = "cosine_similarity"
	BM25               Method = "bm25"
	BreadthFirstSearch Method = "bfs"
)

// Reranker selects how the gathered candidates are ordered.
type Reranker string

const (
	RRFRerank             Reranker = "rrf"
	MMRRerank             Reranker = "mmr"
	NodeDistanceRerank    Reranker = "node_distance"
	EpisodeMentionsRerank Reranker = "episode_mentions"
)

const (
	// DefaultLimit caps results per family when the config does not.
	DefaultLimit = 10

	// DefaultRankConstant is the k in the RRF formula 1/(rank+k).
	DefaultRankConstant = 60

	// DefaultMMRLambda weighs relevance against diversity in MMR.
	DefaultMMRLambda = 0.5

	// DefaultMaxDepth bounds graph expansion and distance reranking.
	DefaultMaxDepth = 3
)

// NodeConfig controls the entity-node half of a hybrid search.
type NodeConfig struct {
	Methods   []Method `json:"methods"`
	Reranker  Reranker `json:"reranker"`
	MMRLambda float64  `json:"mmr_lambda,omitempty"`
	MaxDepth  int      `json:"max_depth,omitempty"`
}

// EdgeConfig controls the relationship-edge half of a hybrid search.
type EdgeConfig struct {
	Methods   []Method `json:"methods"`
	Reranker  Reranker `json:"reranker"`
	MMRLambda float64  `json:"mmr_lambda,omitempty"`
	MaxDepth  int      `json:"max_depth,omitempty"`
}

// Config describes one hybrid search: which families run, how each is
// reranked, and the per-call knobs. A nil family config skips that family
// entirely.
type Config struct {
	Node *NodeConfig `json:"node,omitempty"`
	Edge *EdgeConfig `json:"edge,omitempty"`

	// Limit caps results per family. Zero means DefaultLimit.
	Limit int `json:"limit,omitempty"`

	// CenterNodeUUID anchors node-distance reranking. Configs asking for
	// node distance fall back to RRF while it is empty.
	CenterNodeUUID string `json:"center_node_uuid,omitempty"`

	// MinScore drops vector matches scoring below it.
	MinScore float64 `json:"min_score,omitempty"`

	Filters *types.SearchFilters `json:"filters,omitempty"`
}

// EdgeHybridSearchRRF combines fulltext and similarity edge search under
// reciprocal rank fusion. This is the default fact lookup.
func EdgeHybridSearchRRF() *Config {
	return &Config{
		Edge: &EdgeConfig{
			Methods:  []Method{BM25, CosineSimilarity},
			Reranker: RRFRerank,
		},
	}
}

// EdgeHybridSearchNodeDistance reranks the fused edge results by graph
// distance from a center node, surfacing facts near a known entity.
func EdgeHybridSearchNodeDistance() *Config {
	return &Config{
		Edge: &EdgeConfig{
			Methods:  []Method{BM25, CosineSimilarity},
			Reranker: NodeDistanceRerank,
		},
	}
}

// NodeHybridSearchRRF combines fulltext and similarity entity search under
// reciprocal rank fusion.
func NodeHybridSearchRRF() *Config {
	return &Config{
		Node: &NodeConfig{
			Methods:  []Method{BM25, CosineSimilarity},
			Reranker: RRFRerank,
		},
	}
}

// NodeHybridSearchEpisodeMentions orders fused entity results by how many
// episodes mention them, surfacing the entities the data talks about most.
func NodeHybridSearchEpisodeMentions() *Config {
	return &Config{
		Node: &NodeConfig{
			Methods:  []Method{BM25, CosineSimilarity},
			Reranker: EpisodeMentionsRerank,
		},
	}
}

// CombinedHybridSearchRRF runs both families under reciprocal rank fusion.
func CombinedHybridSearchRRF() *Config {
	return &Config{
		Node: &NodeConfig{
			Methods:  []Method{BM25, CosineSimilarity},
			Reranker: RRFRerank,
		},
		Edge: &EdgeConfig{
			Methods:  []Method{BM25, CosineSimilarity},
			Reranker: RRFRerank,
		},
	}
}

// Wire names for the recipe constructors, as accepted by Recipe.
const (
	RecipeEdgeHybridRRF          = "edge_hybrid_search_rrf"
	RecipeEdgeHybridNodeDistance = "edge_hybrid_search_node_distance"
	RecipeNodeHybridRRF          = "node_hybrid_search_rrf"
	RecipeNodeEpisodeMentions    = "node_hybrid_search_episode_mentions"
	RecipeCombinedHybridRRF      = "combined_hybrid_search_rrf"
)

// Recipe resolves a recipe constructor by its wire name. Unknown names
// report false.
func Recipe(name string) (*Config, bool) {
	switch name {
	case RecipeEdgeHybridRRF:
		return EdgeHybridSearchRRF(), true
	case RecipeEdgeHybridNodeDistance:
		return EdgeHybridSearchNodeDistance(), true
	case RecipeNodeHybridRRF:
		return NodeHybridSearchRRF(), true
	case RecipeNodeEpisodeMentions:
		return NodeHybridSearchEpisodeMentions(), true
	case RecipeCombinedHybridRRF:
		return CombinedHybridSearchRRF(), true
	default:
		return nil, false
	}
}
