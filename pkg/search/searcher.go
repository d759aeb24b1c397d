package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/soundprediction/engram/pkg/driver"
	"github.com/soundprediction/engram/pkg/embedder"
	"github.com/soundprediction/engram/pkg/types"
)

// Searcher runs hybrid searches over a graph driver, embedding queries on
// demand. A nil embedder degrades every config to its text-only channels.
type Searcher struct {
	driver   driver.GraphDriver
	embedder embedder.Client
}

// NewSearcher returns a Searcher over the given driver and embedder.
func NewSearcher(d driver.GraphDriver, e embedder.Client) *Searcher {
	return &Searcher{driver: d, embedder: e}
}

// Search runs the configured families for the query, fuses and reranks
// each, and truncates to the config limit. A nil config runs the combined
// RRF recipe. An empty query returns empty results without touching the
// graph.
func (s *Searcher) Search(ctx context.Context, query, groupID string, cfg *Config) (*types.SearchResults, error) {
	if cfg == nil {
		cfg = CombinedHybridSearchRRF()
	}
	if strings.TrimSpace(query) == "" {
		return &types.SearchResults{}, nil
	}

	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	// One embedding serves both families. Newlines skew embedding
	// models, so they are flattened first.
	var queryVector []float32
	if s.embedder != nil && needsEmbedding(cfg) {
		vectors, err := s.embedder.Embed(ctx, []string{strings.ReplaceAll(query, "\n", " ")})
		if err != nil {
			return nil, fmt.Errorf("failed to embed query: %w", err)
		}
		if len(vectors) > 0 {
			queryVector = vectors[0]
		}
	}

	results := &types.SearchResults{Query: query}

	if cfg.Node != nil {
		nodes, err := s.searchNodes(ctx, query, queryVector, groupID, cfg, limit)
		if err != nil {
			return nil, fmt.Errorf("node search failed: %w", err)
		}
		results.Nodes = nodes
	}

	if cfg.Edge != nil {
		edges, err := s.searchEdges(ctx, query, queryVector, groupID, cfg, limit)
		if err != nil {
			return nil, fmt.Errorf("edge search failed: %w", err)
		}
		results.Edges = edges
	}

	return results, nil
}

func needsEmbedding(cfg *Config) bool {
	if cfg.Node != nil && familyNeedsEmbedding(cfg.Node.Methods, cfg.Node.Reranker) {
		return true
	}
	return cfg.Edge != nil && familyNeedsEmbedding(cfg.Edge.Methods, cfg.Edge.Reranker)
}

func familyNeedsEmbedding(methods []Method, reranker Reranker) bool {
	if reranker == MMRRerank {
		return true
	}
	for _, method := range methods {
		if method == CosineSimilarity {
			return true
		}
	}
	return false
}

func hasMethod(methods []Method, want Method) bool {
	for _, method := range methods {
		if method == want {
			return true
		}
	}
	return false
}

func expansionDepth(depth int) int {
	if depth <= 0 {
		return DefaultMaxDepth
	}
	return depth
}

// searchNodes gathers candidate entities per configured method, each an
// overfetched ranked list, then hands the lists to the reranker.
func (s *Searcher) searchNodes(ctx context.Context, query string, queryVector []float32, groupID string, cfg *Config, limit int) ([]*types.Node, error) {
	rankings := make([][]*types.Node, 0, len(cfg.Node.Methods))
	for _, method := range cfg.Node.Methods {
		switch method {
		case BM25:
			nodes, err := s.driver.SearchNodesByText(ctx, query, groupID, limit*2)
			if err != nil {
				return nil, fmt.Errorf("fulltext node search: %w", err)
			}
			rankings = append(rankings, filterNodes(nodes, cfg.Filters))
		case CosineSimilarity:
			if len(queryVector) == 0 {
				continue
			}
			nodes, err := s.driver.SearchNodesByVector(ctx, queryVector, groupID, &driver.VectorSearchOptions{
				Limit:    limit * 2,
				MinScore: cfg.MinScore,
			})
			if err != nil {
				return nil, fmt.Errorf("vector node search: %w", err)
			}
			rankings = append(rankings, filterNodes(nodes, cfg.Filters))
		case BreadthFirstSearch:
			// Expansion runs below once seed results exist.
		}
	}

	if hasMethod(cfg.Node.Methods, BreadthFirstSearch) {
		origins := nodeUUIDs(rankings)
		if len(origins) > 0 {
			expanded, err := s.driver.SearchNodesByBFS(ctx, origins, groupID, expansionDepth(cfg.Node.MaxDepth), limit*2)
			if err != nil {
				return nil, fmt.Errorf("bfs node search: %w", err)
			}
			if filtered := filterNodes(expanded, cfg.Filters); len(filtered) > 0 {
				rankings = append(rankings, filtered)
			}
		}
	}

	return s.rerankNodes(ctx, queryVector, groupID, rankings, cfg, limit)
}

func (s *Searcher) searchEdges(ctx context.Context, query string, queryVector []float32, groupID string, cfg *Config, limit int) ([]*types.Edge, error) {
	rankings := make([][]*types.Edge, 0, len(cfg.Edge.Methods))
	for _, method := range cfg.Edge.Methods {
		switch method {
		case BM25:
			edges, err := s.driver.SearchEdgesByText(ctx, query, groupID, limit*2)
			if err != nil {
				return nil, fmt.Errorf("fulltext edge search: %w", err)
			}
			rankings = append(rankings, filterEdges(edges, cfg.Filters))
		case CosineSimilarity:
			if len(queryVector) == 0 {
				continue
			}
			edges, err := s.driver.SearchEdgesByVector(ctx, queryVector, groupID, &driver.VectorSearchOptions{
				Limit:    limit * 2,
				MinScore: cfg.MinScore,
			})
			if err != nil {
				return nil, fmt.Errorf("vector edge search: %w", err)
			}
			rankings = append(rankings, filterEdges(edges, cfg.Filters))
		case BreadthFirstSearch:
			// Expansion runs below once seed results exist.
		}
	}

	if hasMethod(cfg.Edge.Methods, BreadthFirstSearch) {
		origins := edgeSourceUUIDs(rankings)
		if len(origins) > 0 {
			expanded, err := s.driver.SearchEdgesByBFS(ctx, origins, groupID, expansionDepth(cfg.Edge.MaxDepth), limit*2)
			if err != nil {
				return nil, fmt.Errorf("bfs edge search: %w", err)
			}
			if filtered := filterEdges(expanded, cfg.Filters); len(filtered) > 0 {
				rankings = append(rankings, filtered)
			}
		}
	}

	return s.rerankEdges(ctx, queryVector, groupID, rankings, cfg, limit)
}

// rerankNodes fuses the ranked lists with RRF, applies the configured
// reranker on top, and truncates. Rerankers that cannot run with what
// they were given keep the fused order.
func (s *Searcher) rerankNodes(ctx context.Context, queryVector []float32, groupID string, rankings [][]*types.Node, cfg *Config, limit int) ([]*types.Node, error) {
	byUUID := make(map[string]*types.Node)
	uuidRankings := make([][]string, len(rankings))
	for i, ranking := range rankings {
		uuidRankings[i] = make([]string, len(ranking))
		for j, node := range ranking {
			uuidRankings[i][j] = node.UUID
			if _, seen := byUUID[node.UUID]; !seen {
				byUUID[node.UUID] = node
			}
		}
	}
	if len(byUUID) == 0 {
		return []*types.Node{}, nil
	}

	fused, _ := RRF(uuidRankings, DefaultRankConstant)
	ordered := fused

	switch cfg.Node.Reranker {
	case MMRRerank:
		if len(queryVector) > 0 {
			ordered = mmrOrder(queryVector, fused, cfg.Node.MMRLambda, func(uuid string) []float32 {
				return byUUID[uuid].NameEmbedding
			})
		}
	case NodeDistanceRerank:
		if cfg.CenterNodeUUID != "" {
			distances, err := s.distancesFrom(ctx, cfg.CenterNodeUUID, groupID, expansionDepth(cfg.Node.MaxDepth))
			if err != nil {
				return nil, err
			}
			ordered = RerankByNodeDistance(fused, cfg.CenterNodeUUID, distances)
		}
	case EpisodeMentionsRerank:
		mentions, err := s.mentionCounts(ctx, fused, groupID)
		if err != nil {
			return nil, err
		}
		ordered = RerankByEpisodeMentions(fused, mentions)
	}

	nodes := make([]*types.Node, 0, limit)
	for _, uuid := range ordered {
		nodes = append(nodes, byUUID[uuid])
		if len(nodes) == limit {
			break
		}
	}
	return nodes, nil
}

func (s *Searcher) rerankEdges(ctx context.Context, queryVector []float32, groupID string, rankings [][]*types.Edge, cfg *Config, limit int) ([]*types.Edge, error) {
	byUUID := make(map[string]*types.Edge)
	uuidRankings := make([][]string, len(rankings))
	for i, ranking := range rankings {
		uuidRankings[i] = make([]string, len(ranking))
		for j, edge := range ranking {
			uuidRankings[i][j] = edge.UUID
			if _, seen := byUUID[edge.UUID]; !seen {
				byUUID[edge.UUID] = edge
			}
		}
	}
	if len(byUUID) == 0 {
		return []*types.Edge{}, nil
	}

	fused, _ := RRF(uuidRankings, DefaultRankConstant)
	ordered := fused

	switch cfg.Edge.Reranker {
	case MMRRerank:
		if len(queryVector) > 0 {
			ordered = mmrOrder(queryVector, fused, cfg.Edge.MMRLambda, func(uuid string) []float32 {
				return byUUID[uuid].FactEmbedding
			})
		}
	case NodeDistanceRerank:
		if cfg.CenterNodeUUID != "" {
			distances, err := s.distancesFrom(ctx, cfg.CenterNodeUUID, groupID, expansionDepth(cfg.Edge.MaxDepth))
			if err != nil {
				return nil, err
			}
			ordered = orderEdgesByCenterDistance(fused, byUUID, cfg.CenterNodeUUID, distances)
		}
	case EpisodeMentionsRerank:
		// Edges carry their mentioning episodes inline.
		mentions := make(map[string]int, len(fused))
		for uuid, edge := range byUUID {
			mentions[uuid] = len(edge.Episodes)
		}
		ordered = RerankByEpisodeMentions(fused, mentions)
	}

	edges := make([]*types.Edge, 0, limit)
	for _, uuid := range ordered {
		edges = append(edges, byUUID[uuid])
		if len(edges) == limit {
			break
		}
	}
	return edges, nil
}

// mmrOrder runs MMR over the candidates that carry embeddings and appends
// the rest in fused order, so results missing a vector still rank by text.
func mmrOrder(queryVector []float32, fused []string, lambda float64, embeddingOf func(string) []float32) []string {
	candidates := make([]MMRCandidate, 0, len(fused))
	missing := make([]string, 0)
	for _, uuid := range fused {
		embedding := embeddingOf(uuid)
		if len(embedding) == 0 {
			missing = append(missing, uuid)
			continue
		}
		candidates = append(candidates, MMRCandidate{UUID: uuid, Embedding: embedding})
	}
	ordered, _ := MMR(queryVector, candidates, lambda)
	return append(ordered, missing...)
}

// orderEdgesByCenterDistance groups edges by source node, orders the
// sources by distance from the center, and flattens back to edges.
func orderEdgesByCenterDistance(fused []string, byUUID map[string]*types.Edge, centerUUID string, distances map[string]int) []string {
	bySource := make(map[string][]string)
	sources := make([]string, 0, len(fused))
	for _, uuid := range fused {
		source := byUUID[uuid].SourceNodeUUID
		if _, seen := bySource[source]; !seen {
			sources = append(sources, source)
		}
		bySource[source] = append(bySource[source], uuid)
	}

	ordered := make([]string, 0, len(fused))
	for _, source := range RerankByNodeDistance(sources, centerUUID, distances) {
		ordered = append(ordered, bySource[source]...)
	}
	return ordered
}

// distancesFrom maps entity UUIDs to their shortest-path distance from the
// center node. The center itself is distance zero.
func (s *Searcher) distancesFrom(ctx context.Context, centerUUID, groupID string, maxDepth int) (map[string]int, error) {
	neighbors, err := s.driver.GetNeighbors(ctx, centerUUID, groupID, maxDepth)
	if err != nil {
		return nil, fmt.Errorf("center node expansion: %w", err)
	}
	distances := map[string]int{centerUUID: 0}
	for _, neighbor := range neighbors {
		if neighbor.Node == nil {
			continue
		}
		distances[neighbor.Node.UUID] = neighbor.Distance
	}
	return distances, nil
}

func (s *Searcher) mentionCounts(ctx context.Context, uuids []string, groupID string) (map[string]int, error) {
	episodes, err := s.driver.GetMentioningEpisodes(ctx, uuids, groupID)
	if err != nil {
		return nil, fmt.Errorf("episode mention lookup: %w", err)
	}
	counts := make(map[string]int, len(episodes))
	for uuid, mentioning := range episodes {
		counts[uuid] = len(mentioning)
	}
	return counts, nil
}

func nodeUUIDs(rankings [][]*types.Node) []string {
	seen := make(map[string]bool)
	uuids := make([]string, 0)
	for _, ranking := range rankings {
		for _, node := range ranking {
			if seen[node.UUID] {
				continue
			}
			seen[node.UUID] = true
			uuids = append(uuids, node.UUID)
		}
	}
	return uuids
}

func edgeSourceUUIDs(rankings [][]*types.Edge) []string {
	seen := make(map[string]bool)
	uuids := make([]string, 0)
	for _, ranking := range rankings {
		for _, edge := range ranking {
			if seen[edge.SourceNodeUUID] {
				continue
			}
			seen[edge.SourceNodeUUID] = true
			uuids = append(uuids, edge.SourceNodeUUID)
		}
	}
	return uuids
}
