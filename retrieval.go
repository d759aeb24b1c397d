package engram

import (
	"context"
	"fmt"
	"time"

	"github.com/soundprediction/engram/pkg/search"
	"github.com/soundprediction/engram/pkg/types"
)

// Search runs the default edge-centric hybrid search: fulltext and
// similarity candidates fused with reciprocal rank fusion. When the
// options carry a center node UUID the results are reranked by graph
// distance from it instead. Search never mutates the graph.
func (c *Client) Search(ctx context.Context, query string, opts *types.SearchOptions) (*types.SearchResults, error) {
	if opts == nil {
		opts = &types.SearchOptions{}
	}

	cfg := search.EdgeHybridSearchRRF()
	if opts.CenterNodeUUID != "" {
		cfg = search.EdgeHybridSearchNodeDistance()
		cfg.CenterNodeUUID = opts.CenterNodeUUID
	}
	cfg.Limit = opts.Limit
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultSearchLimit
	}
	cfg.MinScore = opts.MinScore
	cfg.Filters = opts.Filters

	results, err := c.searcher.Search(ctx, query, c.searchGroup(opts), cfg)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return results, nil
}

// SearchNodes runs a named node recipe search and returns entity nodes in
// rank order. Recipe names are the wire names from pkg/search, e.g.
// "node_hybrid_search_rrf".
func (c *Client) SearchNodes(ctx context.Context, query, recipe string, opts *types.SearchOptions) ([]*types.Node, error) {
	if opts == nil {
		opts = &types.SearchOptions{}
	}

	cfg, ok := search.Recipe(recipe)
	if !ok {
		return nil, fmt.Errorf("unknown search recipe %q", recipe)
	}
	if cfg.Node == nil {
		return nil, fmt.Errorf("recipe %q does not search nodes", recipe)
	}
	cfg.Limit = opts.Limit
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultNodeSearchLimit
	}
	cfg.CenterNodeUUID = opts.CenterNodeUUID
	cfg.MinScore = opts.MinScore
	cfg.Filters = opts.Filters

	results, err := c.searcher.Search(ctx, query, c.searchGroup(opts), cfg)
	if err != nil {
		return nil, fmt.Errorf("node search failed: %w", err)
	}
	return results.Nodes, nil
}

// GetEpisodes returns the lastN most recent episodes in the group, oldest
// first. An empty groupID means the client's configured group.
func (c *Client) GetEpisodes(ctx context.Context, groupID string, lastN int) ([]*types.Node, error) {
	if groupID == "" {
		groupID = c.config.groupID()
	}
	episodes, err := c.driver.RetrieveEpisodes(ctx, groupID, time.Time{}, lastN)
	if err != nil {
		return nil, fmt.Errorf("failed to get episodes: %w", err)
	}
	return episodes, nil
}

// GetNode returns one entity or episodic node, or ErrNodeNotFound.
func (c *Client) GetNode(ctx context.Context, uuid string) (*types.Node, error) {
	node, err := c.driver.GetNode(ctx, uuid, c.config.groupID())
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}
	if node == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, uuid)
	}
	return node, nil
}

// GetEdge returns one edge, or ErrEdgeNotFound.
func (c *Client) GetEdge(ctx context.Context, uuid string) (*types.Edge, error) {
	edge, err := c.driver.GetEdge(ctx, uuid, c.config.groupID())
	if err != nil {
		return nil, fmt.Errorf("failed to get edge: %w", err)
	}
	if edge == nil {
		return nil, fmt.Errorf("%w: %s", ErrEdgeNotFound, uuid)
	}
	return edge, nil
}

func (c *Client) searchGroup(opts *types.SearchOptions) string {
	if opts.GroupID != "" {
		return opts.GroupID
	}
	return c.config.groupID()
}
