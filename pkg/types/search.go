package types

import "time"

// SearchFilters narrows a search before ranking.
type SearchFilters struct {
	// EntityTypes restricts entity nodes to the listed types.
	EntityTypes []string `json:"entity_types,omitempty"`
	// EdgeNames restricts edges to the listed relation names.
	EdgeNames []string `json:"edge_names,omitempty"`
	// ValidAfter/ValidBefore bound the temporal window edges must
	// intersect.
	ValidAfter  *time.Time `json:"valid_after,omitempty"`
	ValidBefore *time.Time `json:"valid_before,omitempty"`
	// IncludeExpired keeps edges whose InvalidAt is set. Default drops
	// nothing; expired edges carry history.
	IncludeExpired bool `json:"include_expired,omitempty"`
}

// SearchOptions configures a single search call on the client facade.
type SearchOptions struct {
	// Limit caps the number of results per family. Zero means the
	// client default.
	Limit int `json:"limit,omitempty"`
	// CenterNodeUUID activates graph-distance reranking around the
	// given node.
	CenterNodeUUID string `json:"center_node_uuid,omitempty"`
	// GroupID overrides the client's configured group for this call.
	GroupID string `json:"group_id,omitempty"`
	// MinScore drops results ranked below the threshold.
	MinScore float64 `json:"min_score,omitempty"`

	Filters *SearchFilters `json:"filters,omitempty"`
}

// SearchResults is what a search returns: nodes and edges in rank order.
type SearchResults struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
	Query string  `json:"query"`
}

// Empty reports whether the search matched nothing.
func (r *SearchResults) Empty() bool {
	return r == nil || (len(r.Nodes) == 0 && len(r.Edges) == 0)
}
