package search

import "github.com/soundprediction/engram/pkg/types"

// filterNodes applies entity-type filters. Nil filters pass everything
// through untouched.
func filterNodes(nodes []*types.Node, filters *types.SearchFilters) []*types.Node {
	if filters == nil || len(filters.EntityTypes) == 0 {
		return nodes
	}
	allowed := make(map[string]bool, len(filters.EntityTypes))
	for _, entityType := range filters.EntityTypes {
		allowed[entityType] = true
	}
	kept := make([]*types.Node, 0, len(nodes))
	for _, node := range nodes {
		if allowed[node.EntityType] {
			kept = append(kept, node)
		}
	}
	return kept
}

// filterEdges applies relation-name and temporal filters. Nil filters pass
// everything through, expired edges included, so default searches see the
// full fact history. A temporal window keeps edges whose validity interval
// intersects it; IncludeExpired keeps edges that expired before the window
// opened.
func filterEdges(edges []*types.Edge, filters *types.SearchFilters) []*types.Edge {
	if filters == nil {
		return edges
	}
	var allowed map[string]bool
	if len(filters.EdgeNames) > 0 {
		allowed = make(map[string]bool, len(filters.EdgeNames))
		for _, name := range filters.EdgeNames {
			allowed[name] = true
		}
	}
	kept := make([]*types.Edge, 0, len(edges))
	for _, edge := range edges {
		if allowed != nil && !allowed[edge.Name] {
			continue
		}
		if filters.ValidBefore != nil && edge.ValidAt != nil && edge.ValidAt.After(*filters.ValidBefore) {
			continue
		}
		if filters.ValidAfter != nil && !filters.IncludeExpired &&
			edge.InvalidAt != nil && edge.InvalidAt.Before(*filters.ValidAfter) {
			continue
		}
		kept = append(kept, edge)
	}
	return kept
}
