// Package search implements hybrid retrieval over the knowledge graph.
//
// A search runs up to three candidate channels per result family (entity
// nodes and relationship edges): BM25 fulltext, cosine similarity against
// the vector indices, and breadth-first expansion from the seed results.
// The channels' ranked lists are then fused and reordered by a reranker:
//
//   - RRF: reciprocal rank fusion across the channel rankings
//   - MMR: maximal marginal relevance, trading relevance for diversity
//   - node distance: graph distance from a center node, nearest first
//   - episode mentions: how often episodes mention a result
//
// Configs are usually built from the recipe constructors, which mirror
// the common combinations:
//
//	results, err := searcher.Search(ctx, "Who was the California Attorney General?",
//		groupID, search.EdgeHybridSearchRRF())
//
// Searching never mutates the graph.
package search
