// Package types defines the data model shared by every engram subsystem:
// graph nodes and edges, episodes, and the search configuration types.
//
// Nodes carry one of two kinds. Entity nodes represent concepts extracted
// from episodes and hold a summary plus free-form attributes. Episodic
// nodes represent the raw ingested episodes themselves and hold the
// original content, its source kind, and the reference time the content
// speaks about.
//
// Edges connect entity nodes and carry a natural-language fact together
// with the temporal window over which that fact held (ValidAt, InvalidAt).
// Ingestion never deletes a contradicted edge; it closes the window by
// setting InvalidAt.
package types
