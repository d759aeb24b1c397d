package dto

import (
	"errors"
	"strings"
)

// SearchRequest runs the hybrid edge search. CenterNodeUUID switches the
// reranker to graph distance around that node.
type SearchRequest struct {
	Query          string  `json:"query" binding:"required"`
	GroupID        string  `json:"group_id,omitempty"`
	MaxFacts       int     `json:"max_facts,omitempty"`
	CenterNodeUUID string  `json:"center_node_uuid,omitempty"`
	MinScore       float64 `json:"min_score,omitempty"`
}

// Validate checks a SearchRequest.
func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return errors.New("query cannot be empty")
	}
	if len(r.GroupID) > MaxGroupIDLength {
		return ErrGroupIDTooLong
	}
	if r.MaxFacts < 0 {
		return errors.New("max_facts cannot be negative")
	}
	return nil
}

// SearchResponse lists the facts a search matched, best first.
type SearchResponse struct {
	Facts []FactResult `json:"facts"`
	Total int          `json:"total"`
}

// SearchNodesRequest runs a named node search recipe. An empty Recipe uses
// the default reciprocal rank fusion recipe.
type SearchNodesRequest struct {
	Query   string `json:"query" binding:"required"`
	Recipe  string `json:"recipe,omitempty"`
	GroupID string `json:"group_id,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// Validate checks a SearchNodesRequest.
func (r *SearchNodesRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return errors.New("query cannot be empty")
	}
	if len(r.GroupID) > MaxGroupIDLength {
		return ErrGroupIDTooLong
	}
	if r.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	return nil
}

// SearchNodesResponse lists the entities a node search matched.
type SearchNodesResponse struct {
	Nodes []NodeResult `json:"nodes"`
	Total int          `json:"total"`
}

// GetEpisodesResponse lists a group's most recent episodes, oldest first.
type GetEpisodesResponse struct {
	Episodes []EpisodeResult `json:"episodes"`
	Total    int             `json:"total"`
}
