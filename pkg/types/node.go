package types

import (
	"errors"
	"time"
)

// NodeKind distinguishes the node families stored in the graph.
type NodeKind string

const (
	// EntityNode is a concept extracted from episode content.
	EntityNode NodeKind = "entity"
	// EpisodicNode is an ingested episode persisted as a node.
	EpisodicNode NodeKind = "episodic"
)

// Validation errors shared by the model types.
var (
	ErrEmptyUUID            = errors.New("uuid must not be empty")
	ErrEmptyName            = errors.New("name must not be empty")
	ErrEmptyGroupID         = errors.New("group_id must not be empty")
	ErrEmptyContent         = errors.New("content must not be empty")
	ErrEmptyFact            = errors.New("fact must not be empty")
	ErrMissingEndpoints     = errors.New("edge requires source and target node uuids")
	ErrInvalidEpisodeSource = errors.New("invalid episode source")
)

// Node is a vertex in the knowledge graph. Entity and episodic nodes share
// the struct; kind-specific fields are zero for the other kind.
type Node struct {
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
	Kind      NodeKind  `json:"kind"`
	GroupID   string    `json:"group_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`

	// Entity fields.
	EntityType string                 `json:"entity_type,omitempty"`
	Summary    string                 `json:"summary,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`

	// Episodic fields.
	Source            EpisodeSource `json:"source,omitempty"`
	Content           string        `json:"content,omitempty"`
	SourceDescription string        `json:"source_description,omitempty"`
	Reference         time.Time     `json:"reference,omitempty"`
	EntityEdges       []string      `json:"entity_edges,omitempty"`

	// NameEmbedding is populated during ingestion and search. It is kept
	// out of API responses; the driver persists it as a node property.
	NameEmbedding []float32 `json:"-"`
}

// Validate checks the fields every node needs before persistence.
func (n *Node) Validate() error {
	if n.Name == "" {
		return ErrEmptyName
	}
	if n.GroupID == "" {
		return ErrEmptyGroupID
	}
	return nil
}

// ValidateForUpsert additionally requires a UUID, which the ingestion
// pipeline assigns before the driver sees the node.
func (n *Node) ValidateForUpsert() error {
	if n.UUID == "" {
		return ErrEmptyUUID
	}
	return n.Validate()
}

// IsEntity reports whether the node is an entity node.
func (n *Node) IsEntity() bool { return n.Kind == EntityNode }

// IsEpisodic reports whether the node is an episodic node.
func (n *Node) IsEpisodic() bool { return n.Kind == EpisodicNode }

// Label returns the graph label used to store this node kind.
func (k NodeKind) Label() string {
	switch k {
	case EpisodicNode:
		return "Episodic"
	default:
		return "Entity"
	}
}
