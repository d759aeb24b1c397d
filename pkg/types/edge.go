package types

import "time"

// Edge is a typed relationship between two entity nodes. The Fact field
// holds the natural-language statement the relationship was extracted
// from; ValidAt and InvalidAt bound the period the fact held true.
type Edge struct {
	UUID           string    `json:"uuid"`
	GroupID        string    `json:"group_id"`
	SourceNodeUUID string    `json:"source_node_uuid"`
	TargetNodeUUID string    `json:"target_node_uuid"`
	Name           string    `json:"name"`
	Fact           string    `json:"fact"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`

	// Episodes lists the UUIDs of episodic nodes this edge was extracted
	// from or reinforced by.
	Episodes []string `json:"episodes,omitempty"`

	// Temporal window. A nil InvalidAt means the fact is still current.
	ValidAt   *time.Time `json:"valid_at,omitempty"`
	InvalidAt *time.Time `json:"invalid_at,omitempty"`

	FactEmbedding []float32 `json:"-"`
}

// Validate checks the fields every edge needs before persistence.
func (e *Edge) Validate() error {
	if e.Name == "" {
		return ErrEmptyName
	}
	if e.Fact == "" {
		return ErrEmptyFact
	}
	if e.GroupID == "" {
		return ErrEmptyGroupID
	}
	if e.SourceNodeUUID == "" || e.TargetNodeUUID == "" {
		return ErrMissingEndpoints
	}
	return nil
}

// ValidateForUpsert additionally requires a UUID.
func (e *Edge) ValidateForUpsert() error {
	if e.UUID == "" {
		return ErrEmptyUUID
	}
	return e.Validate()
}

// Expired reports whether the edge's validity window is closed.
func (e *Edge) Expired() bool { return e.InvalidAt != nil }

// CurrentAt reports whether the fact held at the given instant. Edges
// without a ValidAt are treated as valid from their creation time.
func (e *Edge) CurrentAt(t time.Time) bool {
	start := e.CreatedAt
	if e.ValidAt != nil {
		start = *e.ValidAt
	}
	if t.Before(start) {
		return false
	}
	if e.InvalidAt != nil && !t.Before(*e.InvalidAt) {
		return false
	}
	return true
}
