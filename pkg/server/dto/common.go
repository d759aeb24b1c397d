// Package dto defines the request and response shapes of the HTTP API.
// Requests validate themselves; handlers translate between these types and
// the graph client's own types.
package dto

import (
	"errors"
	"strings"
	"time"
)

// Message is one turn of a conversation submitted for ingestion.
type Message struct {
	Role      string     `json:"role" binding:"required"`
	Content   string     `json:"content" binding:"required"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// ValidRoles lists the accepted message roles.
var ValidRoles = map[string]bool{
	"user":      true,
	"assistant": true,
	"system":    true,
}

// Validate checks a single message.
func (m *Message) Validate() error {
	if strings.TrimSpace(m.Role) == "" {
		return errors.New("role cannot be empty")
	}
	if !ValidRoles[strings.ToLower(m.Role)] {
		return errors.New("invalid role: must be user, assistant, or system")
	}
	if strings.TrimSpace(m.Content) == "" {
		return errors.New("content cannot be empty")
	}
	if len(m.Content) > MaxContentLength {
		return ErrContentTooLong
	}
	return nil
}

// FactResult is one relationship returned by a search, with its temporal
// validity window.
type FactResult struct {
	UUID           string     `json:"uuid"`
	Fact           string     `json:"fact"`
	Name           string     `json:"name"`
	SourceNodeUUID string     `json:"source_node_uuid"`
	TargetNodeUUID string     `json:"target_node_uuid"`
	CreatedAt      time.Time  `json:"created_at"`
	ValidAt        *time.Time `json:"valid_at,omitempty"`
	InvalidAt      *time.Time `json:"invalid_at,omitempty"`
	Expired        bool       `json:"expired"`
}

// NodeResult is one entity returned by a node search.
type NodeResult struct {
	UUID       string    `json:"uuid"`
	Name       string    `json:"name"`
	EntityType string    `json:"entity_type,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// EpisodeResult is one ingested episode returned by the episodes endpoint.
type EpisodeResult struct {
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
	GroupID   string    `json:"group_id"`
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	Reference time.Time `json:"reference"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
