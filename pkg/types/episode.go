package types

import (
	"fmt"
	"time"
)

// EpisodeSource describes the shape of an episode's content, which selects
// the extraction prompt used during ingestion.
type EpisodeSource string

const (
	// SourceText is unstructured prose.
	SourceText EpisodeSource = "text"
	// SourceJSON is a structured document serialized as JSON.
	SourceJSON EpisodeSource = "json"
	// SourceMessage is a conversational exchange, one "speaker: utterance"
	// line per turn.
	SourceMessage EpisodeSource = "message"
)

// ParseEpisodeSource validates a source string. The empty string maps to
// SourceText.
func ParseEpisodeSource(s string) (EpisodeSource, error) {
	switch EpisodeSource(s) {
	case SourceText, SourceJSON, SourceMessage:
		return EpisodeSource(s), nil
	case "":
		return SourceText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidEpisodeSource, s)
	}
}

// Description returns the phrasing used in extraction prompts.
func (s EpisodeSource) Description() string {
	switch s {
	case SourceJSON:
		return "structured JSON document"
	case SourceMessage:
		return "conversation between a user and an assistant"
	default:
		return "text document"
	}
}

// Episode is a unit of content submitted for ingestion. Episodes are
// append-only: once added they are only removed by an explicit wipe.
type Episode struct {
	Name              string        `json:"name"`
	Content           string        `json:"content"`
	Source            EpisodeSource `json:"source"`
	SourceDescription string        `json:"source_description,omitempty"`

	// Reference is the point in time the content speaks about, which may
	// be long before ingestion. The zero value defaults to the ingestion
	// time.
	Reference time.Time `json:"reference,omitempty"`

	GroupID string `json:"group_id,omitempty"`
}

// Validate checks an episode before ingestion. GroupID may be empty here;
// the client fills in its configured group.
func (ep *Episode) Validate() error {
	if ep.Name == "" {
		return ErrEmptyName
	}
	if ep.Content == "" {
		return ErrEmptyContent
	}
	if _, err := ParseEpisodeSource(string(ep.Source)); err != nil {
		return err
	}
	return nil
}

// AddResult reports what one episode's ingestion produced.
type AddResult struct {
	Episode          *Node   `json:"episode"`
	Nodes            []*Node `json:"nodes"`
	Edges            []*Edge `json:"edges"`
	InvalidatedEdges []*Edge `json:"invalidated_edges,omitempty"`
}

// BulkResult aggregates the results of a bulk ingestion run.
type BulkResult struct {
	Results  []*AddResult `json:"results"`
	Episodes int          `json:"episodes"`
	Nodes    int          `json:"nodes"`
	Edges    int          `json:"edges"`
}
