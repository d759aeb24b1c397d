package prompts

import (
	"log/slog"
	"os"

	"github.com/soundprediction/engram/pkg/llm"
)

// EntityType describes one classification option offered to the model
// during entity extraction. ID 0 is reserved for the default type.
type EntityType struct {
	ID          int    `json:"entity_type_id" yaml:"entity_type_id"`
	Name        string `json:"entity_type_name" yaml:"entity_type_name"`
	Description string `json:"entity_type_description,omitempty" yaml:"entity_type_description,omitempty"`
}

// DefaultEntityTypes is the classification list used when a caller
// supplies none.
func DefaultEntityTypes() []EntityType {
	return []EntityType{
		{ID: 0, Name: "Entity", Description: "Default classification. Use when no other type fits well."},
	}
}

// ExtractedEntity is one entity the model found in episode content.
type ExtractedEntity struct {
	Name   string `json:"name" yaml:"name"`
	TypeID int    `json:"entity_type_id" yaml:"entity_type_id"`
}

// ExtractedEntities is the response shape for entity extraction.
type ExtractedEntities struct {
	Entities []ExtractedEntity `json:"extracted_entities" yaml:"extracted_entities"`
}

// ExtractedFact is one relationship triple the model found between two
// previously extracted entities, with optional temporal bounds in
// ISO 8601 UTC.
type ExtractedFact struct {
	RelationType string  `json:"relation_type" yaml:"relation_type"`
	SourceName   string  `json:"source_entity_name" yaml:"source_entity_name"`
	TargetName   string  `json:"target_entity_name" yaml:"target_entity_name"`
	Fact         string  `json:"fact" yaml:"fact"`
	ValidAt      *string `json:"valid_at" yaml:"valid_at"`
	InvalidAt    *string `json:"invalid_at" yaml:"invalid_at"`
}

// ExtractedFacts is the response shape for fact extraction.
type ExtractedFacts struct {
	Facts []ExtractedFact `json:"facts" yaml:"facts"`
}

// EntityResolution maps one extracted entity onto an existing graph
// entity. DuplicateIdx is -1 when the entity is genuinely new.
type EntityResolution struct {
	ID           int    `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	DuplicateIdx int    `json:"duplicate_idx" yaml:"duplicate_idx"`
}

// DedupeResolutions is the response shape for entity deduplication.
type DedupeResolutions struct {
	Resolutions []EntityResolution `json:"entity_resolutions" yaml:"entity_resolutions"`
}

// EdgeInvalidations is the response shape for edge invalidation:
// the ids of existing facts the new episode contradicts.
type EdgeInvalidations struct {
	ContradictedFacts []int `json:"contradicted_facts" yaml:"contradicted_facts"`
}

// EntitySummary is the response shape for entity summarization.
type EntitySummary struct {
	Summary string `json:"summary" yaml:"summary"`
}

// messagePair assembles the conventional system + user message pair and
// asks the model to preserve unicode rather than escaping it.
func messagePair(sysPrompt, userPrompt string) []llm.Message {
	return []llm.Message{
		llm.NewSystemMessage(sysPrompt + "\nDo not escape unicode characters."),
		llm.NewUserMessage(userPrompt),
	}
}

// logPrompts emits the full prompt text at debug level when
// DEBUG_LLM_PROMPTS=true, for inspecting what the model actually sees.
func logPrompts(logger *slog.Logger, sysPrompt, userPrompt string) {
	if os.Getenv("DEBUG_LLM_PROMPTS") != "true" {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("generated prompt", "system", sysPrompt, "user", userPrompt)
}
