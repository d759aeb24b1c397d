package prompts

import (
	"fmt"
	"log/slog"

	"github.com/soundprediction/engram/pkg/llm"
)

// CandidateEntity is one newly extracted entity awaiting resolution
// against the existing graph.
type CandidateEntity struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// ExistingEntity is one graph entity a candidate might duplicate. Idx is
// positional within the prompt; Summary gives the model disambiguating
// context.
type ExistingEntity struct {
	Idx     int    `json:"idx" yaml:"idx"`
	Name    string `json:"name" yaml:"name"`
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// DedupeInput carries everything the entity deduplication prompt needs.
type DedupeInput struct {
	EpisodeContent   string
	PreviousEpisodes []string
	Candidates       []CandidateEntity
	Existing         []ExistingEntity
	Format           Format
	Logger           *slog.Logger
}

// DedupeEntities builds the prompt that resolves newly extracted entities
// against existing graph entities in a single batched call.
func DedupeEntities(in DedupeInput) ([]llm.Message, error) {
	sysPrompt := `You are a helpful assistant that determines whether or not ENTITIES extracted from a conversation are duplicates of existing entities.`

	previous, err := in.Format.Marshal(in.PreviousEpisodes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal previous episodes: %w", err)
	}
	candidates, err := in.Format.Marshal(in.Candidates)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal candidate entities: %w", err)
	}
	existing, err := in.Format.Marshal(in.Existing)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal existing entities: %w", err)
	}

	userPrompt := fmt.Sprintf(`<PREVIOUS MESSAGES>
%s</PREVIOUS MESSAGES>

<CURRENT MESSAGE>
%s
</CURRENT MESSAGE>

Each of the following ENTITIES was extracted from the CURRENT MESSAGE.

<ENTITIES>
%s</ENTITIES>

<EXISTING ENTITIES>
%s</EXISTING ENTITIES>

For each of the ENTITIES, determine whether it is a duplicate of any of the
EXISTING ENTITIES.

Entities are duplicates only when they refer to the same real-world object or
concept. If a descriptive label among the EXISTING ENTITIES clearly refers to a
named entity in context, treat them as duplicates.

Do NOT mark entities as duplicates if:
- They are related but distinct.
- They have similar names or purposes but refer to separate instances or concepts.

Respond with a %s object containing a single "entity_resolutions" list with one
item per entity in ENTITIES, each with the fields:
- "id": the integer id from ENTITIES
- "name": the best full name for the entity (keep the original name unless a
  duplicate has a more complete one)
- "duplicate_idx": the idx of the EXISTING ENTITY it duplicates, or -1 if none

Only use idx values that appear in EXISTING ENTITIES. Never fabricate entities
or indices.`, previous, in.EpisodeContent, candidates, existing, in.Format.Description())

	logPrompts(in.Logger, sysPrompt, userPrompt)
	return messagePair(sysPrompt, userPrompt), nil
}
