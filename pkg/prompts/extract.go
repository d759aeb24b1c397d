package prompts

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/soundprediction/engram/pkg/llm"
)

// ExtractionInput carries everything the entity extraction prompts need.
// PreviousEpisodes are recent episode contents supplied for context only;
// entities mentioned exclusively there must not be extracted.
type ExtractionInput struct {
	EpisodeContent    string
	SourceDescription string
	PreviousEpisodes  []string
	EntityTypes       []EntityType
	Format            Format
	Logger            *slog.Logger
}

func (in *ExtractionInput) entityTypes() []EntityType {
	if len(in.EntityTypes) == 0 {
		return DefaultEntityTypes()
	}
	return in.EntityTypes
}

const extractResponseShape = `Respond with a %s object containing a single "extracted_entities" list.
Each list item has two fields:
- "name": the exact, unambiguous name of the entity (use full names, never pronouns)
- "entity_type_id": the integer id of its classification from ENTITY TYPES`

// ExtractEntitiesMessage builds the entity extraction prompt for
// conversational message episodes, where each line is "speaker: text".
func ExtractEntitiesMessage(in ExtractionInput) ([]llm.Message, error) {
	sysPrompt := `You are an AI assistant that extracts entity nodes from conversational messages.
Your primary task is to extract and classify the speaker and other significant entities mentioned in the conversation.`

	entityTypes, err := in.Format.Marshal(in.entityTypes())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity types: %w", err)
	}
	previous, err := in.Format.Marshal(in.PreviousEpisodes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal previous episodes: %w", err)
	}

	userPrompt := fmt.Sprintf(`<ENTITY TYPES>
%s</ENTITY TYPES>

<PREVIOUS MESSAGES>
%s</PREVIOUS MESSAGES>

<CURRENT MESSAGE>
%s
</CURRENT MESSAGE>

Instructions:

Extract the entity nodes mentioned explicitly or implicitly in the CURRENT MESSAGE.
Pronoun references such as he/she/they or this/that/those should be disambiguated
to the names of the entities they refer to.

1. ALWAYS extract the speaker (the part before the colon in each dialogue line) as the
   first entity node. Repeat mentions of the speaker are a single entity.
2. Extract all other significant entities, concepts, or actors mentioned in the
   CURRENT MESSAGE. Exclude entities that appear only in PREVIOUS MESSAGES; those are
   context, not content.
3. Classify each entity with the best matching entity_type_id from ENTITY TYPES.
4. Do NOT extract relationships, actions, dates, times, or other temporal information
   as entities.
5. Do NOT extract bare pronouns such as you, me, he, she, they, we.

%s`, entityTypes, previous, in.EpisodeContent, fmt.Sprintf(extractResponseShape, in.Format.Description()))

	logPrompts(in.Logger, sysPrompt, userPrompt)
	return messagePair(sysPrompt, userPrompt), nil
}

// ExtractEntitiesJSON builds the entity extraction prompt for structured
// JSON document episodes.
func ExtractEntitiesJSON(in ExtractionInput) ([]llm.Message, error) {
	sysPrompt := `You are an AI assistant that extracts entity nodes from JSON documents.
Your primary task is to extract and classify the relevant entities the JSON describes.`

	entityTypes, err := in.Format.Marshal(in.entityTypes())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity types: %w", err)
	}

	userPrompt := fmt.Sprintf(`<ENTITY TYPES>
%s</ENTITY TYPES>

<SOURCE DESCRIPTION>
%s
</SOURCE DESCRIPTION>

<JSON>
%s
</JSON>

Given the SOURCE DESCRIPTION and the JSON document, extract the relevant entities the
document represents, and classify each with the best matching entity_type_id from
ENTITY TYPES.

Guidelines:
1. Always extract the entity the JSON itself represents; this is often a "name",
   "title", or "user" field.
2. Extract entities referenced by nested fields when they denote real-world things
   (brands, people, places), not bare configuration values.
3. Do NOT extract properties that contain dates or timestamps.

%s`, entityTypes, in.SourceDescription, in.EpisodeContent, fmt.Sprintf(extractResponseShape, in.Format.Description()))

	logPrompts(in.Logger, sysPrompt, userPrompt)
	return messagePair(sysPrompt, userPrompt), nil
}

// ExtractEntitiesText builds the entity extraction prompt for plain text
// episodes such as documents or transcripts.
func ExtractEntitiesText(in ExtractionInput) ([]llm.Message, error) {
	sysPrompt := `You are an AI assistant that extracts entity nodes from text.
Your primary task is to extract and classify the significant entities mentioned in the provided text.`

	entityTypes, err := in.Format.Marshal(in.entityTypes())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity types: %w", err)
	}

	userPrompt := fmt.Sprintf(`<ENTITY TYPES>
%s</ENTITY TYPES>

<TEXT>
%s
</TEXT>

Extract the entities mentioned explicitly or implicitly in the TEXT, and classify each
with the best matching entity_type_id from ENTITY TYPES.

Guidelines:
1. Extract significant entities, concepts, or actors.
2. Avoid creating entities for relationships or actions.
3. Avoid creating entities for temporal information like dates, times, or years;
   these are attached to relationships later.
4. Be as explicit as possible in entity names, using full names and avoiding
   abbreviations.

%s`, entityTypes, in.EpisodeContent, fmt.Sprintf(extractResponseShape, in.Format.Description()))

	logPrompts(in.Logger, sysPrompt, userPrompt)
	return messagePair(sysPrompt, userPrompt), nil
}

// EntityRef identifies one resolved entity offered to the fact extraction
// prompt. IDs are positional and only meaningful within a single prompt.
type EntityRef struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// FactInput carries everything the fact extraction prompt needs.
// ReferenceTime anchors relative temporal expressions ("last week").
type FactInput struct {
	EpisodeContent   string
	PreviousEpisodes []string
	Entities         []EntityRef
	ReferenceTime    time.Time
	Format           Format
	Logger           *slog.Logger
}

// ExtractFacts builds the prompt that extracts relationship triples
// between already-extracted entities, with temporal validity bounds.
func ExtractFacts(in FactInput) ([]llm.Message, error) {
	sysPrompt := `You are an expert fact extractor that extracts fact triples from text.
1. Extracted fact triples should also be extracted with relevant date information.
2. Treat the CURRENT TIME as the time the CURRENT MESSAGE was sent. All temporal information should be extracted relative to this time.`

	entities, err := in.Format.Marshal(in.Entities)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entities: %w", err)
	}
	previous, err := in.Format.Marshal(in.PreviousEpisodes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal previous episodes: %w", err)
	}

	userPrompt := fmt.Sprintf(`<PREVIOUS MESSAGES>
%s</PREVIOUS MESSAGES>

<CURRENT MESSAGE>
%s
</CURRENT MESSAGE>

<ENTITIES>
%s</ENTITIES>

<REFERENCE TIME>
%s
</REFERENCE TIME>

# TASK
Extract all factual relationships between the given ENTITIES based on the CURRENT MESSAGE.
Only extract facts that:
- involve two DISTINCT entities from the ENTITIES list,
- are clearly stated or unambiguously implied in the CURRENT MESSAGE,
- can be represented as edges in a knowledge graph.

You may use PREVIOUS MESSAGES only to disambiguate references or support continuity.

# EXTRACTION RULES
1. Use the exact entity names from ENTITIES as "source_entity_name" and
   "target_entity_name". Never invent entities.
2. Each fact must involve two distinct entities.
3. Use a SCREAMING_SNAKE_CASE string as the "relation_type" (e.g., FOUNDED, WORKS_AT).
4. Do not emit duplicate or semantically redundant facts.
5. The "fact" field should quote or closely paraphrase the original source sentence(s),
   using entity names rather than pronouns.

# DATETIME RULES
- Use ISO 8601 with the "Z" suffix (UTC), e.g. 2025-04-30T00:00:00Z.
- Use REFERENCE TIME to resolve relative expressions such as "last week".
- If the fact is ongoing (present tense), set "valid_at" to REFERENCE TIME.
- If a change or termination is expressed, set "invalid_at" to the relevant timestamp.
- Leave both fields null when no explicit or resolvable time is stated.
- If only a date is mentioned, use 00:00:00; if only a year, use January 1st 00:00:00.
- Do NOT infer temporal bounds from unrelated events.

Respond with a %s object containing a single "facts" list. Each list item has the
fields: "relation_type", "source_entity_name", "target_entity_name", "fact",
"valid_at", "invalid_at".`, previous, in.EpisodeContent, entities, in.ReferenceTime.UTC().Format(time.RFC3339), in.Format.Description())

	logPrompts(in.Logger, sysPrompt, userPrompt)
	return messagePair(sysPrompt, userPrompt), nil
}
