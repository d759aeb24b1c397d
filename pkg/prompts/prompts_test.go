package prompts

import (
	"strings"
	"testing"
	"time"

	"github.com/soundprediction/engram/pkg/llm"
)

func requirePair(t *testing.T, messages []llm.Message) (string, string) {
	t.Helper()
	if len(messages) != 2 {
		t.Fatalf("expected system + user pair, got %d messages", len(messages))
	}
	if messages[0].Role != llm.RoleSystem || messages[1].Role != llm.RoleUser {
		t.Fatalf("unexpected roles: %s, %s", messages[0].Role, messages[1].Role)
	}
	return messages[0].Content, messages[1].Content
}

func TestExtractEntitiesMessage(t *testing.T) {
	t.Parallel()

	messages, err := ExtractEntitiesMessage(ExtractionInput{
		EpisodeContent:   "jess: I'm looking for new running shoes",
		PreviousEpisodes: []string{"jess: hi there"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sys, user := requirePair(t, messages)
	if !strings.Contains(sys, "conversational messages") {
		t.Errorf("system prompt missing role description: %q", sys)
	}
	for _, want := range []string{
		"<CURRENT MESSAGE>",
		"jess: I'm looking for new running shoes",
		"<PREVIOUS MESSAGES>",
		"extracted_entities",
		"entity_type_id",
	} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}
	// Default entity types appear when none are supplied.
	if !strings.Contains(user, "Entity") {
		t.Error("user prompt missing default entity type")
	}
}

func TestExtractEntitiesJSON(t *testing.T) {
	t.Parallel()

	messages, err := ExtractEntitiesJSON(ExtractionInput{
		EpisodeContent:    `{"title": "TinyBirds Wool Runners"}`,
		SourceDescription: "product catalog",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, user := requirePair(t, messages)
	if !strings.Contains(user, "product catalog") {
		t.Error("user prompt missing source description")
	}
	if !strings.Contains(user, "<JSON>") {
		t.Error("user prompt missing JSON section")
	}
}

func TestExtractEntitiesText(t *testing.T) {
	t.Parallel()

	messages, err := ExtractEntitiesText(ExtractionInput{
		EpisodeContent: "Kamala Harris was the attorney general of California.",
		EntityTypes: []EntityType{
			{ID: 0, Name: "Entity"},
			{ID: 1, Name: "Person", Description: "A human being"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, user := requirePair(t, messages)
	if !strings.Contains(user, "Person") || !strings.Contains(user, "A human being") {
		t.Error("user prompt missing supplied entity types")
	}
	if !strings.Contains(user, "<TEXT>") {
		t.Error("user prompt missing TEXT section")
	}
}

func TestExtractFacts(t *testing.T) {
	t.Parallel()

	ref := time.Date(2024, 8, 5, 12, 0, 0, 0, time.UTC)
	messages, err := ExtractFacts(FactInput{
		EpisodeContent: "Kamala Harris is the Attorney General of California.",
		Entities: []EntityRef{
			{ID: 0, Name: "Kamala Harris"},
			{ID: 1, Name: "California"},
		},
		ReferenceTime: ref,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sys, user := requirePair(t, messages)
	if !strings.Contains(sys, "fact triples") {
		t.Errorf("system prompt missing role description: %q", sys)
	}
	for _, want := range []string{
		"2024-08-05T12:00:00Z",
		"SCREAMING_SNAKE_CASE",
		"source_entity_name",
		"valid_at",
		"invalid_at",
		"Kamala Harris",
	} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}
}

func TestDedupeEntities(t *testing.T) {
	t.Parallel()

	messages, err := DedupeEntities(DedupeInput{
		EpisodeContent: "SF is a city in California.",
		Candidates:     []CandidateEntity{{ID: 0, Name: "SF"}},
		Existing: []ExistingEntity{
			{Idx: 0, Name: "San Francisco", Summary: "A city in northern California"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, user := requirePair(t, messages)
	for _, want := range []string{
		"entity_resolutions",
		"duplicate_idx",
		"-1",
		"San Francisco",
		"<EXISTING ENTITIES>",
	} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}
}

func TestInvalidateEdges(t *testing.T) {
	t.Parallel()

	messages, err := InvalidateEdges(InvalidationInput{
		EpisodeContent: "Kamala Harris is now a senator.",
		ExistingFacts: []ExistingFact{
			{ID: 0, Fact: "Kamala Harris is the attorney general of California"},
		},
		ReferenceTime: time.Date(2017, 1, 3, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, user := requirePair(t, messages)
	for _, want := range []string{
		"contradicted_facts",
		"<EXISTING FACTS>",
		"attorney general",
		"2017-01-03T00:00:00Z",
	} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}
}

func TestSummarizeEntity(t *testing.T) {
	t.Parallel()

	messages, err := SummarizeEntity(SummaryInput{
		EpisodeContent:  "jess: I wear a size 10 in TinyBirds shoes.",
		EntityName:      "jess",
		ExistingSummary: "jess is shopping for shoes.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, user := requirePair(t, messages)
	for _, want := range []string{
		"<ENTITY NAME>",
		"jess",
		"<EXISTING SUMMARY>",
		"250 words",
		`"summary"`,
	} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}
}

func TestYAMLFormat(t *testing.T) {
	t.Parallel()

	messages, err := ExtractEntitiesText(ExtractionInput{
		EpisodeContent: "some text",
		Format:         FormatYAML,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, user := requirePair(t, messages)
	if !strings.Contains(user, "YAML format") {
		t.Error("user prompt should name the YAML format")
	}
	if !strings.Contains(user, "entity_type_name: Entity") {
		t.Error("entity types should be serialized as YAML")
	}
}

func TestUnicodePreserved(t *testing.T) {
	t.Parallel()

	messages, err := ExtractEntitiesText(ExtractionInput{
		EpisodeContent: "São Paulo é uma cidade",
		EntityTypes:    []EntityType{{ID: 0, Name: "Entidade", Description: "Tipo padrão"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sys, user := requirePair(t, messages)
	if !strings.Contains(user, "Tipo padrão") {
		t.Error("non-ASCII characters should survive serialization")
	}
	if !strings.Contains(sys, "Do not escape unicode characters.") {
		t.Error("system prompt missing unicode preservation instruction")
	}
}
