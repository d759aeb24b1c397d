package prompts

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/soundprediction/engram/pkg/llm"
)

// ExistingFact is one currently valid graph edge checked for
// contradiction against a new episode. ID is positional within the
// prompt.
type ExistingFact struct {
	ID   int    `json:"id" yaml:"id"`
	Fact string `json:"fact" yaml:"fact"`
}

// InvalidationInput carries everything the edge invalidation prompt
// needs.
type InvalidationInput struct {
	EpisodeContent   string
	PreviousEpisodes []string
	ExistingFacts    []ExistingFact
	ReferenceTime    time.Time
	Format           Format
	Logger           *slog.Logger
}

// InvalidateEdges builds the prompt that decides which existing facts a
// new episode contradicts, so their edges can be closed with an
// invalidation timestamp.
func InvalidateEdges(in InvalidationInput) ([]llm.Message, error) {
	sysPrompt := `You are a helpful assistant that determines which existing facts are contradicted by new information.`

	previous, err := in.Format.Marshal(in.PreviousEpisodes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal previous episodes: %w", err)
	}
	facts, err := in.Format.Marshal(in.ExistingFacts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal existing facts: %w", err)
	}

	userPrompt := fmt.Sprintf(`<PREVIOUS MESSAGES>
%s</PREVIOUS MESSAGES>

<CURRENT MESSAGE>
%s
</CURRENT MESSAGE>

<EXISTING FACTS>
%s</EXISTING FACTS>

<REFERENCE TIME>
%s
</REFERENCE TIME>

Based on the CURRENT MESSAGE, determine which EXISTING FACTS are no longer true.

A fact is contradicted when:
1. The CURRENT MESSAGE directly contradicts the relationship it states.
2. The relationship has ended according to the CURRENT MESSAGE.
3. New information supersedes it (for example, a role or status changed hands).

A fact is NOT contradicted merely because the CURRENT MESSAGE adds related
information or describes a different relationship between the same entities.

Respond with a %s object containing a single "contradicted_facts" list holding
the integer ids of the contradicted EXISTING FACTS. Use an empty list when
nothing is contradicted. Only use ids that appear in EXISTING FACTS.`, previous, in.EpisodeContent, facts, in.ReferenceTime.UTC().Format(time.RFC3339), in.Format.Description())

	logPrompts(in.Logger, sysPrompt, userPrompt)
	return messagePair(sysPrompt, userPrompt), nil
}
