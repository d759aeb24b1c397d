package prompts

import (
	"fmt"
	"log/slog"

	"github.com/soundprediction/engram/pkg/llm"
)

// SummaryInput carries everything the entity summarization prompt needs.
// ExistingSummary may be empty for entities seen for the first time.
type SummaryInput struct {
	EpisodeContent   string
	PreviousEpisodes []string
	EntityName       string
	ExistingSummary  string
	Format           Format
	Logger           *slog.Logger
}

// SummarizeEntity builds the prompt that refreshes an entity summary with
// information from a new episode, folding in the existing summary.
func SummarizeEntity(in SummaryInput) ([]llm.Message, error) {
	sysPrompt := `You are a helpful assistant that maintains concise entity summaries from the provided text.`

	previous, err := in.Format.Marshal(in.PreviousEpisodes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal previous episodes: %w", err)
	}

	userPrompt := fmt.Sprintf(`<PREVIOUS MESSAGES>
%s</PREVIOUS MESSAGES>

<CURRENT MESSAGE>
%s
</CURRENT MESSAGE>

<ENTITY NAME>
%s
</ENTITY NAME>

<EXISTING SUMMARY>
%s
</EXISTING SUMMARY>

Given the above MESSAGES, update the summary of the named entity, combining new
information from the CURRENT MESSAGE with relevant information from the
EXISTING SUMMARY.

Guidelines:
1. Do not hallucinate information that cannot be found in the current context.
2. Only use the provided MESSAGES and EXISTING SUMMARY.
3. Summaries must be no longer than 250 words.

Respond with a %s object containing a single "summary" string field.`, previous, in.EpisodeContent, in.EntityName, in.ExistingSummary, in.Format.Description())

	logPrompts(in.Logger, sysPrompt, userPrompt)
	return messagePair(sysPrompt, userPrompt), nil
}
