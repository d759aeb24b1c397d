package utils

import "strings"

// DefaultChunkSize is the maximum number of characters of episode content
// sent to the language model in a single extraction pass.
const DefaultChunkSize = 8192

// ChunkText splits text into pieces of at most maxChars characters,
// keeping paragraphs together when possible and falling back to sentence
// and word boundaries inside oversized paragraphs. Non-positive maxChars
// defaults to DefaultChunkSize. Text at or under the limit is returned
// as a single chunk.
func ChunkText(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultChunkSize
	}
	if len(text) <= maxChars {
		return []string{text}
	}

	paragraphs := strings.Split(text, "\n\n")

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, para := range paragraphs {
		if len(para) > maxChars {
			flush()
			chunks = append(chunks, splitParagraph(para, maxChars)...)
			continue
		}

		separator := 0
		if current.Len() > 0 {
			separator = 2 // "\n\n"
		}
		if current.Len()+separator+len(para) > maxChars {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return chunks
}

// splitParagraph breaks a single oversized paragraph at sentence
// boundaries, then newlines, then word boundaries. Break points closer
// than a third of maxChars to the start are rejected to avoid emitting
// tiny fragments; when nothing qualifies the split lands at maxChars.
func splitParagraph(para string, maxChars int) []string {
	var chunks []string
	remaining := para
	minChunk := maxChars / 3

	for len(remaining) > 0 {
		if len(remaining) <= maxChars {
			chunks = append(chunks, strings.TrimSpace(remaining))
			break
		}

		window := remaining[:maxChars]
		breakAt := maxChars

		switch {
		case boundaryAfter(window, ". ", minChunk) > 0:
			breakAt = boundaryAfter(window, ". ", minChunk)
		case boundaryAfter(window, "! ", minChunk) > 0:
			breakAt = boundaryAfter(window, "! ", minChunk)
		case boundaryAfter(window, "? ", minChunk) > 0:
			breakAt = boundaryAfter(window, "? ", minChunk)
		case boundaryAfter(window, "\n", minChunk) > 0:
			breakAt = boundaryAfter(window, "\n", minChunk)
		case boundaryAfter(window, " ", minChunk) > 0:
			breakAt = boundaryAfter(window, " ", minChunk)
		}

		chunks = append(chunks, strings.TrimSpace(remaining[:breakAt]))
		remaining = remaining[breakAt:]
	}

	return chunks
}

// boundaryAfter finds the last occurrence of sep in window past min and
// returns the index just after it, or -1 when no occurrence qualifies.
func boundaryAfter(window, sep string, min int) int {
	idx := strings.LastIndex(window, sep)
	if idx <= min {
		return -1
	}
	return idx + len(sep)
}
