package utils

import (
	"strings"
	"testing"
)

func TestChunkText(t *testing.T) {
	t.Parallel()

	t.Run("short text is a single chunk", func(t *testing.T) {
		chunks := ChunkText("hello world", 100)
		if len(chunks) != 1 || chunks[0] != "hello world" {
			t.Errorf("expected single chunk, got %v", chunks)
		}
	})

	t.Run("default size applies when maxChars is zero", func(t *testing.T) {
		text := strings.Repeat("a", DefaultChunkSize)
		chunks := ChunkText(text, 0)
		if len(chunks) != 1 {
			t.Errorf("text at the default limit should stay whole, got %d chunks", len(chunks))
		}
	})

	t.Run("paragraphs pack together under the limit", func(t *testing.T) {
		text := "first paragraph\n\nsecond paragraph\n\nthird paragraph"
		chunks := ChunkText(text, 36)
		if len(chunks) != 2 {
			t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
		}
		if !strings.Contains(chunks[0], "first paragraph") || !strings.Contains(chunks[0], "second paragraph") {
			t.Errorf("first chunk should hold two paragraphs: %q", chunks[0])
		}
		if chunks[1] != "third paragraph" {
			t.Errorf("unexpected second chunk: %q", chunks[1])
		}
	})

	t.Run("oversized paragraph splits at sentence boundaries", func(t *testing.T) {
		sentence := "This is a sentence about knowledge graphs. "
		text := strings.TrimSpace(strings.Repeat(sentence, 10))
		max := 100
		chunks := ChunkText(text, max)
		if len(chunks) < 2 {
			t.Fatalf("expected multiple chunks, got %d", len(chunks))
		}
		for i, c := range chunks {
			if len(c) > max {
				t.Errorf("chunk %d exceeds limit: %d chars", i, len(c))
			}
			if i < len(chunks)-1 && !strings.HasSuffix(c, ".") {
				t.Errorf("chunk %d should end at a sentence boundary: %q", i, c)
			}
		}
	})

	t.Run("no fragments shorter than a third of the limit", func(t *testing.T) {
		// One early period, the rest unbroken: the early boundary sits
		// below the floor and must be skipped for the word boundary.
		text := "Hi. " + strings.Repeat("word ", 60)
		max := 100
		for _, c := range ChunkText(strings.TrimSpace(text), max) {
			if len(c) > max {
				t.Errorf("chunk exceeds limit: %d chars", len(c))
			}
		}
	})

	t.Run("unbroken text splits hard at the limit", func(t *testing.T) {
		text := strings.Repeat("x", 250)
		chunks := ChunkText(text, 100)
		if len(chunks) != 3 {
			t.Fatalf("expected 3 chunks, got %d", len(chunks))
		}
		if len(chunks[0]) != 100 || len(chunks[1]) != 100 || len(chunks[2]) != 50 {
			t.Errorf("unexpected chunk lengths: %d, %d, %d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
		}
	})

	t.Run("reassembled chunks preserve the words", func(t *testing.T) {
		text := "Alpha beta gamma. Delta epsilon zeta. Eta theta iota kappa lambda."
		chunks := ChunkText(text, 30)
		joined := strings.Join(chunks, " ")
		for _, word := range strings.Fields(strings.ReplaceAll(text, ".", "")) {
			if !strings.Contains(joined, word) {
				t.Errorf("word %q lost during chunking", word)
			}
		}
	})
}
