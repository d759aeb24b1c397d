package prompts

import (
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("clean JSON", func(t *testing.T) {
		out, err := Parse[ExtractedEntities](`{"extracted_entities": [{"name": "Kamala Harris", "entity_type_id": 0}]}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out.Entities) != 1 || out.Entities[0].Name != "Kamala Harris" {
			t.Errorf("unexpected result: %+v", out)
		}
	})

	t.Run("fenced code block", func(t *testing.T) {
		content := "Here are the results:\n```json\n{\"extracted_entities\": [{\"name\": \"Gavin Newsom\", \"entity_type_id\": 0}]}\n```"
		out, err := Parse[ExtractedEntities](content)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out.Entities) != 1 || out.Entities[0].Name != "Gavin Newsom" {
			t.Errorf("unexpected result: %+v", out)
		}
	})

	t.Run("think tags stripped", func(t *testing.T) {
		content := "<think>let me reason about this</think>{\"summary\": \"A politician.\"}"
		out, err := Parse[EntitySummary](content)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Summary != "A politician." {
			t.Errorf("unexpected summary: %q", out.Summary)
		}
	})

	t.Run("trailing comma repaired", func(t *testing.T) {
		out, err := Parse[EdgeInvalidations](`{"contradicted_facts": [1, 3,]}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out.ContradictedFacts) != 2 || out.ContradictedFacts[1] != 3 {
			t.Errorf("unexpected result: %+v", out)
		}
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := Parse[EntitySummary]("")
		if !errors.Is(err, ErrUnparsableResponse) {
			t.Errorf("expected ErrUnparsableResponse, got %v", err)
		}
	})

	t.Run("null temporal fields decode to nil", func(t *testing.T) {
		out, err := Parse[ExtractedFacts](`{"facts": [{"relation_type": "WORKS_AT", "source_entity_name": "a", "target_entity_name": "b", "fact": "a works at b", "valid_at": "2024-01-01T00:00:00Z", "invalid_at": null}]}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		f := out.Facts[0]
		if f.ValidAt == nil || f.InvalidAt != nil {
			t.Errorf("unexpected temporal fields: %+v", f)
		}
	})
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	str := func(s string) *string { return &s }

	t.Run("nil and null mean absent", func(t *testing.T) {
		for _, v := range []*string{nil, str(""), str("null"), str("NULL")} {
			ts, err := ParseTimestamp(v)
			if err != nil || ts != nil {
				t.Errorf("ParseTimestamp(%v) = %v, %v; expected nil, nil", v, ts, err)
			}
		}
	})

	t.Run("RFC3339", func(t *testing.T) {
		ts, err := ParseTimestamp(str("2011-01-21T00:00:00Z"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := time.Date(2011, 1, 21, 0, 0, 0, 0, time.UTC)
		if !ts.Equal(want) {
			t.Errorf("got %v, expected %v", ts, want)
		}
	})

	t.Run("naive datetime assumed UTC", func(t *testing.T) {
		ts, err := ParseTimestamp(str("2024-06-15T09:30:00"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ts.Hour() != 9 || ts.Location() != time.UTC {
			t.Errorf("unexpected parse: %v", ts)
		}
	})

	t.Run("bare date", func(t *testing.T) {
		ts, err := ParseTimestamp(str("1999-12-31"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ts.Year() != 1999 || ts.Month() != 12 || ts.Day() != 31 {
			t.Errorf("unexpected parse: %v", ts)
		}
	})

	t.Run("garbage rejected", func(t *testing.T) {
		if _, err := ParseTimestamp(str("sometime last spring")); err == nil {
			t.Error("expected error for unparsable timestamp")
		}
	})
}
