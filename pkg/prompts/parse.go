package prompts

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	jsonrepair "github.com/kaptinlin/jsonrepair"
)

// ErrUnparsableResponse is returned when a model response cannot be
// decoded into the expected shape even after repair attempts.
var ErrUnparsableResponse = errors.New("unparsable model response")

var (
	thinkTagPattern  = regexp.MustCompile(`(?s)<think>.*?</think>`)
	fencedJSONBlock  = regexp.MustCompile("(?s)```(?:json|yaml)?\\s*(.*?)```")
	timestampLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
)

// Parse decodes a model response into T. Models frequently wrap JSON in
// code fences, prepend reasoning tags, or emit slightly malformed output
// (trailing commas, unquoted keys), so decoding proceeds in stages:
// strict unmarshal first, then jsonrepair, then the same two steps on the
// contents of a fenced code block if one is present.
func Parse[T any](content string) (*T, error) {
	cleaned := strings.TrimSpace(thinkTagPattern.ReplaceAllString(content, ""))
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty content", ErrUnparsableResponse)
	}

	// A fenced block, when present, is the intended payload; try it
	// before the raw text.
	var candidates []string
	if m := fencedJSONBlock.FindStringSubmatch(cleaned); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	candidates = append(candidates, cleaned)

	var lastErr error
	for _, candidate := range candidates {
		var out T
		if err := json.Unmarshal([]byte(candidate), &out); err == nil {
			return &out, nil
		} else {
			lastErr = err
		}

		repaired, err := jsonrepair.JSONRepair(candidate)
		if err != nil {
			lastErr = err
			continue
		}
		var out2 T
		if err := json.Unmarshal([]byte(repaired), &out2); err == nil {
			return &out2, nil
		} else {
			lastErr = err
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrUnparsableResponse, lastErr)
}

// ParseTimestamp converts a model-supplied timestamp string into UTC
// time. Nil, empty, and the literal "null" all mean no timestamp and
// return nil without error. Accepted layouts are RFC 3339, a naive
// datetime (assumed UTC), and a bare date.
func ParseTimestamp(value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*value)
	if s == "" || strings.EqualFold(s, "null") {
		return nil, nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			utc := t.UTC()
			return &utc, nil
		}
	}
	return nil, fmt.Errorf("unrecognized timestamp %q", s)
}
