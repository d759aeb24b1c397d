package prompts

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Format selects how structured context data is serialized into prompts
// and how the model is asked to shape its reply.
type Format string

const (
	// FormatJSON serializes context as JSON and requests a JSON object
	// response. This is the default and pairs with JSON response mode.
	FormatJSON Format = "json"
	// FormatYAML serializes context as YAML, which can reduce token
	// usage for deeply nested payloads.
	FormatYAML Format = "yaml"
)

// Description returns the human-readable format name used inside prompt
// text ("JSON format", "YAML format").
func (f Format) Description() string {
	switch f {
	case FormatYAML:
		return "YAML format"
	default:
		return "JSON format"
	}
}

// Marshal serializes data in this format for embedding into a prompt
// section. Unknown formats fall back to JSON.
func (f Format) Marshal(data interface{}) (string, error) {
	switch f {
	case FormatYAML:
		return toPromptYAML(data)
	default:
		return toPromptJSON(data)
	}
}

// toPromptJSON renders data as indented JSON without escaping HTML or
// non-ASCII characters, so names like "São Paulo" survive the round trip.
func toPromptJSON(data interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return "", fmt.Errorf("failed to marshal prompt data: %w", err)
	}
	return buf.String(), nil
}

// toPromptYAML renders data as two-space indented YAML.
func toPromptYAML(data interface{}) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return "", fmt.Errorf("failed to marshal prompt data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize prompt data: %w", err)
	}
	return buf.String(), nil
}
