package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/tmc/langchaingo/tools"
)

// FuncTool adapts a closure to the langchaingo tool interface so callers
// can register graph lookups without defining a type per tool.
type FuncTool struct {
	name        string
	description string
	call        func(ctx context.Context, input string) (string, error)
}

var _ tools.Tool = (*FuncTool)(nil)

// NewFuncTool builds a tool from a name, a description shown to the model,
// and the function to run when the model calls it.
func NewFuncTool(name, description string, call func(ctx context.Context, input string) (string, error)) *FuncTool {
	return &FuncTool{name: name, description: description, call: call}
}

func (t *FuncTool) Name() string {
	return t.name
}

func (t *FuncTool) Description() string {
	return t.description
}

func (t *FuncTool) Call(ctx context.Context, input string) (string, error) {
	return t.call(ctx, input)
}

// parseToolInput extracts the single "input" argument from the model's
// JSON arguments. Models occasionally emit a bare string instead of the
// declared object, so the raw payload is the fallback.
func parseToolInput(arguments string) string {
	var params struct {
		Input string `json:"input"`
	}
	if err := json.Unmarshal([]byte(arguments), &params); err == nil && params.Input != "" {
		return params.Input
	}

	trimmed := strings.TrimSpace(arguments)
	var bare string
	if err := json.Unmarshal([]byte(trimmed), &bare); err == nil {
		return bare
	}
	return trimmed
}
