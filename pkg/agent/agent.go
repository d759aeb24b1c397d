// Package agent runs a tool-calling chat loop on top of a session store.
//
// A Runner holds the model client, the registered tools, and the thread
// store. Each Respond call replays the thread history, lets the model call
// tools until it produces an answer, and records the exchange so the next
// turn sees it.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/tools"

	"github.com/soundprediction/engram/pkg/session"
)

// ErrEmptyResponse is returned when the model produces neither content nor
// tool calls.
var ErrEmptyResponse = errors.New("model returned an empty response")

// DefaultMaxToolRounds bounds how many times the model may call tools
// within a single Respond call.
const DefaultMaxToolRounds = 4

// ChatClient is the slice of the OpenAI API the runner needs. The real
// *openai.Client satisfies it.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// MemoryContextFunc supplies facts relevant to the incoming message. The
// result is appended to the system prompt, so the model answers from the
// graph instead of inventing details.
type MemoryContextFunc func(ctx context.Context, userMsg string) (string, error)

// TurnHook observes each completed exchange. Callers that persist turns
// somewhere slow should do so on their own goroutine.
type TurnHook func(userMsg, reply string)

// Config carries the model parameters for a Runner.
type Config struct {
	// Model names the chat model. Empty selects gpt-4o-mini.
	Model string

	// SystemPrompt is the persona prepended to every conversation.
	SystemPrompt string

	// Temperature is passed through when non-zero.
	Temperature float32

	// MaxToolRounds bounds tool-call iterations per turn. Zero selects
	// DefaultMaxToolRounds.
	MaxToolRounds int
}

// Runner drives a conversation thread against a chat model with tools.
type Runner struct {
	client ChatClient
	store  session.Store
	config Config

	tools  []tools.Tool
	byName map[string]tools.Tool

	memoryContext MemoryContextFunc
	onTurn        TurnHook
	logger        *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithTools registers the tools the model may call.
func WithTools(ts ...tools.Tool) Option {
	return func(r *Runner) {
		for _, t := range ts {
			r.tools = append(r.tools, t)
			r.byName[t.Name()] = t
		}
	}
}

// WithMemoryContext sets the callback that fetches graph facts for the
// system prompt.
func WithMemoryContext(fn MemoryContextFunc) Option {
	return func(r *Runner) {
		r.memoryContext = fn
	}
}

// WithTurnHook sets the hook fired after each completed exchange.
func WithTurnHook(hook TurnHook) Option {
	return func(r *Runner) {
		r.onTurn = hook
	}
}

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner builds a Runner over the given chat client and thread store.
func NewRunner(client ChatClient, store session.Store, cfg Config, opts ...Option) (*Runner, error) {
	if client == nil {
		return nil, fmt.Errorf("chat client is required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}

	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = DefaultMaxToolRounds
	}

	r := &Runner{
		client: client,
		store:  store,
		config: cfg,
		byName: make(map[string]tools.Tool),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Respond runs one conversation turn on the thread and returns the model's
// reply. The user message and the reply are persisted to the session store
// before the turn hook fires.
func (r *Runner) Respond(ctx context.Context, threadID, userMsg string) (string, error) {
	messages, err := r.buildMessages(ctx, threadID, userMsg)
	if err != nil {
		return "", err
	}

	reply, err := r.complete(ctx, messages)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	if err := r.store.Append(ctx, threadID, session.Message{Role: openai.ChatMessageRoleUser, Content: userMsg, At: now}); err != nil {
		return "", fmt.Errorf("failed to record user turn: %w", err)
	}
	if err := r.store.Append(ctx, threadID, session.Message{Role: openai.ChatMessageRoleAssistant, Content: reply, At: now}); err != nil {
		return "", fmt.Errorf("failed to record assistant turn: %w", err)
	}

	if r.onTurn != nil {
		r.onTurn(userMsg, reply)
	}
	return reply, nil
}

// buildMessages assembles system prompt, stored history, and the new user
// message in that order.
func (r *Runner) buildMessages(ctx context.Context, threadID, userMsg string) ([]openai.ChatCompletionMessage, error) {
	history, err := r.store.History(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread history: %w", err)
	}

	system := r.config.SystemPrompt
	if system == "" {
		system = "You are a helpful assistant."
	}
	if r.memoryContext != nil {
		facts, err := r.memoryContext(ctx, userMsg)
		if err != nil {
			return nil, fmt.Errorf("failed to build memory context: %w", err)
		}
		if facts != "" {
			system = system + "\n\n" + facts
		}
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})
	for _, msg := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userMsg,
	})
	return messages, nil
}

// complete calls the model, executing tool rounds until it answers in
// plain content.
func (r *Runner) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	defs := r.toolDefinitions()

	for round := 0; ; round++ {
		req := openai.ChatCompletionRequest{
			Model:    r.config.Model,
			Messages: messages,
			Tools:    defs,
		}
		if r.config.Temperature != 0 {
			req.Temperature = r.config.Temperature
		}

		resp, err := r.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", fmt.Errorf("chat completion failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", ErrEmptyResponse
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			reply := strings.TrimSpace(msg.Content)
			if reply == "" {
				return "", ErrEmptyResponse
			}
			return reply, nil
		}

		if round >= r.config.MaxToolRounds {
			return "", fmt.Errorf("model kept calling tools after %d rounds", r.config.MaxToolRounds)
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    r.runTool(ctx, call),
				ToolCallID: call.ID,
			})
		}
	}
}

// runTool executes one tool call. Failures come back as error text for the
// model to react to instead of aborting the conversation.
func (r *Runner) runTool(ctx context.Context, call openai.ToolCall) string {
	tool, ok := r.byName[call.Function.Name]
	if !ok {
		r.logger.Warn("model requested unknown tool", "tool", call.Function.Name)
		return fmt.Sprintf("error: unknown tool %q", call.Function.Name)
	}

	input := parseToolInput(call.Function.Arguments)
	r.logger.Debug("executing tool", "tool", call.Function.Name, "input", input)

	result, err := tool.Call(ctx, input)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return result
}

// toolDefinitions describes every registered tool to the model. Each tool
// takes a single string argument named input.
func (r *Runner) toolDefinitions() []openai.Tool {
	if len(r.tools) == 0 {
		return nil
	}

	defs := make([]openai.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"input": map[string]any{
							"type":        "string",
							"description": "Input passed verbatim to the tool.",
						},
					},
					"required": []string{"input"},
				},
			},
		})
	}
	return defs
}
