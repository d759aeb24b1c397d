// Package llm abstracts the language model calls engram makes during
// ingestion and search. The only shipped backend talks to OpenAI or an
// OpenAI-compatible service; retry and circuit-breaker wrappers compose
// around any Client.
package llm

import "context"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat completion request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TokenUsage reports token counts when the backend provides them.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a completed chat turn.
type Response struct {
	Content      string      `json:"content"`
	FinishReason string      `json:"finish_reason,omitempty"`
	Model        string      `json:"model,omitempty"`
	TokensUsed   *TokenUsage `json:"tokens_used,omitempty"`
}

// Client is the language model interface the rest of engram depends on.
type Client interface {
	// Chat sends a plain chat completion request.
	Chat(ctx context.Context, messages []Message) (*Response, error)

	// ChatStructured requests a JSON response. A non-empty schemaHint is
	// appended to the request to describe the expected shape; backends
	// that support a native JSON response format enable it as well.
	ChatStructured(ctx context.Context, messages []Message, schemaHint string) (*Response, error)

	// Close releases any resources held by the client.
	Close() error
}

// Config holds per-client generation settings.
type Config struct {
	Model       string   `json:"model"`
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	TopP        *float32 `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`

	// BaseURL points the client at an OpenAI-compatible service.
	BaseURL string `json:"base_url,omitempty"`
}

// NewSystemMessage builds a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage builds a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage builds an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
