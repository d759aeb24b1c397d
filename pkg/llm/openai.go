package llm

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Client against the OpenAI API or any
// OpenAI-compatible endpoint selected through Config.BaseURL.
type OpenAIClient struct {
	client *openai.Client
	config Config
}

// NewOpenAIClient builds an OpenAI-backed client. With a BaseURL set the
// client targets a compatible service: the URL is validated, "/v1" is
// appended when the path carries no API segment, and a placeholder key is
// substituted for services that skip authentication.
func NewOpenAIClient(apiKey string, config Config) (*OpenAIClient, error) {
	var client *openai.Client

	if config.BaseURL != "" {
		if err := validateBaseURL(config.BaseURL); err != nil {
			return nil, fmt.Errorf("invalid base URL: %w", err)
		}
		if apiKey == "" {
			apiKey = "unused"
		}

		clientConfig := openai.DefaultConfig(apiKey)
		clientConfig.BaseURL = config.BaseURL
		if !hasAPIPath(config.BaseURL) {
			clientConfig.BaseURL = strings.TrimRight(config.BaseURL, "/") + "/v1"
		}
		client = openai.NewClientWithConfig(clientConfig)
	} else {
		if apiKey == "" {
			return nil, fmt.Errorf("openai api key is required")
		}
		client = openai.NewClient(apiKey)
	}

	if config.Model == "" {
		if config.BaseURL != "" {
			config.Model = "gpt-3.5-turbo"
		} else {
			config.Model = openai.GPT4oMini
		}
	}

	return &OpenAIClient{client: client, config: config}, nil
}

// Chat sends a chat completion request.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (*Response, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(messages, false, ""))
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", classifyOpenAIError(err))
	}
	return c.toResponse(resp)
}

// ChatStructured sends a chat completion request in JSON mode.
func (c *OpenAIClient) ChatStructured(ctx context.Context, messages []Message, schemaHint string) (*Response, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(messages, true, schemaHint))
	if err != nil {
		return nil, fmt.Errorf("structured chat completion failed: %w", classifyOpenAIError(err))
	}
	return c.toResponse(resp)
}

// Close is a no-op; the underlying HTTP client owns no resources that
// need teardown.
func (c *OpenAIClient) Close() error { return nil }

// Model returns the configured model name.
func (c *OpenAIClient) Model() string { return c.config.Model }

func (c *OpenAIClient) toResponse(resp openai.ChatCompletionResponse) (*Response, error) {
	if len(resp.Choices) == 0 {
		return nil, NewEmptyResponseError("no choices returned")
	}
	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, NewRefusalError(choice.Message.Refusal)
	}

	out := &Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Model:        resp.Model,
	}
	if resp.Usage.TotalTokens > 0 {
		out.TokensUsed = &TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return out, nil
}

func (c *OpenAIClient) buildRequest(messages []Message, jsonMode bool, schemaHint string) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	for _, m := range messages {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:    c.config.Model,
		Messages: msgs,
	}
	if c.config.Temperature != nil {
		req.Temperature = *c.config.Temperature
	}
	if c.config.MaxTokens != nil {
		req.MaxTokens = *c.config.MaxTokens
	}
	if c.config.TopP != nil {
		req.TopP = *c.config.TopP
	}
	if len(c.config.Stop) > 0 {
		req.Stop = c.config.Stop
	}

	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
		suffix := "Respond with valid JSON only."
		if schemaHint != "" {
			suffix = fmt.Sprintf("Respond with valid JSON only, matching this shape:\n%s", schemaHint)
		}
		// Compatible services often ignore the response_format field, so
		// the instruction also rides on the last user message.
		if n := len(req.Messages); n > 0 && req.Messages[n-1].Role == string(RoleUser) {
			req.Messages[n-1].Content += "\n\n" + suffix
		} else {
			req.Messages = append(req.Messages, openai.ChatCompletionMessage{
				Role:    string(RoleUser),
				Content: suffix,
			})
		}
	}

	return req
}

// classifyOpenAIError maps provider errors onto the package's typed
// errors so retry and breaker wrappers can make decisions.
func classifyOpenAIError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests") {
		return NewRateLimitError(err.Error())
	}
	return err
}

func validateBaseURL(baseURL string) error {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("parse %q: %w", baseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("base URL must use http or https, got %q", baseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("base URL missing host: %q", baseURL)
	}
	return nil
}

// hasAPIPath reports whether the URL already names an API version
// segment, in which case no "/v1" is appended.
func hasAPIPath(baseURL string) bool {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	for _, segment := range strings.Split(strings.Trim(parsed.Path, "/"), "/") {
		if isVersionSegment(segment) {
			return true
		}
	}
	return false
}

func isVersionSegment(segment string) bool {
	if len(segment) < 2 || segment[0] != 'v' {
		return false
	}
	for _, r := range segment[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
