package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/soundprediction/engram"
	"github.com/soundprediction/engram/pkg/config"
	"github.com/soundprediction/engram/pkg/driver"
	"github.com/soundprediction/engram/pkg/embedder"
	"github.com/soundprediction/engram/pkg/llm"
)

// buildClient wires the bolt driver, the chat model behind retry and
// circuit-breaker wrappers, and the embedder into a graph client.
func buildClient(ctx context.Context, cfg *config.Config) (*engram.Client, error) {
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY must be set")
	}

	graph, err := driver.NewNeo4j(
		cfg.Database.URI,
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Database,
		driver.WithDimensions(cfg.Embedding.Dimensions),
	)
	if err != nil {
		return nil, err
	}
	if err := graph.VerifyConnectivity(ctx); err != nil {
		graph.Close(ctx)
		return nil, fmt.Errorf("cannot reach neo4j at %s: %w", cfg.Database.URI, err)
	}

	llmConfig := llm.Config{
		Model:   cfg.LLM.Model,
		BaseURL: cfg.LLM.BaseURL,
	}
	if cfg.LLM.Temperature > 0 {
		t := cfg.LLM.Temperature
		llmConfig.Temperature = &t
	}
	if cfg.LLM.MaxTokens > 0 {
		m := cfg.LLM.MaxTokens
		llmConfig.MaxTokens = &m
	}

	base, err := llm.NewOpenAIClient(cfg.LLM.APIKey, llmConfig)
	if err != nil {
		graph.Close(ctx)
		return nil, err
	}
	var chat llm.Client = llm.NewRetryClient(base, llm.DefaultRetryConfig())
	chat = llm.NewBreakerClient(chat, llm.DefaultBreakerConfig(), "openai", slog.Default())

	embed := embedder.NewOpenAIEmbedder(cfg.Embedding.APIKey, embedder.Config{
		Model:      cfg.Embedding.Model,
		BaseURL:    cfg.Embedding.BaseURL,
		Dimensions: cfg.Embedding.Dimensions,
		BatchSize:  cfg.Embedding.BatchSize,
	})

	client, err := engram.New(graph, chat, embed, &engram.Config{GroupID: cfg.GroupID}, slog.Default())
	if err != nil {
		graph.Close(ctx)
		return nil, err
	}
	return client, nil
}
