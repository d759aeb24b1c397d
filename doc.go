// Package engram builds temporal knowledge graphs from episodes of text,
// JSON, and conversation, and answers questions about them with hybrid
// search.
//
// Episodes are ingested incrementally: each one is persisted, its
// entities and facts are extracted by a language model, resolved against
// the existing graph, and written back with embeddings. Facts carry a
// temporal validity window; when new information contradicts an old
// fact, the old edge is closed with an invalidation timestamp rather
// than deleted, so the graph keeps its history.
//
// # Basic Usage
//
// Build a client over a graph driver, a language model, and an embedder:
//
//	graph, err := driver.NewNeo4j("bolt://localhost:7687", "neo4j", "password", "neo4j")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	model, err := llm.NewOpenAIClient(apiKey, llm.Config{Model: "gpt-4o-mini"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	embeddings := embedder.NewOpenAIEmbedder(apiKey, embedder.Config{Model: "text-embedding-3-small"})
//
//	client, err := engram.New(graph, model, embeddings, &engram.Config{GroupID: "my-group"}, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close(ctx)
//
// # Adding Episodes
//
//	result, err := client.AddEpisode(ctx, types.Episode{
//		Name:    "team standup",
//		Content: "Alice handed the payments service off to Bob last week.",
//		Source:  types.SourceText,
//	}, nil)
//
// # Searching
//
// Search returns facts (edges) by default; SearchNodes runs the named
// node recipes:
//
//	results, err := client.Search(ctx, "Who owns the payments service?", nil)
//	for _, edge := range results.Edges {
//		fmt.Println(edge.Fact)
//	}
package engram
