package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/soundprediction/engram/pkg/search"
	"github.com/soundprediction/engram/pkg/types"
)

var quickstartCmd = &cobra.Command{
	Use:   "quickstart",
	Short: "Guided tour: ingest a few episodes and search them",
	Long: `Quickstart walks through the core workflow end to end: it builds the
graph indices, ingests four short podcast episodes (two text, two JSON),
runs a hybrid fact search, reranks it around a center node, and finishes
with an entity search.

It needs a running Neo4j instance (NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD)
and an OpenAI API key (OPENAI_API_KEY).`,
	RunE: runQuickstart,
}

func init() {
	rootCmd.AddCommand(quickstartCmd)
}

const attorneyQuestion = "Who was the California Attorney General?"

func runQuickstart(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, err := buildClient(ctx, rootConfig)
	if err != nil {
		return err
	}
	defer func() {
		client.Close(context.Background())
		fmt.Println("\nConnection closed")
	}()

	if err := client.BuildIndices(ctx); err != nil {
		return err
	}

	episodes := []struct {
		content     string
		source      types.EpisodeSource
		description string
	}{
		{
			content: "Kamala Harris is the Attorney General of California. She was previously " +
				"the district attorney for San Francisco.",
			source:      types.SourceText,
			description: "podcast transcript",
		},
		{
			content:     "As AG, Harris was in office from January 3, 2011 - January 3, 2017",
			source:      types.SourceText,
			description: "podcast transcript",
		},
		{
			content:     `{"name": "Gavin Newsom", "position": "Governor", "state": "California", "previous_role": "Lieutenant Governor", "previous_location": "San Francisco"}`,
			source:      types.SourceJSON,
			description: "podcast metadata",
		},
		{
			content:     `{"name": "Gavin Newsom", "position": "Governor", "term_start": "January 7, 2019", "term_end": "Present"}`,
			source:      types.SourceJSON,
			description: "podcast metadata",
		},
	}

	for i, ep := range episodes {
		name := fmt.Sprintf("Freakonomics Radio %d", i)
		_, err := client.AddEpisode(ctx, types.Episode{
			Name:              name,
			Content:           ep.content,
			Source:            ep.source,
			SourceDescription: ep.description,
			Reference:         time.Now().UTC(),
		}, nil)
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", name, err)
		}
		fmt.Printf("Added episode: %s (%s)\n", name, ep.source)
	}

	// Hybrid edge search: semantic similarity fused with BM25.
	fmt.Printf("\nSearching for: '%s'\n", attorneyQuestion)
	results, err := client.Search(ctx, attorneyQuestion, nil)
	if err != nil {
		return err
	}

	fmt.Println("\nSearch Results:")
	printFacts(results.Edges)

	// Rerank around the top hit's source entity to surface facts close to
	// it in the graph.
	if len(results.Edges) > 0 {
		centerUUID := results.Edges[0].SourceNodeUUID

		fmt.Println("\nReranking search results based on graph distance:")
		fmt.Printf("Using center node UUID: %s\n", centerUUID)

		reranked, err := client.Search(ctx, attorneyQuestion, &types.SearchOptions{
			CenterNodeUUID: centerUUID,
		})
		if err != nil {
			return err
		}

		fmt.Println("\nReranked Search Results:")
		printFacts(reranked.Edges)
	} else {
		fmt.Println("No results found in the initial search to use as center node.")
	}

	// Entity search with a predefined recipe instead of the raw config.
	fmt.Printf("\nPerforming node search using recipe %s:\n", search.RecipeNodeHybridRRF)
	nodes, err := client.SearchNodes(ctx, "California Governor", search.RecipeNodeHybridRRF, &types.SearchOptions{
		Limit: 5,
	})
	if err != nil {
		return err
	}

	fmt.Println("\nNode Search Results:")
	printNodes(nodes)
	return nil
}

func printFacts(edges []*types.Edge) {
	for _, edge := range edges {
		fmt.Printf("UUID: %s\n", edge.UUID)
		fmt.Printf("Fact: %s\n", edge.Fact)
		if edge.ValidAt != nil {
			fmt.Printf("Valid from: %s\n", edge.ValidAt)
		}
		if edge.InvalidAt != nil {
			fmt.Printf("Valid until: %s\n", edge.InvalidAt)
		}
		fmt.Println("---")
	}
}

func printNodes(nodes []*types.Node) {
	for _, node := range nodes {
		fmt.Printf("Node UUID: %s\n", node.UUID)
		fmt.Printf("Node Name: %s\n", node.Name)
		summary := node.Summary
		if len(summary) > 100 {
			summary = summary[:100] + "..."
		}
		fmt.Printf("Content Summary: %s\n", summary)
		fmt.Printf("Node Labels: %s\n", node.Kind.Label())
		fmt.Printf("Created At: %s\n", node.CreatedAt)
		if len(node.Attributes) > 0 {
			fmt.Println("Attributes:")
			for key, value := range node.Attributes {
				fmt.Printf("  %s: %v\n", key, value)
			}
		}
		fmt.Println("---")
	}
}
