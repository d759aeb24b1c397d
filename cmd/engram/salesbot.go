package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/soundprediction/engram"
	"github.com/soundprediction/engram/pkg/agent"
	"github.com/soundprediction/engram/pkg/config"
	"github.com/soundprediction/engram/pkg/search"
	"github.com/soundprediction/engram/pkg/session"
	"github.com/soundprediction/engram/pkg/types"
	"github.com/soundprediction/engram/pkg/utils"
)

var (
	salesbotDataPath string
	salesbotReset    bool
)

var salesbotCmd = &cobra.Command{
	Use:   "salesbot",
	Short: "Interactive sales agent grounded in the product graph",
	Long: `Salesbot runs a conversational shoe salesperson whose memory is the
knowledge graph. The first run ingests the ManyBirds product catalog and
seeds a user profile (--reset); later runs pick the graph up where it was
left. Each exchange is written back as an episode, so the agent learns
the user's sizes and preferences across conversations.`,
	RunE: runSalesbot,
}

func init() {
	rootCmd.AddCommand(salesbotCmd)
	salesbotCmd.Flags().StringVar(&salesbotDataPath, "data", "data/manybirds_products.json", "product catalog JSON file")
	salesbotCmd.Flags().BoolVar(&salesbotReset, "reset", false, "wipe the graph and re-ingest the catalog")
}

const (
	salesUser  = "jess"
	salesBrand = "ManyBirds"

	salesSystemPrompt = `You are a skillful shoe salesperson for ManyBirds. Review the user info and conversation history below to respond.
Keep responses concise. Your goal is to be helpful and make a sale.

Key info to gather:
- Shoe size
- Specific needs (e.g., wide feet)
- Preferred colors and styles
- Budget

Ask for this info if you don't have it.`
)

func runSalesbot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, err := buildClient(ctx, rootConfig)
	if err != nil {
		return err
	}
	defer client.Close(context.Background())

	var userUUID, brandUUID string
	if salesbotReset {
		userUUID, brandUUID, err = setupSalesGraph(ctx, client, salesbotDataPath)
	} else {
		userUUID, brandUUID, err = lookupSalesNodes(ctx, client)
	}
	if err != nil {
		return err
	}

	return runSalesLoop(ctx, client, userUUID, brandUUID)
}

// setupSalesGraph wipes the group, ingests the catalog, and seeds the user
// profile. Destructive; gated behind --reset.
func setupSalesGraph(ctx context.Context, client *engram.Client, dataPath string) (string, string, error) {
	slog.Info("setting up the sales graph, this may take a moment")
	slog.Warn("this will clear all existing data in the graph")

	if err := client.ClearGraph(ctx); err != nil {
		return "", "", err
	}
	if err := client.BuildIndices(ctx); err != nil {
		return "", "", err
	}
	slog.Info("graph cleared and indices built")

	products, err := loadProducts(dataPath)
	if err != nil {
		return "", "", err
	}

	episodes := make([]types.Episode, 0, len(products))
	for i, product := range products {
		// Image URLs add nothing to extraction; drop them before the
		// product becomes an episode.
		delete(product, "images")

		body, err := json.Marshal(product)
		if err != nil {
			return "", "", fmt.Errorf("failed to encode product %d: %w", i, err)
		}
		name, _ := product["title"].(string)
		if name == "" {
			name = fmt.Sprintf("Product %d", i)
		}
		episodes = append(episodes, types.Episode{
			Name:              name,
			Content:           string(body),
			Source:            types.SourceJSON,
			SourceDescription: "ManyBirds products",
			Reference:         time.Now().UTC(),
		})
	}
	if _, err := client.AddEpisodeBulk(ctx, episodes, nil); err != nil {
		return "", "", err
	}
	slog.Info("catalog ingested", "products", len(episodes))

	// Seed the user profile so a user entity exists to center searches on.
	_, err = client.AddEpisode(ctx, types.Episode{
		Name:              "User Creation",
		Content:           salesUser + " is interested in buying a pair of shoes",
		Source:            types.SourceText,
		SourceDescription: "SalesBot",
		Reference:         time.Now().UTC(),
	}, nil)
	if err != nil {
		return "", "", err
	}
	slog.Info("user profile seeded", "user", salesUser)

	return lookupSalesNodes(ctx, client)
}

// lookupSalesNodes finds the user and brand entities by how often episodes
// mention them.
func lookupSalesNodes(ctx context.Context, client *engram.Client) (string, string, error) {
	userNodes, err := client.SearchNodes(ctx, salesUser, search.RecipeNodeEpisodeMentions, nil)
	if err != nil {
		return "", "", err
	}
	brandNodes, err := client.SearchNodes(ctx, salesBrand, search.RecipeNodeEpisodeMentions, nil)
	if err != nil {
		return "", "", err
	}
	if len(userNodes) == 0 || len(brandNodes) == 0 {
		return "", "", fmt.Errorf("user or brand node not found in the graph; run with --reset to ingest the catalog")
	}
	return userNodes[0].UUID, brandNodes[0].UUID, nil
}

func loadProducts(path string) ([]map[string]interface{}, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read product data: %w", err)
	}
	var catalog struct {
		Products []map[string]interface{} `json:"products"`
	}
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse product data: %w", err)
	}
	if len(catalog.Products) == 0 {
		return nil, fmt.Errorf("no products found in %s", path)
	}
	return catalog.Products, nil
}

func runSalesLoop(ctx context.Context, client *engram.Client, userUUID, brandUUID string) error {
	cfg := rootConfig

	store, err := session.NewBadgerStore(cfg.Session.Dir, session.WithWindow(cfg.Session.Window))
	if err != nil {
		return err
	}
	defer store.Close()

	// Exchanges persist to the graph in the background; drained before the
	// driver closes.
	var pending sync.WaitGroup

	runner, err := agent.NewRunner(newChatClient(cfg), store,
		agent.Config{
			Model:        cfg.LLM.Model,
			SystemPrompt: salesSystemPrompt,
		},
		agent.WithTools(newShoeDataTool(client, brandUUID)),
		agent.WithMemoryContext(func(ctx context.Context, userMsg string) (string, error) {
			results, err := client.Search(ctx, salesUser+": "+userMsg, &types.SearchOptions{
				CenterNodeUUID: userUUID,
				Limit:          5,
			})
			if err != nil {
				return "", err
			}
			facts := edgesToFactsString(results.Edges)
			if facts == "" {
				facts = "No facts about the user and their conversation"
			}
			return "Facts about the user and their conversation:\n" + facts, nil
		}),
		agent.WithTurnHook(func(userMsg, reply string) {
			episode := types.Episode{
				Name:              "Chatbot Response",
				Content:           fmt.Sprintf("%s: %s\nSalesBot: %s", salesUser, userMsg, reply),
				Source:            types.SourceMessage,
				SourceDescription: "Chatbot",
				Reference:         time.Now().UTC(),
			}
			pending.Add(1)
			go func() {
				defer pending.Done()
				if _, err := client.AddEpisode(context.Background(), episode, nil); err != nil {
					slog.Error("failed to persist exchange", "error", err)
				}
			}()
		}),
	)
	if err != nil {
		return err
	}

	threadID := utils.NewUUID()

	fmt.Println("\n--- ShoeBot is ready! ---")
	fmt.Println("Type 'exit' to end the conversation.")
	fmt.Println("Hello, how can I help you find shoes today?")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if lower := strings.ToLower(input); lower == "exit" || lower == "quit" {
			break
		}

		reply, err := runner.Respond(ctx, threadID, input)
		if err != nil {
			fmt.Printf("An error occurred: %v\n", err)
			continue
		}
		fmt.Printf("Assistant: %s\n", reply)
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	pending.Wait()
	fmt.Println("\n--- Conversation ended ---")
	return nil
}

// newShoeDataTool searches product facts near the brand node.
func newShoeDataTool(client *engram.Client, brandUUID string) *agent.FuncTool {
	return agent.NewFuncTool(
		"get_shoe_data",
		"Search the graph for information about shoes and related products.",
		func(ctx context.Context, input string) (string, error) {
			results, err := client.Search(ctx, input, &types.SearchOptions{
				CenterNodeUUID: brandUUID,
				Limit:          10,
			})
			if err != nil {
				return "", err
			}
			facts := edgesToFactsString(results.Edges)
			if facts == "" {
				return "no shoe facts found", nil
			}
			return facts, nil
		})
}

func edgesToFactsString(edges []*types.Edge) string {
	if len(edges) == 0 {
		return ""
	}
	facts := make([]string, 0, len(edges))
	for _, edge := range edges {
		facts = append(facts, "- "+edge.Fact)
	}
	return strings.Join(facts, "\n")
}

func newChatClient(cfg *config.Config) *openai.Client {
	if cfg.LLM.BaseURL != "" {
		clientConfig := openai.DefaultConfig(cfg.LLM.APIKey)
		clientConfig.BaseURL = cfg.LLM.BaseURL
		return openai.NewClientWithConfig(clientConfig)
	}
	return openai.NewClient(cfg.LLM.APIKey)
}
