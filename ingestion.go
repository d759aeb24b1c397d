package engram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/soundprediction/engram/pkg/llm"
	"github.com/soundprediction/engram/pkg/prompts"
	"github.com/soundprediction/engram/pkg/types"
	"github.com/soundprediction/engram/pkg/utils"
)

// AddOptions tunes a single ingestion call. The zero value is valid.
type AddOptions struct {
	// EntityTypes offers additional classification options to entity
	// extraction. Empty means the default single "Entity" type.
	EntityTypes []prompts.EntityType

	// PreviousEpisodeUUIDs overrides the recency window used to build
	// extraction context. Empty means the most recent episodes in the
	// group.
	PreviousEpisodeUUIDs []string

	// SkipSummaries disables entity summarization, trading recall in
	// later dedup rounds for one fewer model call per entity.
	SkipSummaries bool

	// Format selects the prompt interchange format. The zero value is
	// JSON.
	Format prompts.Format
}

// AddEpisode ingests one episode: the content is persisted as an episodic
// node, entities and facts are extracted by the language model, resolved
// against the existing graph, and written back with embeddings and
// MENTIONS edges. Facts contradicted by the new content are closed with
// an invalidation timestamp, never deleted.
func (c *Client) AddEpisode(ctx context.Context, episode types.Episode, options *AddOptions) (*types.AddResult, error) {
	if options == nil {
		options = &AddOptions{}
	}
	if err := episode.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEpisode, err)
	}
	if episode.GroupID == "" {
		episode.GroupID = c.config.groupID()
	}
	if err := utils.ValidateGroupID(episode.GroupID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEpisode, err)
	}

	source, err := types.ParseEpisodeSource(string(episode.Source))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEpisode, err)
	}
	episode.Source = source

	reference := episode.Reference
	if reference.IsZero() {
		reference = time.Now().In(c.config.TimeZone)
	}
	reference = reference.UTC()
	episode.Reference = reference

	start := time.Now()
	now := start.UTC()

	previous, err := c.previousEpisodes(ctx, episode, options)
	if err != nil {
		return nil, err
	}
	previousContents := episodeContents(previous)

	episodeNode := &types.Node{
		UUID:              utils.NewUUID(),
		Name:              episode.Name,
		Kind:              types.EpisodicNode,
		GroupID:           episode.GroupID,
		CreatedAt:         now,
		UpdatedAt:         now,
		Source:            source,
		Content:           episode.Content,
		SourceDescription: episode.SourceDescription,
		Reference:         reference,
	}
	if err := c.driver.UpsertNode(ctx, episodeNode); err != nil {
		return nil, fmt.Errorf("failed to persist episode: %w", err)
	}

	chunks := utils.ChunkText(episode.Content, c.config.MaxCharacters)

	candidates, err := c.extractEntities(ctx, chunks, source, previousContents, options)
	if err != nil {
		return nil, err
	}

	resolution, err := c.resolveEntities(ctx, episode, previousContents, candidates, now, options)
	if err != nil {
		return nil, err
	}

	if !options.SkipSummaries {
		if err := c.summarizeEntities(ctx, episode.Content, previousContents, resolution.nodes, options); err != nil {
			return nil, err
		}
	}

	edges, err := c.extractFacts(ctx, chunks, previousContents, resolution, episodeNode, reference, now, options)
	if err != nil {
		return nil, err
	}

	invalidated, err := c.invalidateContradictedEdges(ctx, episode, previousContents, edges, reference, now, options)
	if err != nil {
		return nil, err
	}

	if err := c.embedEntities(ctx, resolution.nodes); err != nil {
		return nil, err
	}
	if err := c.embedEdges(ctx, edges); err != nil {
		return nil, err
	}

	if err := c.persistExtraction(ctx, episodeNode, resolution.nodes, edges, invalidated); err != nil {
		return nil, err
	}

	c.logger.Info("episode ingested",
		"episode", episodeNode.UUID,
		"name", episode.Name,
		"group_id", episode.GroupID,
		"chunks", len(chunks),
		"entities", len(resolution.nodes),
		"new_entities", resolution.created,
		"edges", len(edges),
		"invalidated_edges", len(invalidated),
		"took", time.Since(start))

	if c.logger.Enabled(ctx, slog.LevelDebug) {
		if stats, err := c.driver.Stats(ctx, episode.GroupID); err == nil {
			c.logger.Debug("graph state after ingestion",
				"group_id", episode.GroupID,
				"nodes", stats.NodeCount,
				"edges", stats.EdgeCount,
				"episodes", stats.EpisodeCount)
		}
	}

	return &types.AddResult{
		Episode:          episodeNode,
		Nodes:            resolution.nodes,
		Edges:            edges,
		InvalidatedEdges: invalidated,
	}, nil
}

// AddEpisodeBulk ingests episodes sequentially in the given order, so
// later episodes see the entities and facts of earlier ones. The first
// failure aborts the run; episodes already ingested stay in the graph.
func (c *Client) AddEpisodeBulk(ctx context.Context, episodes []types.Episode, options *AddOptions) (*types.BulkResult, error) {
	bulk := &types.BulkResult{}
	for i, episode := range episodes {
		result, err := c.AddEpisode(ctx, episode, options)
		if err != nil {
			c.logger.Error("bulk ingestion aborted",
				"episode", episode.Name,
				"index", i,
				"ingested", bulk.Episodes,
				"error", err)
			return nil, fmt.Errorf("failed to add episode %q (%d of %d): %w", episode.Name, i+1, len(episodes), err)
		}
		bulk.Results = append(bulk.Results, result)
		bulk.Episodes++
		bulk.Nodes += len(result.Nodes)
		bulk.Edges += len(result.Edges)
	}
	return bulk, nil
}

// previousEpisodes returns the episodes handed to the extraction prompts
// as context, either the caller's explicit UUIDs or the most recent
// episodes before the new one's reference time.
func (c *Client) previousEpisodes(ctx context.Context, episode types.Episode, options *AddOptions) ([]*types.Node, error) {
	if len(options.PreviousEpisodeUUIDs) > 0 {
		nodes, err := c.driver.GetNodesByUUIDs(ctx, options.PreviousEpisodeUUIDs, episode.GroupID)
		if err != nil {
			return nil, fmt.Errorf("failed to load context episodes: %w", err)
		}
		return nodes, nil
	}

	nodes, err := c.driver.RetrieveEpisodes(ctx, episode.GroupID, episode.Reference, previousEpisodeWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve previous episodes: %w", err)
	}
	return nodes, nil
}

func episodeContents(episodes []*types.Node) []string {
	contents := make([]string, 0, len(episodes))
	for _, ep := range episodes {
		if ep != nil && ep.Content != "" {
			contents = append(contents, ep.Content)
		}
	}
	return contents
}

// candidateEntity is one extracted entity before resolution against the
// graph.
type candidateEntity struct {
	Name       string
	EntityType string
}

// extractEntities runs the source-appropriate extraction prompt over each
// chunk concurrently and merges the results, deduplicating within the
// episode by normalized name.
func (c *Client) extractEntities(ctx context.Context, chunks []string, source types.EpisodeSource, previousContents []string, options *AddOptions) ([]candidateEntity, error) {
	entityTypes := options.EntityTypes
	if len(entityTypes) == 0 {
		entityTypes = prompts.DefaultEntityTypes()
	}
	typeNames := make(map[int]string, len(entityTypes))
	for _, et := range entityTypes {
		typeNames[et.ID] = et.Name
	}

	perChunk := make([][]prompts.ExtractedEntity, len(chunks))
	fns := make([]func() error, len(chunks))
	for i := range chunks {
		i := i
		fns[i] = func() error {
			input := prompts.ExtractionInput{
				EpisodeContent:   chunks[i],
				PreviousEpisodes: previousContents,
				EntityTypes:      entityTypes,
				Format:           options.Format,
				Logger:           c.logger,
			}

			var messages []llm.Message
			var err error
			switch source {
			case types.SourceMessage:
				messages, err = prompts.ExtractEntitiesMessage(input)
			case types.SourceJSON:
				messages, err = prompts.ExtractEntitiesJSON(input)
			default:
				messages, err = prompts.ExtractEntitiesText(input)
			}
			if err != nil {
				return fmt.Errorf("failed to build extraction prompt: %w", err)
			}

			response, err := c.llm.ChatStructured(ctx, messages, "")
			if err != nil {
				return fmt.Errorf("entity extraction failed: %w", err)
			}
			parsed, err := prompts.Parse[prompts.ExtractedEntities](response.Content)
			if err != nil {
				return fmt.Errorf("failed to parse extracted entities: %w", err)
			}
			perChunk[i] = parsed.Entities
			return nil
		}
	}

	executor := utils.NewExecutor(c.config.MaxConcurrency)
	if err := utils.FirstError(executor.Run(ctx, fns...)); err != nil {
		return nil, err
	}

	var candidates []candidateEntity
	seen := make(map[string]bool)
	for _, entities := range perChunk {
		for _, entity := range entities {
			key := utils.NormalizeName(entity.Name)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true

			typeName, ok := typeNames[entity.TypeID]
			if !ok {
				typeName = "Entity"
			}
			candidates = append(candidates, candidateEntity{Name: entity.Name, EntityType: typeName})
		}
	}
	return candidates, nil
}

// resolvedEntities is the outcome of entity resolution: graph nodes ready
// for persistence, how many were newly created, and a lookup from
// normalized name to node used by fact extraction.
type resolvedEntities struct {
	nodes   []*types.Node
	byName  map[string]*types.Node
	created int
}

// resolveEntities maps extracted candidates onto graph entities. Exact
// normalized-name matches resolve without a model call; the remainder go
// through one batched dedup prompt against fuzzy fulltext matches, and
// anything the model does not claim as a duplicate becomes a new node.
func (c *Client) resolveEntities(ctx context.Context, episode types.Episode, previousContents []string, candidates []candidateEntity, now time.Time, options *AddOptions) (*resolvedEntities, error) {
	resolution := &resolvedEntities{byName: make(map[string]*types.Node, len(candidates))}
	if len(candidates) == 0 {
		return resolution, nil
	}

	resolve := func(candidate candidateEntity, node *types.Node) {
		node.UpdatedAt = now
		resolution.nodes = append(resolution.nodes, node)
		resolution.byName[utils.NormalizeName(candidate.Name)] = node
		resolution.byName[utils.NormalizeName(node.Name)] = node
	}
	createNode := func(candidate candidateEntity) {
		node := &types.Node{
			UUID:       utils.NewUUID(),
			Name:       candidate.Name,
			Kind:       types.EntityNode,
			GroupID:    episode.GroupID,
			CreatedAt:  now,
			UpdatedAt:  now,
			EntityType: candidate.EntityType,
		}
		resolution.created++
		resolve(candidate, node)
	}

	// Fuzzy matches feed both the exact-match pass and the dedup prompt.
	// The lists stay index-aligned with the unresolved candidates.
	var unresolved []candidateEntity
	var existing []*types.Node
	existingIdx := make(map[string]int)

	for _, candidate := range candidates {
		matches, err := c.driver.SearchNodesByText(ctx, candidate.Name, episode.GroupID, 5)
		if err != nil {
			return nil, fmt.Errorf("failed to search for existing entity %q: %w", candidate.Name, err)
		}

		var exact *types.Node
		for _, match := range matches {
			if match == nil || !match.IsEntity() {
				continue
			}
			if utils.NormalizeName(match.Name) == utils.NormalizeName(candidate.Name) {
				exact = match
				break
			}
		}
		if exact != nil {
			resolve(candidate, exact)
			continue
		}

		unresolved = append(unresolved, candidate)
		for _, match := range matches {
			if match == nil || !match.IsEntity() {
				continue
			}
			if _, ok := existingIdx[match.UUID]; !ok {
				existingIdx[match.UUID] = len(existing)
				existing = append(existing, match)
			}
		}
	}

	// No fuzzy matches anywhere means every unresolved candidate is new.
	if len(existing) == 0 {
		for _, candidate := range unresolved {
			createNode(candidate)
		}
		return resolution, nil
	}

	dedupeCandidates := make([]prompts.CandidateEntity, len(unresolved))
	for i, candidate := range unresolved {
		dedupeCandidates[i] = prompts.CandidateEntity{ID: i, Name: candidate.Name}
	}
	dedupeExisting := make([]prompts.ExistingEntity, len(existing))
	for i, node := range existing {
		dedupeExisting[i] = prompts.ExistingEntity{Idx: i, Name: node.Name, Summary: node.Summary}
	}

	messages, err := prompts.DedupeEntities(prompts.DedupeInput{
		EpisodeContent:   episode.Content,
		PreviousEpisodes: previousContents,
		Candidates:       dedupeCandidates,
		Existing:         dedupeExisting,
		Format:           options.Format,
		Logger:           c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build dedup prompt: %w", err)
	}
	response, err := c.llm.ChatStructured(ctx, messages, "")
	if err != nil {
		return nil, fmt.Errorf("entity dedup failed: %w", err)
	}
	parsed, err := prompts.Parse[prompts.DedupeResolutions](response.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dedup resolutions: %w", err)
	}

	decisions := make(map[int]int, len(parsed.Resolutions))
	for _, r := range parsed.Resolutions {
		decisions[r.ID] = r.DuplicateIdx
	}

	for i, candidate := range unresolved {
		idx, ok := decisions[i]
		if ok && idx >= 0 && idx < len(existing) {
			resolve(candidate, existing[idx])
			continue
		}
		createNode(candidate)
	}

	return resolution, nil
}

// summarizeEntities refreshes the summary of every resolved entity with
// information from the new episode, one bounded model call per entity.
func (c *Client) summarizeEntities(ctx context.Context, content string, previousContents []string, nodes []*types.Node, options *AddOptions) error {
	if len(nodes) == 0 {
		return nil
	}

	fns := make([]func() error, len(nodes))
	for i := range nodes {
		node := nodes[i]
		fns[i] = func() error {
			messages, err := prompts.SummarizeEntity(prompts.SummaryInput{
				EpisodeContent:   content,
				PreviousEpisodes: previousContents,
				EntityName:       node.Name,
				ExistingSummary:  node.Summary,
				Format:           options.Format,
				Logger:           c.logger,
			})
			if err != nil {
				return fmt.Errorf("failed to build summary prompt: %w", err)
			}
			response, err := c.llm.ChatStructured(ctx, messages, "")
			if err != nil {
				return fmt.Errorf("entity summarization failed for %q: %w", node.Name, err)
			}
			parsed, err := prompts.Parse[prompts.EntitySummary](response.Content)
			if err != nil {
				return fmt.Errorf("failed to parse summary for %q: %w", node.Name, err)
			}
			if parsed.Summary != "" {
				node.Summary = parsed.Summary
			}
			return nil
		}
	}

	executor := utils.NewExecutor(c.config.MaxConcurrency)
	return utils.FirstError(executor.Run(ctx, fns...))
}

// extractFacts runs fact extraction over each chunk concurrently and
// turns the triples into edges between resolved entities. Facts naming
// unknown entities or relating an entity to itself are dropped.
func (c *Client) extractFacts(ctx context.Context, chunks []string, previousContents []string, resolution *resolvedEntities, episodeNode *types.Node, reference, now time.Time, options *AddOptions) ([]*types.Edge, error) {
	if len(resolution.nodes) < 2 {
		return nil, nil
	}

	refs := make([]prompts.EntityRef, len(resolution.nodes))
	for i, node := range resolution.nodes {
		refs[i] = prompts.EntityRef{ID: i, Name: node.Name}
	}

	perChunk := make([][]prompts.ExtractedFact, len(chunks))
	fns := make([]func() error, len(chunks))
	for i := range chunks {
		i := i
		fns[i] = func() error {
			messages, err := prompts.ExtractFacts(prompts.FactInput{
				EpisodeContent:   chunks[i],
				PreviousEpisodes: previousContents,
				Entities:         refs,
				ReferenceTime:    reference,
				Format:           options.Format,
				Logger:           c.logger,
			})
			if err != nil {
				return fmt.Errorf("failed to build fact prompt: %w", err)
			}
			response, err := c.llm.ChatStructured(ctx, messages, "")
			if err != nil {
				return fmt.Errorf("fact extraction failed: %w", err)
			}
			parsed, err := prompts.Parse[prompts.ExtractedFacts](response.Content)
			if err != nil {
				return fmt.Errorf("failed to parse extracted facts: %w", err)
			}
			perChunk[i] = parsed.Facts
			return nil
		}
	}

	executor := utils.NewExecutor(c.config.MaxConcurrency)
	if err := utils.FirstError(executor.Run(ctx, fns...)); err != nil {
		return nil, err
	}

	var edges []*types.Edge
	seen := make(map[string]bool)
	for _, facts := range perChunk {
		for _, fact := range facts {
			source, ok := resolution.byName[utils.NormalizeName(fact.SourceName)]
			if !ok {
				c.logger.Debug("dropping fact with unknown source entity", "source", fact.SourceName, "fact", fact.Fact)
				continue
			}
			target, ok := resolution.byName[utils.NormalizeName(fact.TargetName)]
			if !ok {
				c.logger.Debug("dropping fact with unknown target entity", "target", fact.TargetName, "fact", fact.Fact)
				continue
			}
			if source.UUID == target.UUID {
				continue
			}

			key := source.UUID + "|" + target.UUID + "|" + utils.NormalizeName(fact.RelationType) + "|" + utils.NormalizeName(fact.Fact)
			if seen[key] {
				continue
			}
			seen[key] = true

			validAt, err := prompts.ParseTimestamp(fact.ValidAt)
			if err != nil {
				c.logger.Warn("ignoring unparsable valid_at", "value", *fact.ValidAt, "fact", fact.Fact)
			}
			invalidAt, err := prompts.ParseTimestamp(fact.InvalidAt)
			if err != nil {
				c.logger.Warn("ignoring unparsable invalid_at", "value", *fact.InvalidAt, "fact", fact.Fact)
			}

			edges = append(edges, &types.Edge{
				UUID:           utils.NewUUID(),
				GroupID:        episodeNode.GroupID,
				SourceNodeUUID: source.UUID,
				TargetNodeUUID: target.UUID,
				Name:           fact.RelationType,
				Fact:           fact.Fact,
				CreatedAt:      now,
				UpdatedAt:      now,
				Episodes:       []string{episodeNode.UUID},
				ValidAt:        validAt,
				InvalidAt:      invalidAt,
			})
		}
	}
	return edges, nil
}

// invalidateContradictedEdges closes the temporal window of existing
// facts the new episode contradicts. Candidates are the currently valid
// edges between the endpoint pairs of the new edges; the model picks the
// contradicted ones and each gets InvalidAt set to the reference time.
// Nothing is deleted.
func (c *Client) invalidateContradictedEdges(ctx context.Context, episode types.Episode, previousContents []string, newEdges []*types.Edge, reference, now time.Time, options *AddOptions) ([]*types.Edge, error) {
	if len(newEdges) == 0 {
		return nil, nil
	}

	var existing []*types.Edge
	seenPairs := make(map[string]bool)
	seenEdges := make(map[string]bool)
	for _, edge := range newEdges {
		pair := edge.SourceNodeUUID + "|" + edge.TargetNodeUUID
		if seenPairs[pair] {
			continue
		}
		seenPairs[pair] = true

		between, err := c.driver.GetEdgesBetween(ctx, edge.SourceNodeUUID, edge.TargetNodeUUID, episode.GroupID)
		if err != nil {
			return nil, fmt.Errorf("failed to load existing edges: %w", err)
		}
		for _, candidate := range between {
			if candidate == nil || candidate.Expired() || seenEdges[candidate.UUID] {
				continue
			}
			seenEdges[candidate.UUID] = true
			existing = append(existing, candidate)
		}
	}
	if len(existing) == 0 {
		return nil, nil
	}

	existingFacts := make([]prompts.ExistingFact, len(existing))
	for i, edge := range existing {
		existingFacts[i] = prompts.ExistingFact{ID: i, Fact: edge.Fact}
	}

	messages, err := prompts.InvalidateEdges(prompts.InvalidationInput{
		EpisodeContent:   episode.Content,
		PreviousEpisodes: previousContents,
		ExistingFacts:    existingFacts,
		ReferenceTime:    reference,
		Format:           options.Format,
		Logger:           c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build invalidation prompt: %w", err)
	}
	response, err := c.llm.ChatStructured(ctx, messages, "")
	if err != nil {
		return nil, fmt.Errorf("edge invalidation failed: %w", err)
	}
	parsed, err := prompts.Parse[prompts.EdgeInvalidations](response.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse invalidations: %w", err)
	}

	var invalidated []*types.Edge
	for _, id := range parsed.ContradictedFacts {
		if id < 0 || id >= len(existing) {
			continue
		}
		edge := existing[id]
		invalidAt := reference
		edge.InvalidAt = &invalidAt
		edge.UpdatedAt = now
		invalidated = append(invalidated, edge)
	}
	return invalidated, nil
}

// embedEntities fills in missing name embeddings with one batched call.
func (c *Client) embedEntities(ctx context.Context, nodes []*types.Node) error {
	var texts []string
	var missing []*types.Node
	for _, node := range nodes {
		if len(node.NameEmbedding) == 0 {
			texts = append(texts, node.Name)
			missing = append(missing, node)
		}
	}
	if len(texts) == 0 {
		return nil
	}

	vectors, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed entity names: %w", err)
	}
	if len(vectors) != len(missing) {
		return fmt.Errorf("embedder returned %d vectors for %d names", len(vectors), len(missing))
	}
	for i, node := range missing {
		node.NameEmbedding = vectors[i]
	}
	return nil
}

// embedEdges fills in missing fact embeddings with one batched call.
func (c *Client) embedEdges(ctx context.Context, edges []*types.Edge) error {
	var texts []string
	var missing []*types.Edge
	for _, edge := range edges {
		if len(edge.FactEmbedding) == 0 {
			texts = append(texts, edge.Fact)
			missing = append(missing, edge)
		}
	}
	if len(texts) == 0 {
		return nil
	}

	vectors, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed edge facts: %w", err)
	}
	if len(vectors) != len(missing) {
		return fmt.Errorf("embedder returned %d vectors for %d facts", len(vectors), len(missing))
	}
	for i, edge := range missing {
		edge.FactEmbedding = vectors[i]
	}
	return nil
}

// persistExtraction writes the extraction output: entity nodes, new and
// invalidated edges, one MENTIONS edge per entity, and the episode node
// again with its entity edge list filled in.
func (c *Client) persistExtraction(ctx context.Context, episodeNode *types.Node, nodes []*types.Node, edges, invalidated []*types.Edge) error {
	if err := c.driver.UpsertNodes(ctx, nodes); err != nil {
		return fmt.Errorf("failed to persist entities: %w", err)
	}

	allEdges := make([]*types.Edge, 0, len(edges)+len(invalidated))
	allEdges = append(allEdges, edges...)
	allEdges = append(allEdges, invalidated...)
	if err := c.driver.UpsertEdges(ctx, allEdges); err != nil {
		return fmt.Errorf("failed to persist edges: %w", err)
	}

	for _, node := range nodes {
		if err := c.driver.UpsertEpisodicEdge(ctx, episodeNode.UUID, node.UUID, episodeNode.GroupID); err != nil {
			return fmt.Errorf("failed to persist mention of %q: %w", node.Name, err)
		}
	}

	if len(edges) > 0 {
		episodeNode.EntityEdges = make([]string, len(edges))
		for i, edge := range edges {
			episodeNode.EntityEdges[i] = edge.UUID
		}
		if err := c.driver.UpsertNode(ctx, episodeNode); err != nil {
			return fmt.Errorf("failed to update episode edge list: %w", err)
		}
	}
	return nil
}
