package driver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/soundprediction/engram/pkg/types"
	"github.com/soundprediction/engram/pkg/utils"
)

// Neo4j implements GraphDriver on the official bolt driver.
type Neo4j struct {
	client     neo4j.DriverWithContext
	database   string
	dimensions int
}

var _ GraphDriver = (*Neo4j)(nil)

// Neo4jOption customizes driver construction.
type Neo4jOption func(*Neo4j)

// WithDimensions sets the embedding width used when creating vector
// indices. Defaults to DefaultEmbeddingDim.
func WithDimensions(dim int) Neo4jOption {
	return func(n *Neo4j) {
		if dim > 0 {
			n.dimensions = dim
		}
	}
}

// NewNeo4j connects to a Neo4j server over bolt. An empty database name
// selects the default "neo4j" database.
func NewNeo4j(uri, username, password, database string, opts ...Neo4jOption) (*Neo4j, error) {
	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if database == "" {
		database = "neo4j"
	}

	n := &Neo4j{
		client:     client,
		database:   database,
		dimensions: DefaultEmbeddingDim,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// VerifyConnectivity checks that the server is reachable with the
// configured credentials.
func (n *Neo4j) VerifyConnectivity(ctx context.Context) error {
	return n.client.VerifyConnectivity(ctx)
}

// Close releases the bolt connection pool. Safe to call more than once.
func (n *Neo4j) Close(ctx context.Context) error {
	return n.client.Close(ctx)
}

func (n *Neo4j) session(ctx context.Context) neo4j.SessionWithContext {
	return n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
}

// GetNode retrieves a node by UUID. Returns (nil, nil) when no node with
// that UUID exists in the group.
func (n *Neo4j) GetNode(ctx context.Context, uuid, groupID string) (*types.Node, error) {
	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (n {uuid: $uuid, group_id: $group_id})
			RETURN n
			LIMIT 1
		`, map[string]any{
			"uuid":     uuid,
			"group_id": groupID,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("get node %s: %w", uuid, err)
	}

	records := result.([]*db.Record)
	if len(records) == 0 {
		return nil, nil
	}
	value, found := records[0].Get("n")
	if !found {
		return nil, nil
	}
	dbNode, ok := value.(dbtype.Node)
	if !ok {
		return nil, fmt.Errorf("unexpected type for node: got %T, expected dbtype.Node", value)
	}
	return nodeFromDBNode(dbNode), nil
}

// UpsertNode creates or updates a node, keyed on (uuid, group_id). The
// node's kind selects the stored label.
func (n *Neo4j) UpsertNode(ctx context.Context, node *types.Node) error {
	if node == nil {
		return fmt.Errorf("cannot upsert nil node")
	}
	if err := node.ValidateForUpsert(); err != nil {
		return err
	}
	stampNode(node)

	session := n.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := fmt.Sprintf(`
			MERGE (n:%s {uuid: $uuid, group_id: $group_id})
			SET n += $props
		`, node.Kind.Label())
		_, err := tx.Run(ctx, query, map[string]any{
			"uuid":     node.UUID,
			"group_id": node.GroupID,
			"props":    nodeToProps(node),
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("upsert node %s: %w", node.UUID, err)
	}
	return nil
}

// UpsertNodes bulk-upserts nodes with one UNWIND statement per label.
// Labels cannot be parameterized in Cypher, so nodes are grouped by kind.
func (n *Neo4j) UpsertNodes(ctx context.Context, nodes []*types.Node) error {
	if len(nodes) == 0 {
		return nil
	}

	byLabel := make(map[string][]map[string]any)
	for _, node := range nodes {
		if err := node.ValidateForUpsert(); err != nil {
			return fmt.Errorf("invalid node %s: %w", node.UUID, err)
		}
		stampNode(node)
		label := node.Kind.Label()
		byLabel[label] = append(byLabel[label], map[string]any{
			"uuid":     node.UUID,
			"group_id": node.GroupID,
			"props":    nodeToProps(node),
		})
	}

	session := n.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for label, rows := range byLabel {
			query := fmt.Sprintf(`
				UNWIND $rows AS row
				MERGE (n:%s {uuid: row.uuid, group_id: row.group_id})
				SET n += row.props
			`, label)
			if _, err := tx.Run(ctx, query, map[string]any{"rows": rows}); err != nil {
				return nil, fmt.Errorf("failed to bulk upsert %s nodes: %w", label, err)
			}
		}
		return nil, nil
	})
	return err
}

// GetNodesByUUIDs retrieves the nodes whose UUIDs appear in the list.
// Missing UUIDs are silently absent from the result.
func (n *Neo4j) GetNodesByUUIDs(ctx context.Context, uuids []string, groupID string) ([]*types.Node, error) {
	if len(uuids) == 0 {
		return []*types.Node{}, nil
	}

	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (n {group_id: $group_id})
			WHERE n.uuid IN $uuids
			RETURN n
		`, map[string]any{
			"uuids":    uuids,
			"group_id": groupID,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("get nodes by uuids: %w", err)
	}

	return nodesFromRecords(result.([]*db.Record), "n"), nil
}

// SearchNodesByText runs a BM25 fulltext query over entity names and
// summaries.
func (n *Neo4j) SearchNodesByText(ctx context.Context, query, groupID string, limit int) ([]*types.Node, error) {
	sanitized := utils.LuceneSanitize(query)
	if sanitized == "" {
		return []*types.Node{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		cypher := fmt.Sprintf(`
			CALL db.index.fulltext.queryNodes("%s", $query)
			YIELD node, score
			WHERE node.group_id = $group_id
			RETURN node
			ORDER BY score DESC
			LIMIT $limit
		`, NodeFulltextIndex)
		res, err := tx.Run(ctx, cypher, map[string]any{
			"query":    sanitized,
			"group_id": groupID,
			"limit":    limit,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("fulltext node search: %w", err)
	}

	return nodesFromRecords(result.([]*db.Record), "node"), nil
}

// SearchNodesByVector runs a cosine similarity query against the entity
// name-embedding index.
func (n *Neo4j) SearchNodesByVector(ctx context.Context, vector []float32, groupID string, opts *VectorSearchOptions) ([]*types.Node, error) {
	if len(vector) == 0 {
		return []*types.Node{}, nil
	}
	limit, minScore := vectorSearchParams(opts)

	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		cypher := fmt.Sprintf(`
			CALL db.index.vector.queryNodes("%s", $limit, $vector)
			YIELD node, score
			WHERE node.group_id = $group_id AND score >= $min_score
			RETURN node
			ORDER BY score DESC
		`, NodeVectorIndex)
		res, err := tx.Run(ctx, cypher, map[string]any{
			"limit":     limit,
			"vector":    toFloat64s(vector),
			"group_id":  groupID,
			"min_score": minScore,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("vector node search: %w", err)
	}

	return nodesFromRecords(result.([]*db.Record), "node"), nil
}

// SearchNodesByBFS collects entities reachable from the origin nodes within
// maxDepth hops. Origins themselves are not returned.
func (n *Neo4j) SearchNodesByBFS(ctx context.Context, originUUIDs []string, groupID string, maxDepth, limit int) ([]*types.Node, error) {
	if len(originUUIDs) == 0 {
		return []*types.Node{}, nil
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if limit <= 0 {
		limit = 10
	}

	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// Variable-length patterns cannot take a parameterized bound.
		cypher := fmt.Sprintf(`
			UNWIND $origin_uuids AS origin_uuid
			MATCH (origin:Entity {uuid: origin_uuid, group_id: $group_id})-[:RELATES_TO*1..%d]-(peer:Entity {group_id: $group_id})
			WHERE NOT peer.uuid IN $origin_uuids
			WITH DISTINCT peer
			RETURN peer AS node
			LIMIT $limit
		`, maxDepth)
		res, err := tx.Run(ctx, cypher, map[string]any{
			"origin_uuids": originUUIDs,
			"group_id":     groupID,
			"limit":        limit,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("bfs node search: %w", err)
	}

	return nodesFromRecords(result.([]*db.Record), "node"), nil
}

// GetNeighbors expands from a node along RELATES_TO edges up to maxDepth
// hops and reports each reachable entity with its shortest-path distance.
func (n *Neo4j) GetNeighbors(ctx context.Context, uuid, groupID string, maxDepth int) ([]Neighbor, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// Variable-length patterns cannot take a parameterized bound.
		query := fmt.Sprintf(`
			MATCH (start:Entity {uuid: $uuid, group_id: $group_id})
			MATCH path = shortestPath((start)-[:RELATES_TO*1..%d]-(neighbor:Entity))
			WHERE neighbor.group_id = $group_id AND neighbor.uuid <> $uuid
			RETURN neighbor, length(path) AS distance
		`, maxDepth)
		res, err := tx.Run(ctx, query, map[string]any{
			"uuid":     uuid,
			"group_id": groupID,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("get neighbors of %s: %w", uuid, err)
	}

	records := result.([]*db.Record)
	neighbors := make([]Neighbor, 0, len(records))
	for _, record := range records {
		value, found := record.Get("neighbor")
		if !found {
			continue
		}
		dbNode, ok := value.(dbtype.Node)
		if !ok {
			continue
		}
		distance := 0
		if d, found := record.Get("distance"); found {
			if dist, ok := d.(int64); ok {
				distance = int(dist)
			}
		}
		neighbors = append(neighbors, Neighbor{
			Node:     nodeFromDBNode(dbNode),
			Distance: distance,
		})
	}
	return neighbors, nil
}

// GetEdge retrieves an edge by UUID. Returns (nil, nil) when no edge with
// that UUID exists in the group.
func (n *Neo4j) GetEdge(ctx context.Context, uuid, groupID string) (*types.Edge, error) {
	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (s)-[r:RELATES_TO {uuid: $uuid, group_id: $group_id}]->(t)
			RETURN r, s.uuid AS source_uuid, t.uuid AS target_uuid
			LIMIT 1
		`, map[string]any{
			"uuid":     uuid,
			"group_id": groupID,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("get edge %s: %w", uuid, err)
	}

	edges := edgesFromRecords(result.([]*db.Record))
	if len(edges) == 0 {
		return nil, nil
	}
	return edges[0], nil
}

// UpsertEdge creates or updates a RELATES_TO relationship between two
// existing entity nodes.
func (n *Neo4j) UpsertEdge(ctx context.Context, edge *types.Edge) error {
	if edge == nil {
		return fmt.Errorf("cannot upsert nil edge")
	}
	if err := edge.ValidateForUpsert(); err != nil {
		return err
	}
	stampEdge(edge)

	session := n.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MATCH (s:Entity {uuid: $source_uuid, group_id: $group_id})
			MATCH (t:Entity {uuid: $target_uuid, group_id: $group_id})
			MERGE (s)-[r:RELATES_TO {uuid: $uuid, group_id: $group_id}]->(t)
			SET r += $props
		`, map[string]any{
			"uuid":        edge.UUID,
			"source_uuid": edge.SourceNodeUUID,
			"target_uuid": edge.TargetNodeUUID,
			"group_id":    edge.GroupID,
			"props":       edgeToProps(edge),
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("upsert edge %s: %w", edge.UUID, err)
	}
	return nil
}

// UpsertEdges bulk-upserts RELATES_TO relationships with one UNWIND
// statement.
func (n *Neo4j) UpsertEdges(ctx context.Context, edges []*types.Edge) error {
	if len(edges) == 0 {
		return nil
	}

	rows := make([]map[string]any, 0, len(edges))
	for _, edge := range edges {
		if err := edge.ValidateForUpsert(); err != nil {
			return fmt.Errorf("invalid edge %s: %w", edge.UUID, err)
		}
		stampEdge(edge)
		rows = append(rows, map[string]any{
			"uuid":        edge.UUID,
			"source_uuid": edge.SourceNodeUUID,
			"target_uuid": edge.TargetNodeUUID,
			"group_id":    edge.GroupID,
			"props":       edgeToProps(edge),
		})
	}

	session := n.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			UNWIND $rows AS row
			MATCH (s:Entity {uuid: row.source_uuid, group_id: row.group_id})
			MATCH (t:Entity {uuid: row.target_uuid, group_id: row.group_id})
			MERGE (s)-[r:RELATES_TO {uuid: row.uuid, group_id: row.group_id}]->(t)
			SET r += row.props
		`, map[string]any{"rows": rows})
		if err != nil {
			return nil, fmt.Errorf("failed to bulk upsert edges: %w", err)
		}
		return nil, nil
	})
	return err
}

// SearchEdgesByText runs a BM25 fulltext query over relation names and
// fact text.
func (n *Neo4j) SearchEdgesByText(ctx context.Context, query, groupID string, limit int) ([]*types.Edge, error) {
	sanitized := utils.LuceneSanitize(query)
	if sanitized == "" {
		return []*types.Edge{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		cypher := fmt.Sprintf(`
			CALL db.index.fulltext.queryRelationships("%s", $query)
			YIELD relationship, score
			WHERE relationship.group_id = $group_id
			RETURN relationship AS r,
			       startNode(relationship).uuid AS source_uuid,
			       endNode(relationship).uuid AS target_uuid
			ORDER BY score DESC
			LIMIT $limit
		`, EdgeFulltextIndex)
		res, err := tx.Run(ctx, cypher, map[string]any{
			"query":    sanitized,
			"group_id": groupID,
			"limit":    limit,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("fulltext edge search: %w", err)
	}

	return edgesFromRecords(result.([]*db.Record)), nil
}

// SearchEdgesByVector runs a cosine similarity query against the edge
// fact-embedding index.
func (n *Neo4j) SearchEdgesByVector(ctx context.Context, vector []float32, groupID string, opts *VectorSearchOptions) ([]*types.Edge, error) {
	if len(vector) == 0 {
		return []*types.Edge{}, nil
	}
	limit, minScore := vectorSearchParams(opts)

	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		cypher := fmt.Sprintf(`
			CALL db.index.vector.queryRelationships("%s", $limit, $vector)
			YIELD relationship, score
			WHERE relationship.group_id = $group_id AND score >= $min_score
			RETURN relationship AS r,
			       startNode(relationship).uuid AS source_uuid,
			       endNode(relationship).uuid AS target_uuid
			ORDER BY score DESC
		`, EdgeVectorIndex)
		res, err := tx.Run(ctx, cypher, map[string]any{
			"limit":     limit,
			"vector":    toFloat64s(vector),
			"group_id":  groupID,
			"min_score": minScore,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("vector edge search: %w", err)
	}

	return edgesFromRecords(result.([]*db.Record)), nil
}

// SearchEdgesByBFS collects the RELATES_TO edges lying on paths that start
// at the origin nodes and extend up to maxDepth hops outward.
func (n *Neo4j) SearchEdgesByBFS(ctx context.Context, originUUIDs []string, groupID string, maxDepth, limit int) ([]*types.Edge, error) {
	if len(originUUIDs) == 0 {
		return []*types.Edge{}, nil
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if limit <= 0 {
		limit = 10
	}

	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// Variable-length patterns cannot take a parameterized bound.
		cypher := fmt.Sprintf(`
			UNWIND $origin_uuids AS origin_uuid
			MATCH path = (origin:Entity {uuid: origin_uuid, group_id: $group_id})-[:RELATES_TO*1..%d]-(:Entity {group_id: $group_id})
			UNWIND relationships(path) AS rel
			WITH DISTINCT rel
			RETURN rel AS r,
			       startNode(rel).uuid AS source_uuid,
			       endNode(rel).uuid AS target_uuid
			LIMIT $limit
		`, maxDepth)
		res, err := tx.Run(ctx, cypher, map[string]any{
			"origin_uuids": originUUIDs,
			"group_id":     groupID,
			"limit":        limit,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("bfs edge search: %w", err)
	}

	return edgesFromRecords(result.([]*db.Record)), nil
}

// GetEdgesBetween retrieves the RELATES_TO edges connecting two entities,
// in either direction.
func (n *Neo4j) GetEdgesBetween(ctx context.Context, sourceUUID, targetUUID, groupID string) ([]*types.Edge, error) {
	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (a:Entity {uuid: $source_uuid, group_id: $group_id})-[r:RELATES_TO]-(b:Entity {uuid: $target_uuid, group_id: $group_id})
			RETURN r, startNode(r).uuid AS source_uuid, endNode(r).uuid AS target_uuid
		`, map[string]any{
			"source_uuid": sourceUUID,
			"target_uuid": targetUUID,
			"group_id":    groupID,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("get edges between %s and %s: %w", sourceUUID, targetUUID, err)
	}

	return edgesFromRecords(result.([]*db.Record)), nil
}

// UpsertEpisodicEdge records that an episode mentions an entity. The
// MERGE keeps repeated ingestion idempotent.
func (n *Neo4j) UpsertEpisodicEdge(ctx context.Context, episodeUUID, entityUUID, groupID string) error {
	session := n.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MATCH (episode:Episodic {uuid: $episode_uuid, group_id: $group_id})
			MATCH (entity:Entity {uuid: $entity_uuid, group_id: $group_id})
			MERGE (episode)-[e:MENTIONS {group_id: $group_id}]->(entity)
			ON CREATE SET e.created_at = $created_at
		`, map[string]any{
			"episode_uuid": episodeUUID,
			"entity_uuid":  entityUUID,
			"group_id":     groupID,
			"created_at":   time.Now().UTC(),
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to upsert episodic edge: %w", err)
	}
	return nil
}

// RetrieveEpisodes returns the lastN episodes at or before the reference
// time, oldest first. A zero reference means now.
func (n *Neo4j) RetrieveEpisodes(ctx context.Context, groupID string, reference time.Time, lastN int) ([]*types.Node, error) {
	if lastN <= 0 {
		lastN = 10
	}
	if reference.IsZero() {
		reference = time.Now().UTC()
	}

	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (e:Episodic {group_id: $group_id})
			WHERE e.valid_at <= $reference
			RETURN e
			ORDER BY e.valid_at DESC
			LIMIT $last_n
		`, map[string]any{
			"group_id":  groupID,
			"reference": reference.UTC(),
			"last_n":    lastN,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve episodes: %w", err)
	}

	episodes := nodesFromRecords(result.([]*db.Record), "e")

	// The query returns newest first; callers want chronological order.
	for i, j := 0, len(episodes)-1; i < j; i, j = i+1, j-1 {
		episodes[i], episodes[j] = episodes[j], episodes[i]
	}
	return episodes, nil
}

// GetMentioningEpisodes returns, for each entity UUID, the episodes whose
// MENTIONS edges point at it.
func (n *Neo4j) GetMentioningEpisodes(ctx context.Context, entityUUIDs []string, groupID string) (map[string][]*types.Node, error) {
	mentions := make(map[string][]*types.Node, len(entityUUIDs))
	if len(entityUUIDs) == 0 {
		return mentions, nil
	}

	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (e:Episodic {group_id: $group_id})-[:MENTIONS]->(n:Entity {group_id: $group_id})
			WHERE n.uuid IN $uuids
			RETURN n.uuid AS entity_uuid, e
		`, map[string]any{
			"uuids":    entityUUIDs,
			"group_id": groupID,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("get mentioning episodes: %w", err)
	}

	for _, record := range result.([]*db.Record) {
		uuidValue, found := record.Get("entity_uuid")
		if !found {
			continue
		}
		entityUUID, ok := uuidValue.(string)
		if !ok {
			continue
		}
		value, found := record.Get("e")
		if !found {
			continue
		}
		dbNode, ok := value.(dbtype.Node)
		if !ok {
			continue
		}
		mentions[entityUUID] = append(mentions[entityUUID], nodeFromDBNode(dbNode))
	}
	return mentions, nil
}

// BuildIndices creates the range, fulltext, and vector indices the search
// queries depend on. Idempotent: existing indices are left alone.
func (n *Neo4j) BuildIndices(ctx context.Context) error {
	session := n.session(ctx)
	defer session.Close(ctx)

	indices := []string{
		"CREATE INDEX entity_uuid IF NOT EXISTS FOR (n:Entity) ON (n.uuid)",
		"CREATE INDEX episode_uuid IF NOT EXISTS FOR (n:Episodic) ON (n.uuid)",
		"CREATE INDEX relation_uuid IF NOT EXISTS FOR ()-[e:RELATES_TO]-() ON (e.uuid)",
		"CREATE INDEX entity_group_id IF NOT EXISTS FOR (n:Entity) ON (n.group_id)",
		"CREATE INDEX episode_group_id IF NOT EXISTS FOR (n:Episodic) ON (n.group_id)",
		"CREATE INDEX relation_group_id IF NOT EXISTS FOR ()-[e:RELATES_TO]-() ON (e.group_id)",
		"CREATE INDEX mention_group_id IF NOT EXISTS FOR ()-[e:MENTIONS]-() ON (e.group_id)",
		"CREATE INDEX entity_name IF NOT EXISTS FOR (n:Entity) ON (n.name)",
		"CREATE INDEX entity_created_at IF NOT EXISTS FOR (n:Entity) ON (n.created_at)",
		"CREATE INDEX episode_valid_at IF NOT EXISTS FOR (n:Episodic) ON (n.valid_at)",
		"CREATE INDEX relation_valid_at IF NOT EXISTS FOR ()-[e:RELATES_TO]-() ON (e.valid_at)",
		"CREATE INDEX relation_invalid_at IF NOT EXISTS FOR ()-[e:RELATES_TO]-() ON (e.invalid_at)",

		fmt.Sprintf(`CREATE FULLTEXT INDEX %s IF NOT EXISTS
			FOR (n:Entity) ON EACH [n.name, n.summary]`, NodeFulltextIndex),
		fmt.Sprintf(`CREATE FULLTEXT INDEX %s IF NOT EXISTS
			FOR ()-[e:RELATES_TO]-() ON EACH [e.name, e.fact]`, EdgeFulltextIndex),
		fmt.Sprintf(`CREATE FULLTEXT INDEX %s IF NOT EXISTS
			FOR (e:Episodic) ON EACH [e.content, e.source_description]`, EpisodeFulltextIndex),

		fmt.Sprintf(`CREATE VECTOR INDEX %s IF NOT EXISTS
			FOR (n:Entity) ON (n.name_embedding)
			OPTIONS {indexConfig: {`+"`vector.dimensions`"+`: %d, `+"`vector.similarity_function`"+`: "cosine"}}`,
			NodeVectorIndex, n.dimensions),
		fmt.Sprintf(`CREATE VECTOR INDEX %s IF NOT EXISTS
			FOR ()-[r:RELATES_TO]-() ON (r.fact_embedding)
			OPTIONS {indexConfig: {`+"`vector.dimensions`"+`: %d, `+"`vector.similarity_function`"+`: "cosine"}}`,
			EdgeVectorIndex, n.dimensions),
	}

	for _, indexQuery := range indices {
		if _, err := session.Run(ctx, indexQuery, nil); err != nil {
			if strings.Contains(err.Error(), "already exists") || strings.Contains(err.Error(), "An equivalent") {
				continue
			}
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// ClearGroup deletes every node and relationship in the group. An empty
// group ID wipes the whole database. Destructive and unrecoverable.
func (n *Neo4j) ClearGroup(ctx context.Context, groupID string) error {
	session := n.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if groupID == "" {
			_, err := tx.Run(ctx, "MATCH (n) DETACH DELETE n", nil)
			return nil, err
		}
		_, err := tx.Run(ctx, `
			MATCH (n {group_id: $group_id})
			DETACH DELETE n
		`, map[string]any{"group_id": groupID})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("clear group %q: %w", groupID, err)
	}
	return nil
}

// Stats counts stored nodes and edges, by label and relationship type.
func (n *Neo4j) Stats(ctx context.Context, groupID string) (*GraphStats, error) {
	filter := ""
	params := map[string]any{}
	if groupID != "" {
		filter = "{group_id: $group_id}"
		params["group_id"] = groupID
	}

	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		nodeQuery := fmt.Sprintf(`
			MATCH (n %s)
			UNWIND labels(n) AS label
			WITH label, count(DISTINCT n) AS node_count
			RETURN label, node_count
			ORDER BY label
		`, filter)
		nodeRes, err := tx.Run(ctx, nodeQuery, params)
		if err != nil {
			return nil, err
		}
		nodeRecords, err := nodeRes.Collect(ctx)
		if err != nil {
			return nil, err
		}

		totalQuery := fmt.Sprintf(`MATCH (n %s) RETURN count(n) AS total`, filter)
		totalRes, err := tx.Run(ctx, totalQuery, params)
		if err != nil {
			return nil, err
		}
		totalRecord, err := totalRes.Single(ctx)
		if err != nil {
			return nil, err
		}

		edgeQuery := fmt.Sprintf(`
			MATCH ()-[r %s]->()
			RETURN type(r) AS edge_type, count(r) AS edge_count
			ORDER BY edge_type
		`, filter)
		edgeRes, err := tx.Run(ctx, edgeQuery, params)
		if err != nil {
			return nil, err
		}
		edgeRecords, err := edgeRes.Collect(ctx)
		if err != nil {
			return nil, err
		}

		return map[string]any{
			"nodes": nodeRecords,
			"total": totalRecord,
			"edges": edgeRecords,
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect graph stats: %w", err)
	}

	data := result.(map[string]any)
	stats := &GraphStats{
		NodesByLabel: make(map[string]int64),
		EdgesByType:  make(map[string]int64),
		CollectedAt:  time.Now().UTC(),
	}

	if total, found := data["total"].(*db.Record).Get("total"); found {
		if count, ok := total.(int64); ok {
			stats.NodeCount = count
		}
	}
	for _, record := range data["nodes"].([]*db.Record) {
		label, _ := record.Get("label")
		count, _ := record.Get("node_count")
		name, ok := label.(string)
		if !ok {
			continue
		}
		if c, ok := count.(int64); ok {
			stats.NodesByLabel[name] = c
		}
	}
	stats.EpisodeCount = stats.NodesByLabel["Episodic"]
	for _, record := range data["edges"].([]*db.Record) {
		edgeType, _ := record.Get("edge_type")
		count, _ := record.Get("edge_count")
		name, ok := edgeType.(string)
		if !ok {
			continue
		}
		if c, ok := count.(int64); ok {
			stats.EdgesByType[name] = c
			stats.EdgeCount += c
		}
	}
	return stats, nil
}

func vectorSearchParams(opts *VectorSearchOptions) (limit int, minScore float64) {
	limit = 10
	if opts != nil {
		if opts.Limit > 0 {
			limit = opts.Limit
		}
		minScore = opts.MinScore
	}
	return limit, minScore
}

func nodesFromRecords(records []*db.Record, key string) []*types.Node {
	nodes := make([]*types.Node, 0, len(records))
	for _, record := range records {
		value, found := record.Get(key)
		if !found {
			continue
		}
		dbNode, ok := value.(dbtype.Node)
		if !ok {
			continue
		}
		nodes = append(nodes, nodeFromDBNode(dbNode))
	}
	return nodes
}

func edgesFromRecords(records []*db.Record) []*types.Edge {
	edges := make([]*types.Edge, 0, len(records))
	for _, record := range records {
		value, found := record.Get("r")
		if !found {
			continue
		}
		rel, ok := value.(dbtype.Relationship)
		if !ok {
			continue
		}
		sourceValue, _ := record.Get("source_uuid")
		targetValue, _ := record.Get("target_uuid")
		source, ok := sourceValue.(string)
		if !ok {
			continue
		}
		target, ok := targetValue.(string)
		if !ok {
			continue
		}
		edges = append(edges, edgeFromDBRelationship(rel, source, target))
	}
	return edges
}
