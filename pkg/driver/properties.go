package driver

import (
	"encoding/json"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/soundprediction/engram/pkg/types"
)

// Conversions between the model types and bolt property maps. Timestamps
// are stored as native Neo4j datetimes so Cypher can compare them;
// embeddings are stored as float lists so the vector indices can read
// them; attributes are JSON-encoded because property maps cannot nest.

func stampNode(node *types.Node) {
	now := time.Now().UTC()
	if node.CreatedAt.IsZero() {
		node.CreatedAt = now
	}
	node.UpdatedAt = now
}

func stampEdge(edge *types.Edge) {
	now := time.Now().UTC()
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = now
	}
	edge.UpdatedAt = now
}

func nodeToProps(node *types.Node) map[string]any {
	props := map[string]any{
		"uuid":       node.UUID,
		"name":       node.Name,
		"kind":       string(node.Kind),
		"group_id":   node.GroupID,
		"created_at": node.CreatedAt.UTC(),
		"updated_at": node.UpdatedAt.UTC(),
	}

	if node.EntityType != "" {
		props["entity_type"] = node.EntityType
	}
	if node.Summary != "" {
		props["summary"] = node.Summary
	}
	if len(node.Attributes) > 0 {
		if raw, err := json.Marshal(node.Attributes); err == nil {
			props["attributes"] = string(raw)
		}
	}

	if node.Source != "" {
		props["source"] = string(node.Source)
	}
	if node.Content != "" {
		props["content"] = node.Content
	}
	if node.SourceDescription != "" {
		props["source_description"] = node.SourceDescription
	}
	if !node.Reference.IsZero() {
		props["valid_at"] = node.Reference.UTC()
	}
	if len(node.EntityEdges) > 0 {
		props["entity_edges"] = node.EntityEdges
	}

	if len(node.NameEmbedding) > 0 {
		props["name_embedding"] = toFloat64s(node.NameEmbedding)
	}
	return props
}

func nodeFromDBNode(dbNode dbtype.Node) *types.Node {
	props := dbNode.Props
	node := &types.Node{
		UUID:    asString(props["uuid"]),
		Name:    asString(props["name"]),
		GroupID: asString(props["group_id"]),
	}

	if kind := asString(props["kind"]); kind != "" {
		node.Kind = types.NodeKind(kind)
	} else if hasLabel(dbNode.Labels, "Episodic") {
		node.Kind = types.EpisodicNode
	} else {
		node.Kind = types.EntityNode
	}

	if t, ok := asTime(props["created_at"]); ok {
		node.CreatedAt = t
	}
	if t, ok := asTime(props["updated_at"]); ok {
		node.UpdatedAt = t
	}

	node.EntityType = asString(props["entity_type"])
	node.Summary = asString(props["summary"])
	if raw := asString(props["attributes"]); raw != "" {
		var attrs map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &attrs); err == nil {
			node.Attributes = attrs
		}
	}

	if src := asString(props["source"]); src != "" {
		node.Source = types.EpisodeSource(src)
	}
	node.Content = asString(props["content"])
	node.SourceDescription = asString(props["source_description"])
	if t, ok := asTime(props["valid_at"]); ok {
		node.Reference = t
	}
	node.EntityEdges = asStringSlice(props["entity_edges"])
	node.NameEmbedding = asFloat32s(props["name_embedding"])
	return node
}

func edgeToProps(edge *types.Edge) map[string]any {
	props := map[string]any{
		"uuid":       edge.UUID,
		"group_id":   edge.GroupID,
		"name":       edge.Name,
		"fact":       edge.Fact,
		"created_at": edge.CreatedAt.UTC(),
		"updated_at": edge.UpdatedAt.UTC(),
	}

	if len(edge.Episodes) > 0 {
		props["episodes"] = edge.Episodes
	}
	if edge.ValidAt != nil && !edge.ValidAt.IsZero() {
		props["valid_at"] = edge.ValidAt.UTC()
	}
	if edge.InvalidAt != nil && !edge.InvalidAt.IsZero() {
		props["invalid_at"] = edge.InvalidAt.UTC()
	}
	if len(edge.FactEmbedding) > 0 {
		props["fact_embedding"] = toFloat64s(edge.FactEmbedding)
	}
	return props
}

func edgeFromDBRelationship(rel dbtype.Relationship, sourceUUID, targetUUID string) *types.Edge {
	props := rel.Props
	edge := &types.Edge{
		UUID:           asString(props["uuid"]),
		GroupID:        asString(props["group_id"]),
		SourceNodeUUID: sourceUUID,
		TargetNodeUUID: targetUUID,
		Name:           asString(props["name"]),
		Fact:           asString(props["fact"]),
	}

	if t, ok := asTime(props["created_at"]); ok {
		edge.CreatedAt = t
	}
	if t, ok := asTime(props["updated_at"]); ok {
		edge.UpdatedAt = t
	}
	edge.Episodes = asStringSlice(props["episodes"])
	if t, ok := asTime(props["valid_at"]); ok {
		edge.ValidAt = &t
	}
	if t, ok := asTime(props["invalid_at"]); ok {
		edge.InvalidAt = &t
	}
	edge.FactEmbedding = asFloat32s(props["fact_embedding"])
	return edge
}

func hasLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asTime accepts the datetime shapes the bolt protocol can hand back, plus
// RFC3339 strings for data written by older tooling.
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case dbtype.LocalDateTime:
		return t.Time(), true
	case dbtype.Date:
		return t.Time(), true
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func asStringSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return nil
}

func asFloat32s(v any) []float32 {
	switch vals := v.(type) {
	case []float32:
		return vals
	case []float64:
		out := make([]float32, len(vals))
		for i, f := range vals {
			out[i] = float32(f)
		}
		return out
	case []any:
		out := make([]float32, 0, len(vals))
		for _, item := range vals {
			switch f := item.(type) {
			case float64:
				out = append(out, float32(f))
			case float32:
				out = append(out, f)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return nil
}

func toFloat64s(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}
