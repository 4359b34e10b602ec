package graph

import (
	"context"
	"fmt"

	"github.com/yungbote/kgforge-backend/internal/domain"
	"github.com/yungbote/kgforge-backend/internal/platform/logger"
)

// LoadSnapshot pulls the whole graph out of the store into a MemoryStore
// for read-only traversal. Traversal and synthesis then run against this
// immutable snapshot rather than issuing per-hop queries.
func LoadSnapshot(ctx context.Context, store Store, log *logger.Logger) (*MemoryStore, error) {
	if ms, ok := store.(*MemoryStore); ok {
		return ms, nil
	}

	snap := NewMemoryStore()

	rows, err := store.RunQuery(ctx, `
MATCH (n)
RETURN n.id AS id, labels(n) AS labels, properties(n) AS props
`, nil)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: nodes: %w", err)
	}
	nodes := make([]domain.NodeSpec, 0, len(rows))
	for _, row := range rows {
		id, _ := row["id"].(string)
		if id == "" {
			continue
		}
		spec := domain.NodeSpec{ID: id}
		if rawLabels, ok := row["labels"].([]any); ok {
			for _, l := range rawLabels {
				if s, ok := l.(string); ok {
					spec.Labels = append(spec.Labels, s)
				}
			}
		}
		if props, ok := row["props"].(map[string]any); ok {
			spec.Properties = props
		}
		nodes = append(nodes, spec)
	}
	if _, err := snap.UpsertNodes(ctx, nodes); err != nil {
		return nil, fmt.Errorf("load snapshot: fill nodes: %w", err)
	}

	rows, err = store.RunQuery(ctx, `
MATCH (a)-[r]->(b)
RETURN a.id AS source_id, type(r) AS rel_type, b.id AS target_id, properties(r) AS props
`, nil)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: relationships: %w", err)
	}
	edges := make([]domain.EdgeSpec, 0, len(rows))
	for _, row := range rows {
		sourceID, _ := row["source_id"].(string)
		targetID, _ := row["target_id"].(string)
		relType, _ := row["rel_type"].(string)
		if sourceID == "" || targetID == "" || relType == "" {
			continue
		}
		spec := domain.EdgeSpec{SourceID: sourceID, TargetID: targetID, RelType: relType}
		if props, ok := row["props"].(map[string]any); ok {
			spec.Properties = props
		}
		edges = append(edges, spec)
	}
	if _, err := snap.UpsertRelationships(ctx, edges); err != nil {
		return nil, fmt.Errorf("load snapshot: fill relationships: %w", err)
	}

	log.Info("graph snapshot loaded",
		"nodes", snap.NodeCount(),
		"relationships", snap.EdgeCount(),
	)
	return snap, nil
}
