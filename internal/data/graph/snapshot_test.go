package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/yungbote/kgforge-backend/internal/domain"
	"github.com/yungbote/kgforge-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

// queryStore serves canned query results, standing in for a remote store.
type queryStore struct {
	nodes []map[string]any
	edges []map[string]any
}

func (q *queryStore) UpsertNodes(context.Context, []domain.NodeSpec) (*WriteResult, error) {
	return &WriteResult{}, nil
}

func (q *queryStore) UpsertRelationships(context.Context, []domain.EdgeSpec) (*WriteResult, error) {
	return &WriteResult{}, nil
}

func (q *queryStore) Clear(context.Context) error { return nil }

func (q *queryStore) RunQuery(_ context.Context, query string, _ map[string]any) ([]map[string]any, error) {
	if strings.Contains(query, "-[r]->") {
		return q.edges, nil
	}
	return q.nodes, nil
}

func TestLoadSnapshotPassthrough(t *testing.T) {
	ms := NewMemoryStore()
	snap, err := LoadSnapshot(context.Background(), ms, testLogger(t))
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if snap != ms {
		t.Fatalf("memory store should pass through unchanged")
	}
}

func TestLoadSnapshotFromQueries(t *testing.T) {
	store := &queryStore{
		nodes: []map[string]any{
			{"id": "a", "labels": []any{"Concept"}, "props": map[string]any{"term": "A"}},
			{"id": "b", "labels": []any{"Concept"}, "props": map[string]any{"term": "B"}},
			{"id": "", "labels": []any{"Concept"}},
		},
		edges: []map[string]any{
			{"source_id": "a", "rel_type": "IS_A", "target_id": "b", "props": map[string]any{"w": 1}},
			{"source_id": "a", "rel_type": "", "target_id": "b"},
		},
	}

	snap, err := LoadSnapshot(context.Background(), store, testLogger(t))
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if snap.NodeCount() != 2 || snap.EdgeCount() != 1 {
		t.Fatalf("snapshot has %d nodes, %d edges", snap.NodeCount(), snap.EdgeCount())
	}
	n, ok := snap.Node("a")
	if !ok || n.Properties["term"] != "A" {
		t.Fatalf("node a = %+v", n)
	}
	out := snap.Outgoing("a")
	if len(out) != 1 || out[0].RelType != "IS_A" || out[0].TargetID != "b" {
		t.Fatalf("outgoing(a) = %+v", out)
	}
}
