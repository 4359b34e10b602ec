package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/kgforge-backend/internal/domain"
	pkgerrors "github.com/yungbote/kgforge-backend/internal/pkg/errors"
)

func seedStore(t *testing.T) *MemoryStore {
	t.Helper()
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.UpsertNodes(ctx, []domain.NodeSpec{
		{ID: "a", Labels: []string{"Concept"}, Properties: map[string]any{"term": "A"}},
		{ID: "b", Labels: []string{"Concept"}, Properties: map[string]any{"term": "B"}},
		{ID: "c", Labels: []string{"Concept"}, Properties: map[string]any{"term": "C"}},
	})
	if err != nil {
		t.Fatalf("UpsertNodes: %v", err)
	}
	_, err = s.UpsertRelationships(ctx, []domain.EdgeSpec{
		{SourceID: "a", TargetID: "b", RelType: "IS_A"},
		{SourceID: "b", TargetID: "c", RelType: "IS_A"},
		{SourceID: "a", TargetID: "c", RelType: "FINDING_SITE"},
	})
	if err != nil {
		t.Fatalf("UpsertRelationships: %v", err)
	}
	return s
}

func TestMemoryStoreIdempotentUpserts(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)

	res, err := s.UpsertNodes(ctx, []domain.NodeSpec{
		{ID: "a", Labels: []string{"Concept"}, Properties: map[string]any{"term": "A2", "extra": 1}},
	})
	if err != nil {
		t.Fatalf("UpsertNodes: %v", err)
	}
	if res.Written != 1 {
		t.Fatalf("written = %d", res.Written)
	}
	if s.NodeCount() != 3 {
		t.Fatalf("node count = %d after re-upsert", s.NodeCount())
	}
	n, ok := s.Node("a")
	if !ok || n.Properties["term"] != "A2" || n.Properties["extra"] != 1 {
		t.Fatalf("merge did not update properties: %+v", n)
	}

	if _, err := s.UpsertRelationships(ctx, []domain.EdgeSpec{
		{SourceID: "a", TargetID: "b", RelType: "IS_A", Properties: map[string]any{"w": 2}},
	}); err != nil {
		t.Fatalf("UpsertRelationships: %v", err)
	}
	if s.EdgeCount() != 3 {
		t.Fatalf("edge count = %d after re-upsert", s.EdgeCount())
	}
}

func TestMemoryStoreEdgeNeedsEndpoints(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)

	res, err := s.UpsertRelationships(ctx, []domain.EdgeSpec{
		{SourceID: "a", TargetID: "missing", RelType: "IS_A"},
		{SourceID: "missing", TargetID: "b", RelType: "IS_A"},
	})
	if err != nil {
		t.Fatalf("UpsertRelationships: %v", err)
	}
	if res.Written != 0 || len(res.Failed) != 0 {
		t.Fatalf("edges to absent endpoints should merge nothing: %+v", res)
	}
	if s.EdgeCount() != 3 {
		t.Fatalf("edge count = %d", s.EdgeCount())
	}

	res, err = s.UpsertRelationships(ctx, []domain.EdgeSpec{
		{SourceID: "", TargetID: "b", RelType: "IS_A"},
	})
	if err != nil {
		t.Fatalf("UpsertRelationships: %v", err)
	}
	if len(res.Failed) != 1 {
		t.Fatalf("missing endpoint id should fail the write: %+v", res)
	}
}

func TestMemoryStoreSortedAccessors(t *testing.T) {
	s := seedStore(t)

	ids := s.NodeIDs()
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("NodeIDs not sorted: %v", ids)
		}
	}

	out := s.Outgoing("a")
	if len(out) != 2 {
		t.Fatalf("outgoing(a) = %d edges", len(out))
	}
	if out[0].RelType != "FINDING_SITE" || out[1].RelType != "IS_A" {
		t.Fatalf("outgoing not sorted by relation type: %+v", out)
	}

	in := s.Incoming("c")
	if len(in) != 2 {
		t.Fatalf("incoming(c) = %d edges", len(in))
	}
	if in[0].RelType != "FINDING_SITE" || in[1].RelType != "IS_A" {
		t.Fatalf("incoming not sorted: %+v", in)
	}

	if got := s.Degree("a"); got != 2 {
		t.Fatalf("degree(a) = %d", got)
	}
	if got := s.Degree("c"); got != 2 {
		t.Fatalf("degree(c) = %d", got)
	}
	if got := s.Degree("b"); got != 2 {
		t.Fatalf("degree(b) = %d", got)
	}
}

func TestMemoryStoreClear(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if s.NodeCount() != 0 || s.EdgeCount() != 0 {
		t.Fatalf("store not empty after clear: %d nodes, %d edges", s.NodeCount(), s.EdgeCount())
	}
}

func TestMemoryStoreRunQueryUnsupported(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.RunQuery(context.Background(), "MATCH (n) RETURN n", nil)
	if !errors.Is(err, pkgerrors.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
