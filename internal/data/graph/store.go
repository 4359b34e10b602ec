package graph

import (
	"context"
	"fmt"

	"github.com/yungbote/kgforge-backend/internal/domain"
)

// Store is the thin, swappable property-graph boundary. Upserts are
// merge-by-key; Clear is destructive and only runs on explicit request.
type Store interface {
	UpsertNodes(ctx context.Context, nodes []domain.NodeSpec) (*WriteResult, error)
	UpsertRelationships(ctx context.Context, edges []domain.EdgeSpec) (*WriteResult, error)
	Clear(ctx context.Context) error
	RunQuery(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}

// WriteResult reports one upsert call. Records that failed even after
// per-record retry land in Failed; they are reported, never silently lost.
type WriteResult struct {
	Written int
	Failed  []FailedWrite
}

func (r *WriteResult) merge(other *WriteResult) {
	if other == nil {
		return
	}
	r.Written += other.Written
	r.Failed = append(r.Failed, other.Failed...)
}

// FailedWrite is one record that could not be acknowledged.
type FailedWrite struct {
	Key string
	Err error
}

func (f FailedWrite) String() string {
	return fmt.Sprintf("%s: %v", f.Key, f.Err)
}

// Stats summarizes the stored graph.
type Stats struct {
	Nodes             int64            `json:"nodes"`
	Relationships     int64            `json:"relationships"`
	NodeLabels        map[string]int64 `json:"node_labels,omitempty"`
	RelationshipTypes map[string]int64 `json:"relationship_types,omitempty"`
}
