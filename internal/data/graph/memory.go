package graph

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/yungbote/kgforge-backend/internal/domain"
	pkgerrors "github.com/yungbote/kgforge-backend/internal/pkg/errors"
)

// MemoryStore is an in-memory adjacency structure implementing Store. It
// backs unit tests and serves as the read-only snapshot the traversal
// engine borrows.
type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[string]*domain.Node
	out   map[string][]*domain.Edge
	in    map[string][]*domain.Edge
	edges map[string]*domain.Edge
	dirty bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes: map[string]*domain.Node{},
		out:   map[string][]*domain.Edge{},
		in:    map[string][]*domain.Edge{},
		edges: map[string]*domain.Edge{},
	}
}

func (s *MemoryStore) UpsertNodes(_ context.Context, nodes []domain.NodeSpec) (*WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := &WriteResult{}
	for _, spec := range nodes {
		if spec.ID == "" {
			out.Failed = append(out.Failed, FailedWrite{Key: "", Err: fmt.Errorf("node spec missing id")})
			continue
		}
		existing, ok := s.nodes[spec.ID]
		if !ok {
			labels := make([]string, len(spec.Labels))
			copy(labels, spec.Labels)
			s.nodes[spec.ID] = &domain.Node{
				ID:         spec.ID,
				Labels:     labels,
				Properties: cloneProps(spec.Properties),
			}
			out.Written++
			continue
		}
		// Merge-by-key: update properties, never duplicate.
		if existing.Properties == nil {
			existing.Properties = map[string]any{}
		}
		for k, v := range spec.Properties {
			existing.Properties[k] = v
		}
		if len(spec.Labels) > 0 {
			labels := make([]string, len(spec.Labels))
			copy(labels, spec.Labels)
			existing.Labels = labels
		}
		out.Written++
	}
	return out, nil
}

func (s *MemoryStore) UpsertRelationships(_ context.Context, edges []domain.EdgeSpec) (*WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := &WriteResult{}
	for _, spec := range edges {
		if spec.SourceID == "" || spec.TargetID == "" {
			out.Failed = append(out.Failed, FailedWrite{Key: spec.Key(), Err: fmt.Errorf("edge spec missing endpoint")})
			continue
		}
		// Match semantics of the Cypher MATCH..MERGE: edges to absent nodes
		// merge nothing.
		if _, ok := s.nodes[spec.SourceID]; !ok {
			continue
		}
		if _, ok := s.nodes[spec.TargetID]; !ok {
			continue
		}
		key := spec.Key()
		if existing, ok := s.edges[key]; ok {
			for k, v := range spec.Properties {
				if existing.Properties == nil {
					existing.Properties = map[string]any{}
				}
				existing.Properties[k] = v
			}
			out.Written++
			continue
		}
		e := &domain.Edge{
			SourceID:   spec.SourceID,
			TargetID:   spec.TargetID,
			RelType:    spec.RelType,
			Properties: cloneProps(spec.Properties),
		}
		s.edges[key] = e
		s.out[e.SourceID] = append(s.out[e.SourceID], e)
		s.in[e.TargetID] = append(s.in[e.TargetID], e)
		s.dirty = true
		out.Written++
	}
	return out, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = map[string]*domain.Node{}
	s.out = map[string][]*domain.Edge{}
	s.in = map[string][]*domain.Edge{}
	s.edges = map[string]*domain.Edge{}
	s.dirty = false
	return nil
}

// RunQuery is not implemented for the in-memory store: tests and traversal
// read the adjacency accessors directly.
func (s *MemoryStore) RunQuery(_ context.Context, _ string, _ map[string]any) ([]map[string]any, error) {
	return nil, fmt.Errorf("memory store: run query: %w", pkgerrors.ErrUnsupported)
}

func (s *MemoryStore) Node(id string) (domain.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return domain.Node{}, false
	}
	return *n, true
}

// NodeIDs returns all node ids in lexical order, the stable iteration base
// for reproducible traversal and sampling.
func (s *MemoryStore) NodeIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Outgoing returns the outgoing edges of id sorted by (relation type,
// target id).
func (s *MemoryStore) Outgoing(id string) []domain.Edge {
	s.sortIfDirty()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyEdges(s.out[id])
}

// Incoming returns the incoming edges of id sorted by (relation type,
// source id).
func (s *MemoryStore) Incoming(id string) []domain.Edge {
	s.sortIfDirty()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyEdges(s.in[id])
}

func (s *MemoryStore) Degree(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.out[id]) + len(s.in[id])
}

func (s *MemoryStore) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

func (s *MemoryStore) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}

func (s *MemoryStore) sortIfDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return
	}
	for _, edges := range s.out {
		sort.Slice(edges, func(i, j int) bool {
			if edges[i].RelType != edges[j].RelType {
				return edges[i].RelType < edges[j].RelType
			}
			return edges[i].TargetID < edges[j].TargetID
		})
	}
	for _, edges := range s.in {
		sort.Slice(edges, func(i, j int) bool {
			if edges[i].RelType != edges[j].RelType {
				return edges[i].RelType < edges[j].RelType
			}
			return edges[i].SourceID < edges[j].SourceID
		})
	}
	s.dirty = false
}

func cloneProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

func copyEdges(edges []*domain.Edge) []domain.Edge {
	out := make([]domain.Edge, 0, len(edges))
	for _, e := range edges {
		out = append(out, *e)
	}
	return out
}
