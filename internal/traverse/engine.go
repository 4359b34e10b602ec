package traverse

import (
	"fmt"
	"sort"

	"github.com/yungbote/kgforge-backend/internal/data/graph"
	"github.com/yungbote/kgforge-backend/internal/domain"
	pkgerrors "github.com/yungbote/kgforge-backend/internal/pkg/errors"
	"github.com/yungbote/kgforge-backend/internal/platform/logger"
)

const defaultCostCeiling = 500_000

// BoundExceededError means a bounded enumeration hit the configured cost
// ceiling before completing. It fails fast rather than degrading into an
// unbounded search on a dense graph.
type BoundExceededError struct {
	StartID string
	MaxHops int
	Ceiling int
}

func (e *BoundExceededError) Error() string {
	return fmt.Sprintf("traversal from %s with max %d hops exceeded cost ceiling %d", e.StartID, e.MaxHops, e.Ceiling)
}

// Constraint matches nodes that have an outgoing RelType edge whose target
// is identified by id or display term.
type Constraint struct {
	RelType    string
	TargetID   string
	TargetTerm string
}

// Engine runs read-only operations over a borrowed graph snapshot. The
// snapshot owns node/edge storage; the engine never mutates it.
type Engine struct {
	snap          *graph.MemoryStore
	log           *logger.Logger
	costCeiling   int
	bidirectional bool
}

type Option func(*Engine)

// WithCostCeiling bounds the number of edge expansions a single
// PathsWithin call may perform.
func WithCostCeiling(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.costCeiling = n
		}
	}
}

// WithBidirectional also expands incoming relationships during path
// enumeration, for domains where the query's purpose is non-directional.
func WithBidirectional(b bool) Option {
	return func(e *Engine) { e.bidirectional = b }
}

func New(snap *graph.MemoryStore, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		snap:        snap,
		log:         log.With("component", "TraversalEngine"),
		costCeiling: defaultCostCeiling,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Snapshot exposes the borrowed snapshot for callers that need stable node
// iteration (e.g. candidate discovery).
func (e *Engine) Snapshot() *graph.MemoryStore { return e.snap }

// Neighbors returns the direct outgoing relationships of a node, optionally
// filtered to relTypes, in stable (relation type, neighbor id) order.
func (e *Engine) Neighbors(nodeID string, relTypes []string) []domain.Neighbor {
	allowed := allowSet(relTypes)
	var out []domain.Neighbor
	for _, edge := range e.snap.Outgoing(nodeID) {
		if allowed != nil && !allowed[edge.RelType] {
			continue
		}
		node, ok := e.snap.Node(edge.TargetID)
		if !ok {
			continue
		}
		out = append(out, domain.Neighbor{RelType: edge.RelType, Node: node})
	}
	return out
}

// PathsWithin enumerates all simple paths from startID whose hop count lies
// in [minHops, maxHops], pruned by the optional relation-type allow-list.
// Paths visiting the same ordered node-id sequence collapse to one result.
// Bounding maxHops is the caller's primary cost defense; the engine's cost
// ceiling is the backstop.
func (e *Engine) PathsWithin(startID string, minHops, maxHops int, relTypes []string) ([]domain.Path, error) {
	if minHops < 1 || maxHops < minHops {
		return nil, fmt.Errorf("paths within: bad hop bounds [%d,%d]: %w", minHops, maxHops, pkgerrors.ErrInvalidArgument)
	}
	start, ok := e.snap.Node(startID)
	if !ok {
		return nil, fmt.Errorf("paths within: start node %s: %w", startID, pkgerrors.ErrNotFound)
	}

	allowed := allowSet(relTypes)
	seen := map[string]bool{}
	visited := map[string]bool{startID: true}
	var paths []domain.Path
	var steps []domain.PathStep
	cost := 0

	var walk func(current string) error
	walk = func(current string) error {
		if len(steps) >= maxHops {
			return nil
		}
		for _, edge := range e.expansions(current, allowed) {
			cost++
			if cost > e.costCeiling {
				return &BoundExceededError{StartID: startID, MaxHops: maxHops, Ceiling: e.costCeiling}
			}
			next := edge.TargetID
			if next == current {
				next = edge.SourceID
			}
			if visited[next] {
				continue
			}
			node, ok := e.snap.Node(next)
			if !ok {
				continue
			}
			steps = append(steps, domain.PathStep{RelType: edge.RelType, Node: node})
			if len(steps) >= minHops {
				p := domain.Path{Start: start, Steps: append([]domain.PathStep(nil), steps...)}
				if sig := p.Signature(); !seen[sig] {
					seen[sig] = true
					paths = append(paths, p)
				}
			}
			visited[next] = true
			if err := walk(next); err != nil {
				return err
			}
			visited[next] = false
			steps = steps[:len(steps)-1]
		}
		return nil
	}

	if err := walk(startID); err != nil {
		return nil, err
	}

	sort.Slice(paths, func(i, j int) bool { return paths[i].Signature() < paths[j].Signature() })
	return paths, nil
}

// ShortestPath finds one shortest path between two nodes within maxHops, or
// nil when none exists. BFS over the same expansion rule as PathsWithin.
func (e *Engine) ShortestPath(startID, endID string, maxHops int) (*domain.Path, error) {
	start, ok := e.snap.Node(startID)
	if !ok {
		return nil, fmt.Errorf("shortest path: start node %s: %w", startID, pkgerrors.ErrNotFound)
	}
	if _, ok := e.snap.Node(endID); !ok {
		return nil, fmt.Errorf("shortest path: end node %s: %w", endID, pkgerrors.ErrNotFound)
	}
	if startID == endID {
		return &domain.Path{Start: start}, nil
	}

	type queued struct {
		id    string
		steps []domain.PathStep
	}
	visited := map[string]bool{startID: true}
	queue := []queued{{id: startID}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if len(cur.steps) >= maxHops {
			continue
		}
		for _, edge := range e.expansions(cur.id, nil) {
			next := edge.TargetID
			if next == cur.id {
				next = edge.SourceID
			}
			if visited[next] {
				continue
			}
			node, ok := e.snap.Node(next)
			if !ok {
				continue
			}
			steps := append(append([]domain.PathStep(nil), cur.steps...), domain.PathStep{RelType: edge.RelType, Node: node})
			if next == endID {
				return &domain.Path{Start: start, Steps: steps}, nil
			}
			visited[next] = true
			queue = append(queue, queued{id: next, steps: steps})
		}
	}
	return nil, nil
}

// NodesMatching returns the nodes satisfying every constraint at once.
// Each constraint resolves to its own candidate set first; the result is
// the intersection, sorted by node id.
func (e *Engine) NodesMatching(constraints []Constraint) []domain.Node {
	if len(constraints) == 0 {
		return nil
	}
	var result map[string]bool
	for _, c := range constraints {
		candidates := e.constraintCandidates(c)
		if result == nil {
			result = candidates
			continue
		}
		for id := range result {
			if !candidates[id] {
				delete(result, id)
			}
		}
		if len(result) == 0 {
			return nil
		}
	}

	ids := make([]string, 0, len(result))
	for id := range result {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	nodes := make([]domain.Node, 0, len(ids))
	for _, id := range ids {
		if node, ok := e.snap.Node(id); ok {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

func (e *Engine) constraintCandidates(c Constraint) map[string]bool {
	out := map[string]bool{}
	for _, id := range e.snap.NodeIDs() {
		for _, edge := range e.snap.Outgoing(id) {
			if c.RelType != "" && edge.RelType != c.RelType {
				continue
			}
			if c.TargetID != "" && edge.TargetID != c.TargetID {
				continue
			}
			if c.TargetTerm != "" {
				target, ok := e.snap.Node(edge.TargetID)
				if !ok || target.Term() != c.TargetTerm {
					continue
				}
			}
			out[id] = true
			break
		}
	}
	return out
}

// MostConnected ranks nodes by total degree, ties broken by node id.
func (e *Engine) MostConnected(limit int) []domain.NodeDegree {
	ids := e.snap.NodeIDs()
	ranked := make([]domain.NodeDegree, 0, len(ids))
	for _, id := range ids {
		node, ok := e.snap.Node(id)
		if !ok {
			continue
		}
		ranked = append(ranked, domain.NodeDegree{Node: node, Degree: e.snap.Degree(id)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Degree != ranked[j].Degree {
			return ranked[i].Degree > ranked[j].Degree
		}
		return ranked[i].Node.ID < ranked[j].Node.ID
	})
	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked
}

func (e *Engine) expansions(nodeID string, allowed map[string]bool) []domain.Edge {
	edges := e.snap.Outgoing(nodeID)
	if allowed != nil {
		edges = filterEdges(edges, allowed)
	}
	if e.bidirectional {
		incoming := e.snap.Incoming(nodeID)
		if allowed != nil {
			incoming = filterEdges(incoming, allowed)
		}
		edges = append(edges, incoming...)
	}
	return edges
}

func allowSet(relTypes []string) map[string]bool {
	if len(relTypes) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(relTypes))
	for _, r := range relTypes {
		allowed[r] = true
	}
	return allowed
}

func filterEdges(edges []domain.Edge, allowed map[string]bool) []domain.Edge {
	out := edges[:0:0]
	for _, e := range edges {
		if allowed[e.RelType] {
			out = append(out, e)
		}
	}
	return out
}
