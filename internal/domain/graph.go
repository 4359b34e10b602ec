package domain

import (
	"sort"
	"strings"
)

// RawRecord is one pre-parsed record from a source-specific reader
// (a tabular release row or a structured bundle object).
type RawRecord struct {
	RecordType string         `json:"record_type"`
	Fields     map[string]any `json:"fields"`
}

func (r RawRecord) Str(field string) string {
	v, ok := r.Fields[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// NodeSpec is a canonical node write: merge-by-key on ID.
type NodeSpec struct {
	ID         string         `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties,omitempty"`
}

// PrimaryLabel is the first (domain class) label.
func (n NodeSpec) PrimaryLabel() string {
	if len(n.Labels) == 0 {
		return ""
	}
	return n.Labels[0]
}

// LabelKey is a stable key for grouping specs that share a label set.
func (n NodeSpec) LabelKey() string {
	labels := make([]string, len(n.Labels))
	copy(labels, n.Labels)
	sort.Strings(labels)
	return strings.Join(labels, ":")
}

// EdgeSpec is a canonical relationship write: merge-by-key on
// (source, relation type, target).
type EdgeSpec struct {
	SourceID   string         `json:"source_id"`
	TargetID   string         `json:"target_id"`
	RelType    string         `json:"relation_type"`
	Properties map[string]any `json:"properties,omitempty"`
}

func (e EdgeSpec) Key() string {
	return e.SourceID + "|" + e.RelType + "|" + e.TargetID
}

// Node is a stored node as read back from the graph.
type Node struct {
	ID         string         `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Term is the node's display term for question/answer text.
// Falls back to the id when the source carried no readable name.
func (n Node) Term() string {
	for _, key := range []string{"term", "name"} {
		if v, ok := n.Properties[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return n.ID
}

// Edge is a stored relationship as read back from the graph.
type Edge struct {
	SourceID   string         `json:"source_id"`
	TargetID   string         `json:"target_id"`
	RelType    string         `json:"relation_type"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Neighbor is one direct relationship from a start node.
type Neighbor struct {
	RelType string `json:"relation_type"`
	Node    Node   `json:"node"`
}

// NodeDegree ranks a node by its total (in + out) degree.
type NodeDegree struct {
	Node   Node `json:"node"`
	Degree int  `json:"degree"`
}

// PathStep is one hop: the relationship taken and the node arrived at.
type PathStep struct {
	RelType string `json:"relation_type"`
	Node    Node   `json:"node"`
}

// Path is an ordered walk from Start through Steps. Hop count equals
// len(Steps).
type Path struct {
	Start Node       `json:"start"`
	Steps []PathStep `json:"steps"`
}

func (p Path) Hops() int { return len(p.Steps) }

// NodeIDs returns the ordered node-id sequence including the start.
func (p Path) NodeIDs() []string {
	ids := make([]string, 0, len(p.Steps)+1)
	ids = append(ids, p.Start.ID)
	for _, s := range p.Steps {
		ids = append(ids, s.Node.ID)
	}
	return ids
}

func (p Path) RelTypes() []string {
	rels := make([]string, 0, len(p.Steps))
	for _, s := range p.Steps {
		rels = append(rels, s.RelType)
	}
	return rels
}

// Signature identifies a path by its ordered node-id sequence. Two paths
// with the same signature are equivalent for deduplication.
func (p Path) Signature() string {
	return strings.Join(p.NodeIDs(), "->")
}

// End returns the terminal node of the path.
func (p Path) End() Node {
	if len(p.Steps) == 0 {
		return p.Start
	}
	return p.Steps[len(p.Steps)-1].Node
}
