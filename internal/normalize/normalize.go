package normalize

import (
	"fmt"

	"github.com/yungbote/kgforge-backend/internal/domain"
	"github.com/yungbote/kgforge-backend/internal/mapping"
)

// MalformedRecordError marks a record that lacks a required identifier
// field. The caller decides whether to skip-and-continue or abort.
type MalformedRecordError struct {
	RecordType string
	Field      string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %s record: missing %s", e.RecordType, e.Field)
}

// DroppedRelation reports an edge discarded because its raw relation term
// is outside the table's closed vocabulary.
type DroppedRelation struct {
	RecordType string
	RawTerm    string
}

// Normalize maps one raw record through the table into canonical node and
// edge specs. Pure transform: no I/O, no store access.
//
// Record types absent from the table are skipped (nil, nil, nil, nil) so a
// keyword- or type-filtered subset of a source imports cleanly.
func Normalize(rec domain.RawRecord, table *mapping.Table) ([]domain.NodeSpec, []domain.EdgeSpec, []DroppedRelation, error) {
	rule, ok := table.Records[rec.RecordType]
	if !ok {
		return nil, nil, nil, nil
	}

	var nodes []domain.NodeSpec
	var nodeID string

	if rule.EmitsNode() {
		nodeID = rec.Str(rule.IDField)
		if nodeID == "" {
			return nil, nil, nil, &MalformedRecordError{RecordType: rec.RecordType, Field: rule.IDField}
		}
		props := make(map[string]any, len(rule.PropertyFields)+1)
		for _, f := range rule.PropertyFields {
			if v, ok := rec.Fields[f]; ok && v != nil {
				props[f] = v
			}
		}
		if rule.TermField != "" {
			if term := rec.Str(rule.TermField); term != "" {
				props["term"] = term
			}
		}
		labels := make([]string, len(rule.NodeLabels))
		copy(labels, rule.NodeLabels)
		nodes = append(nodes, domain.NodeSpec{ID: nodeID, Labels: labels, Properties: props})
	}

	var edges []domain.EdgeSpec
	var dropped []DroppedRelation

	for _, er := range rule.Edges {
		sourceID := nodeID
		if er.SourceField != "" {
			sourceID = rec.Str(er.SourceField)
		}
		if sourceID == "" {
			return nil, nil, nil, &MalformedRecordError{RecordType: rec.RecordType, Field: er.SourceField}
		}
		targetID := rec.Str(er.TargetField)
		if targetID == "" {
			// A node record without the optional foreign field just has no
			// edge to emit; a pure relationship record is malformed.
			if rule.EmitsNode() {
				continue
			}
			return nil, nil, nil, &MalformedRecordError{RecordType: rec.RecordType, Field: er.TargetField}
		}

		relType := er.RelType
		props := map[string]any{}
		if er.TypeField != "" {
			raw := rec.Str(er.TypeField)
			if raw == "" {
				return nil, nil, nil, &MalformedRecordError{RecordType: rec.RecordType, Field: er.TypeField}
			}
			resolved, ok := table.ResolveRelation(raw)
			if !ok {
				dropped = append(dropped, DroppedRelation{RecordType: rec.RecordType, RawTerm: raw})
				continue
			}
			relType = resolved
			props["source_type_id"] = raw
		}

		edges = append(edges, domain.EdgeSpec{
			SourceID:   sourceID,
			TargetID:   targetID,
			RelType:    relType,
			Properties: props,
		})
	}

	return nodes, edges, dropped, nil
}
