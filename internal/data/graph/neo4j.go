package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/kgforge-backend/internal/domain"
	"github.com/yungbote/kgforge-backend/internal/mapping"
	"github.com/yungbote/kgforge-backend/internal/platform/logger"
	"github.com/yungbote/kgforge-backend/internal/platform/neo4jdb"
)

const defaultBatchSize = 1000

// Neo4jStore writes through UNWIND+MERGE batches. Labels and relationship
// types cannot be bound as parameters in Cypher, so specs are grouped by
// label set / relation type and the identifiers are validated before being
// interpolated.
type Neo4jStore struct {
	client    *neo4jdb.Client
	log       *logger.Logger
	batchSize int
}

func NewNeo4jStore(client *neo4jdb.Client, log *logger.Logger, batchSize int) *Neo4jStore {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Neo4jStore{
		client:    client,
		log:       log.With("store", "Neo4jStore"),
		batchSize: batchSize,
	}
}

// EnsureSchema creates id-uniqueness constraints for the given labels.
// Best-effort: restricted users may not be allowed to create schema, so
// failures are logged and the import continues.
func (s *Neo4jStore) EnsureSchema(ctx context.Context, labels []string) {
	session := s.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.client.Database,
	})
	defer session.Close(ctx)

	for _, label := range labels {
		if !mapping.ValidIdentifier(label) {
			s.log.Warn("skipping schema for invalid label", "label", label)
			continue
		}
		q := fmt.Sprintf(
			`CREATE CONSTRAINT %s_id_unique IF NOT EXISTS FOR (n:%s) REQUIRE n.id IS UNIQUE`,
			strings.ToLower(label), label,
		)
		if res, err := session.Run(ctx, q, nil); err != nil {
			s.log.Warn("schema init failed (continuing)", "label", label, "error", err)
		} else {
			_, _ = res.Consume(ctx)
		}
	}
}

func (s *Neo4jStore) UpsertNodes(ctx context.Context, nodes []domain.NodeSpec) (*WriteResult, error) {
	out := &WriteResult{}
	if len(nodes) == 0 {
		return out, nil
	}

	byLabels := make(map[string][]domain.NodeSpec)
	for _, n := range nodes {
		if n.ID == "" {
			out.Failed = append(out.Failed, FailedWrite{Key: "", Err: fmt.Errorf("node spec missing id")})
			continue
		}
		byLabels[n.LabelKey()] = append(byLabels[n.LabelKey()], n)
	}

	keys := sortedKeys(byLabels)
	for _, labelKey := range keys {
		group := byLabels[labelKey]
		for _, l := range strings.Split(labelKey, ":") {
			if !mapping.ValidIdentifier(l) {
				return out, fmt.Errorf("neo4j store: invalid node label %q", l)
			}
		}
		q := fmt.Sprintf(`
UNWIND $nodes AS n
MERGE (c:%s {id: n.id})
SET c += n.props
`, labelKey)

		params := func(batch []domain.NodeSpec) map[string]any {
			rows := make([]map[string]any, 0, len(batch))
			for _, n := range batch {
				rows = append(rows, map[string]any{"id": n.ID, "props": n.Properties})
			}
			return map[string]any{"nodes": rows}
		}
		keyOf := func(n domain.NodeSpec) string { return n.ID }

		res, err := runBatched(ctx, s, group, q, params, keyOf)
		if err != nil {
			return out, err
		}
		out.merge(res)
	}
	return out, nil
}

func (s *Neo4jStore) UpsertRelationships(ctx context.Context, edges []domain.EdgeSpec) (*WriteResult, error) {
	out := &WriteResult{}
	if len(edges) == 0 {
		return out, nil
	}

	byType := make(map[string][]domain.EdgeSpec)
	for _, e := range edges {
		if e.SourceID == "" || e.TargetID == "" {
			out.Failed = append(out.Failed, FailedWrite{Key: e.Key(), Err: fmt.Errorf("edge spec missing endpoint")})
			continue
		}
		byType[e.RelType] = append(byType[e.RelType], e)
	}

	keys := sortedKeys(byType)
	for _, relType := range keys {
		group := byType[relType]
		if !mapping.ValidIdentifier(relType) {
			return out, fmt.Errorf("neo4j store: invalid relationship type %q", relType)
		}
		q := fmt.Sprintf(`
UNWIND $rels AS r
MATCH (a {id: r.source_id})
MATCH (b {id: r.target_id})
MERGE (a)-[e:%s]->(b)
SET e += r.props
`, relType)

		params := func(batch []domain.EdgeSpec) map[string]any {
			rows := make([]map[string]any, 0, len(batch))
			for _, e := range batch {
				rows = append(rows, map[string]any{
					"source_id": e.SourceID,
					"target_id": e.TargetID,
					"props":     e.Properties,
				})
			}
			return map[string]any{"rels": rows}
		}
		keyOf := func(e domain.EdgeSpec) string { return e.Key() }

		res, err := runBatched(ctx, s, group, q, params, keyOf)
		if err != nil {
			return out, err
		}
		out.merge(res)
	}
	return out, nil
}

// runBatched executes query over specs in batchSize chunks. A failed chunk
// is retried one record at a time so a single bad record cannot sink its
// whole batch; records that still fail are collected, not dropped.
func runBatched[T any](
	ctx context.Context,
	s *Neo4jStore,
	specs []T,
	query string,
	params func([]T) map[string]any,
	keyOf func(T) string,
) (*WriteResult, error) {
	out := &WriteResult{}
	session := s.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.client.Database,
	})
	defer session.Close(ctx)

	run := func(batch []T) error {
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			res, err := tx.Run(ctx, query, params(batch))
			if err != nil {
				return nil, err
			}
			return res.Consume(ctx)
		})
		return err
	}

	for start := 0; start < len(specs); start += s.batchSize {
		end := start + s.batchSize
		if end > len(specs) {
			end = len(specs)
		}
		batch := specs[start:end]
		if err := run(batch); err == nil {
			out.Written += len(batch)
			continue
		} else if ctx.Err() != nil {
			return out, fmt.Errorf("neo4j store: batch write: %w", err)
		}

		s.log.Warn("batch write failed, retrying per record", "batch_size", len(batch))
		for _, spec := range batch {
			if err := run([]T{spec}); err != nil {
				out.Failed = append(out.Failed, FailedWrite{Key: keyOf(spec), Err: err})
				continue
			}
			out.Written++
		}
	}
	return out, nil
}

// Clear removes every node and relationship. Destructive; callers invoke it
// only on an explicit reset request, never implicitly before an import.
func (s *Neo4jStore) Clear(ctx context.Context) error {
	s.log.Warn("clearing graph database")
	_, err := s.RunQuery(ctx, `MATCH (n) DETACH DELETE n`, nil)
	if err != nil {
		return fmt.Errorf("neo4j store: clear: %w", err)
	}
	return nil
}

func (s *Neo4jStore) RunQuery(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	session := s.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.client.Database,
	})
	defer session.Close(ctx)

	res, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("neo4j store: run query: %w", err)
	}
	var rows []map[string]any
	for res.Next(ctx) {
		rows = append(rows, res.Record().AsMap())
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("neo4j store: consume query: %w", err)
	}
	return rows, nil
}

// Stats reports node/relationship counts plus per-label and per-type
// distributions.
func (s *Neo4jStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		NodeLabels:        map[string]int64{},
		RelationshipTypes: map[string]int64{},
	}

	rows, err := s.RunQuery(ctx, `MATCH (n) RETURN count(n) AS count`, nil)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		stats.Nodes, _ = rows[0]["count"].(int64)
	}

	rows, err = s.RunQuery(ctx, `MATCH ()-[r]->() RETURN count(r) AS count`, nil)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		stats.Relationships, _ = rows[0]["count"].(int64)
	}

	rows, err = s.RunQuery(ctx, `MATCH (n) RETURN labels(n)[0] AS label, count(n) AS count`, nil)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if label, ok := row["label"].(string); ok {
			stats.NodeLabels[label], _ = row["count"].(int64)
		}
	}

	rows, err = s.RunQuery(ctx, `MATCH ()-[r]->() RETURN type(r) AS type, count(r) AS count`, nil)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if relType, ok := row["type"].(string); ok {
			stats.RelationshipTypes[relType], _ = row["count"].(int64)
		}
	}
	return stats, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
