package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yungbote/kgforge-backend/internal/data/graph"
	"github.com/yungbote/kgforge-backend/internal/domain"
	"github.com/yungbote/kgforge-backend/internal/mapping"
	"github.com/yungbote/kgforge-backend/internal/normalize"
	"github.com/yungbote/kgforge-backend/internal/platform/logger"
)

const defaultFlushSize = 5000

// Options controls one build run.
type Options struct {
	// Clear wipes the store before importing. Never implied.
	Clear bool
	// AbortOnMalformed stops the run at the first malformed record instead
	// of skip-and-continue.
	AbortOnMalformed bool
	// Keywords restricts node records to those whose display term contains
	// at least one keyword (case-insensitive). Relationship records pass
	// through; edges to filtered-out endpoints merge nothing downstream.
	Keywords []string
	// FlushSize is how many specs accumulate before a store write.
	FlushSize int
}

type schemaEnsurer interface {
	EnsureSchema(ctx context.Context, labels []string)
}

// Importer drives the build phase: raw records through the normalizer into
// the store. Nodes are written before relationships so edge merges find
// their endpoints.
type Importer struct {
	store graph.Store
	log   *logger.Logger
}

func New(store graph.Store, log *logger.Logger) *Importer {
	return &Importer{store: store, log: log.With("component", "Importer")}
}

func (im *Importer) Run(ctx context.Context, src RecordSource, table *mapping.Table, opts Options) (*domain.ImportReport, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	flushSize := opts.FlushSize
	if flushSize <= 0 {
		flushSize = defaultFlushSize
	}

	report := &domain.ImportReport{
		Domain:           table.Domain,
		DroppedRelations: map[string]int{},
	}

	if opts.Clear {
		if err := im.store.Clear(ctx); err != nil {
			return report, err
		}
	}
	if se, ok := im.store.(schemaEnsurer); ok {
		se.EnsureSchema(ctx, table.NodeLabels())
	}

	var pendingNodes []domain.NodeSpec
	var pendingEdges []domain.EdgeSpec

	flushNodes := func() error {
		if len(pendingNodes) == 0 {
			return nil
		}
		res, err := im.store.UpsertNodes(ctx, pendingNodes)
		if res != nil {
			report.NodesUpserted += res.Written
			for _, f := range res.Failed {
				report.FailedWrites = append(report.FailedWrites, f.String())
			}
		}
		pendingNodes = pendingNodes[:0]
		return err
	}

	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return report, fmt.Errorf("importer: read record: %w", err)
		}
		report.RecordsSeen++

		nodes, edges, dropped, err := normalize.Normalize(*rec, table)
		var malformed *normalize.MalformedRecordError
		if errors.As(err, &malformed) {
			report.Malformed = append(report.Malformed, malformed.Error())
			if opts.AbortOnMalformed {
				return report, err
			}
			continue
		}
		if err != nil {
			return report, err
		}
		if len(nodes) == 0 && len(edges) == 0 && len(dropped) == 0 {
			report.SkippedUnknown++
			continue
		}
		if len(opts.Keywords) > 0 && len(nodes) > 0 && !matchesKeywords(nodes, opts.Keywords) {
			report.FilteredOut++
			continue
		}
		for _, d := range dropped {
			report.DroppedRelations[d.RawTerm]++
			im.log.Warn("dropping relation with unknown type",
				"record_type", d.RecordType,
				"raw_term", d.RawTerm,
			)
		}

		pendingNodes = append(pendingNodes, nodes...)
		pendingEdges = append(pendingEdges, edges...)
		if len(pendingNodes) >= flushSize {
			if err := flushNodes(); err != nil {
				return report, err
			}
		}
	}

	if err := flushNodes(); err != nil {
		return report, err
	}

	// Second phase: all endpoints exist, write relationships.
	for start := 0; start < len(pendingEdges); start += flushSize {
		end := start + flushSize
		if end > len(pendingEdges) {
			end = len(pendingEdges)
		}
		res, err := im.store.UpsertRelationships(ctx, pendingEdges[start:end])
		if res != nil {
			report.EdgesUpserted += res.Written
			for _, f := range res.Failed {
				report.FailedWrites = append(report.FailedWrites, f.String())
			}
		}
		if err != nil {
			return report, err
		}
	}

	im.log.Info("import finished",
		"domain", report.Domain,
		"records", report.RecordsSeen,
		"nodes", report.NodesUpserted,
		"edges", report.EdgesUpserted,
		"skipped_unknown_type", report.SkippedUnknown,
		"filtered_out", report.FilteredOut,
		"malformed", len(report.Malformed),
		"dropped_relations", len(report.DroppedRelations),
		"failed_writes", len(report.FailedWrites),
	)
	return report, nil
}

func matchesKeywords(nodes []domain.NodeSpec, keywords []string) bool {
	for _, n := range nodes {
		term := n.ID
		for _, key := range []string{"term", "name"} {
			if v, ok := n.Properties[key].(string); ok && v != "" {
				term = v
				break
			}
		}
		term = strings.ToLower(term)
		for _, kw := range keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" && strings.Contains(term, kw) {
				return true
			}
		}
	}
	return false
}
