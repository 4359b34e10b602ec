package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/kgforge-backend/internal/app"
	types "github.com/yungbote/kgforge-backend/internal/domain"
	"github.com/yungbote/kgforge-backend/internal/importer"
	"github.com/yungbote/kgforge-backend/internal/mapping"
	"github.com/yungbote/kgforge-backend/internal/pkg/dbctx"
)

func main() {
	var (
		domainName  = flag.String("domain", "snomed", "built-in mapping table to use (snomed, stix)")
		mappingPath = flag.String("mapping", "", "path to a YAML mapping table (overrides -domain)")
		inputPath   = flag.String("input", "", "JSONL file of raw records, or - for stdin")
		clear       = flag.Bool("clear", false, "wipe the graph before importing")
		abort       = flag.Bool("abort-on-malformed", false, "stop at the first malformed record")
		keywords    = flag.String("keywords", "", "comma-separated terms; only node records matching one are imported")
	)
	flag.Parse()

	ctx := context.Background()

	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close(ctx)
	log := application.Log

	table, err := loadTable(*mappingPath, *domainName)
	if err != nil {
		log.Error("load mapping table", "error", err)
		os.Exit(1)
	}

	in := os.Stdin
	if *inputPath != "" && *inputPath != "-" {
		f, err := os.Open(*inputPath)
		if err != nil {
			log.Error("open input", "path", *inputPath, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	started := time.Now().UTC()
	run := beginRun(ctx, application, table.Domain, *clear, started)

	im := importer.New(application.Store, log)
	var kws []string
	for _, kw := range strings.Split(*keywords, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			kws = append(kws, kw)
		}
	}

	report, err := im.Run(ctx, importer.NewJSONLSource(in), table, importer.Options{
		Clear:            *clear,
		AbortOnMalformed: *abort,
		Keywords:         kws,
		FlushSize:        application.Cfg.FlushSize,
	})
	finishRun(ctx, application, run, report, err)
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}

	if !report.Clean() {
		log.Warn("import completed with recoverable issues",
			"malformed", len(report.Malformed),
			"dropped_relations", len(report.DroppedRelations),
			"failed_writes", len(report.FailedWrites),
		)
	}

	if stats, err := application.Store.Stats(ctx); err != nil {
		log.Warn("collect graph stats", "error", err)
	} else {
		log.Info("graph totals", "nodes", stats.Nodes, "relationships", stats.Relationships)
	}

	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))
}

func loadTable(path, domain string) (*mapping.Table, error) {
	if path != "" {
		return mapping.LoadFile(path)
	}
	return mapping.ForDomain(domain)
}

func beginRun(ctx context.Context, a *app.App, domain string, cleared bool, started time.Time) *types.ImportRun {
	if a.Runs == nil {
		return nil
	}
	run := &types.ImportRun{
		Domain:    domain,
		Status:    "running",
		Cleared:   cleared,
		Report:    datatypes.JSON([]byte("{}")),
		StartedAt: started,
	}
	created, err := a.Runs.CreateImportRun(dbctx.Context{Ctx: ctx}, run)
	if err != nil {
		a.Log.Warn("record import run", "error", err)
		return nil
	}
	return created
}

func finishRun(ctx context.Context, a *app.App, run *types.ImportRun, report *types.ImportReport, runErr error) {
	if a.Runs == nil || run == nil {
		return
	}
	finished := time.Now().UTC()
	updates := map[string]interface{}{
		"status":      "succeeded",
		"finished_at": &finished,
	}
	if runErr != nil {
		updates["status"] = "failed"
		updates["error"] = runErr.Error()
	}
	if report != nil {
		if raw, err := json.Marshal(report); err == nil {
			updates["report"] = datatypes.JSON(raw)
		}
		updates["records_seen"] = report.RecordsSeen
		updates["nodes_upserted"] = report.NodesUpserted
		updates["edges_upserted"] = report.EdgesUpserted
		updates["skipped_unknown"] = report.SkippedUnknown
		updates["malformed_count"] = len(report.Malformed)
		updates["dropped_relations"] = len(report.DroppedRelations)
		updates["failed_writes"] = len(report.FailedWrites)
	}
	if err := a.Runs.UpdateImportRun(dbctx.Context{Ctx: ctx}, run.ID, updates); err != nil {
		a.Log.Warn("finalize import run", "error", err)
	}
}
