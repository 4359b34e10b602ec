package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/kgforge-backend/internal/app"
	"github.com/yungbote/kgforge-backend/internal/data/graph"
	types "github.com/yungbote/kgforge-backend/internal/domain"
	"github.com/yungbote/kgforge-backend/internal/pkg/dbctx"
	"github.com/yungbote/kgforge-backend/internal/qagen"
	"github.com/yungbote/kgforge-backend/internal/traverse"
)

func main() {
	var (
		domainName = flag.String("domain", "snomed", "template library to use (snomed, stix)")
		easy       = flag.Int("easy", 300, "easy question target")
		medium     = flag.Int("medium", 400, "medium question target")
		hard       = flag.Int("hard", 300, "hard question target")
		seed       = flag.Int64("seed", 0, "sampling seed (0 uses QA_SEED)")
		outDir     = flag.String("out", "", "output directory (default QA_OUTPUT_DIR)")
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

	lib, err := qagen.LibraryForDomain(*domainName)
	if err != nil {
		log.Error("load template library", "error", err)
		os.Exit(1)
	}

	if *seed == 0 {
		*seed = application.Cfg.Seed
	}
	if *outDir == "" {
		*outDir = application.Cfg.OutputDir
	}
	targets := types.GenerationTargets{Easy: *easy, Medium: *medium, Hard: *hard}

	snap, err := graph.LoadSnapshot(ctx, application.Store, log)
	if err != nil {
		log.Error("load graph snapshot", "error", err)
		os.Exit(1)
	}
	log.Info("snapshot loaded", "nodes", snap.NodeCount(), "edges", snap.EdgeCount())

	engine := traverse.New(snap, log, traverse.WithCostCeiling(int(application.Cfg.CostCeiling)))
	gen := qagen.NewGenerator(engine, lib, log, *seed, qagen.WithMaxDepth(application.Cfg.MaxDepth))

	started := time.Now().UTC()
	run := beginRun(ctx, application, lib.Domain, *seed, targets, *outDir, started)

	ds, err := gen.Generate(ctx, targets)
	if err == nil {
		err = qagen.WriteDataset(ds, *outDir, log)
	}
	finishRun(ctx, application, run, ds, err)
	if err != nil {
		log.Error("generation failed", "error", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(ds.Stats, "", "  ")
	fmt.Println(string(out))
}

func beginRun(ctx context.Context, a *app.App, domain string, seed int64, targets types.GenerationTargets, outDir string, started time.Time) *types.DatasetRun {
	if a.Runs == nil {
		return nil
	}
	run := &types.DatasetRun{
		Domain:       domain,
		Status:       "running",
		Seed:         seed,
		TargetEasy:   targets.Easy,
		TargetMedium: targets.Medium,
		TargetHard:   targets.Hard,
		OutputDir:    outDir,
		Stats:        datatypes.JSON([]byte("{}")),
		StartedAt:    started,
	}
	created, err := a.Runs.CreateDatasetRun(dbctx.Context{Ctx: ctx}, run)
	if err != nil {
		a.Log.Warn("record dataset run", "error", err)
		return nil
	}
	return created
}

func finishRun(ctx context.Context, a *app.App, run *types.DatasetRun, ds *types.Dataset, runErr error) {
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
	if ds != nil {
		if raw, err := json.Marshal(ds.Stats); err == nil {
			updates["stats"] = datatypes.JSON(raw)
		}
		updates["achieved_easy"] = ds.Stats.ByDifficulty[types.DifficultyEasy].Achieved
		updates["achieved_medium"] = ds.Stats.ByDifficulty[types.DifficultyMedium].Achieved
		updates["achieved_hard"] = ds.Stats.ByDifficulty[types.DifficultyHard].Achieved
		updates["total"] = ds.Stats.Total
	}
	if err := a.Runs.UpdateDatasetRun(dbctx.Context{Ctx: ctx}, run.ID, updates); err != nil {
		a.Log.Warn("finalize dataset run", "error", err)
	}
}
