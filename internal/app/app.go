package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/kgforge-backend/internal/data/graph"
	"github.com/yungbote/kgforge-backend/internal/data/repos/runs"
	"github.com/yungbote/kgforge-backend/internal/db"
	"github.com/yungbote/kgforge-backend/internal/platform/logger"
	"github.com/yungbote/kgforge-backend/internal/platform/neo4jdb"
)

type App struct {
	Log   *logger.Logger
	Cfg   Config
	Neo4j *neo4jdb.Client
	Store *graph.Neo4jStore

	// Nil when Postgres bookkeeping is disabled or unreachable.
	DB   *gorm.DB
	Runs runs.RunRepo
}

func New(ctx context.Context) (*App, error) {
	cfg := LoadConfig()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	client, err := neo4jdb.New(cfg.Neo4j, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init neo4j: %w", err)
	}

	store := graph.NewNeo4jStore(client, log, cfg.BatchSize)

	a := &App{
		Log:   log,
		Cfg:   cfg,
		Neo4j: client,
		Store: store,
	}

	if cfg.PostgresEnabled {
		pg, err := db.NewPostgresService(log)
		if err != nil {
			log.Warn("postgres bookkeeping unavailable, continuing without it", "error", err)
		} else if err := pg.AutoMigrateAll(); err != nil {
			log.Warn("postgres automigrate failed, continuing without bookkeeping", "error", err)
		} else {
			a.DB = pg.DB()
			a.Runs = runs.NewRunRepo(a.DB, log)
		}
	}

	return a, nil
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.Neo4j != nil {
		if err := a.Neo4j.Close(ctx); err != nil {
			a.Log.Warn("closing neo4j", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
