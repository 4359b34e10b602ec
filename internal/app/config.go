package app

import (
	"github.com/yungbote/kgforge-backend/internal/platform/envutil"
	"github.com/yungbote/kgforge-backend/internal/platform/neo4jdb"
)

type Config struct {
	LogMode string

	Neo4j neo4jdb.Config

	// Postgres run bookkeeping is optional; the graph store is not.
	PostgresEnabled bool

	BatchSize   int
	FlushSize   int
	CostCeiling int64
	MaxDepth    int
	Seed        int64
	OutputDir   string
}

func LoadConfig() Config {
	return Config{
		LogMode:         envutil.Str("LOG_MODE", "development"),
		Neo4j:           neo4jdb.ConfigFromEnv(),
		PostgresEnabled: envutil.Bool("POSTGRES_ENABLED", false),
		BatchSize:       envutil.Int("GRAPH_BATCH_SIZE", 1000),
		FlushSize:       envutil.Int("IMPORT_FLUSH_SIZE", 5000),
		CostCeiling:     envutil.Int64("TRAVERSE_COST_CEILING", 500_000),
		MaxDepth:        envutil.Int("QA_MAX_DEPTH", 5),
		Seed:            envutil.Int64("QA_SEED", 42),
		OutputDir:       envutil.Str("QA_OUTPUT_DIR", "out"),
	}
}
