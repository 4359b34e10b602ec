package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ImportRun is the bookkeeping row for one build-phase run.
type ImportRun struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Domain           string         `gorm:"column:domain;not null;index" json:"domain"`
	Status           string         `gorm:"column:status;not null;index" json:"status"`
	Cleared          bool           `gorm:"column:cleared;not null;default:false" json:"cleared"`
	RecordsSeen      int            `gorm:"column:records_seen;not null;default:0" json:"records_seen"`
	NodesUpserted    int            `gorm:"column:nodes_upserted;not null;default:0" json:"nodes_upserted"`
	EdgesUpserted    int            `gorm:"column:edges_upserted;not null;default:0" json:"edges_upserted"`
	SkippedUnknown   int            `gorm:"column:skipped_unknown;not null;default:0" json:"skipped_unknown"`
	MalformedCount   int            `gorm:"column:malformed_count;not null;default:0" json:"malformed_count"`
	DroppedRelations int            `gorm:"column:dropped_relations;not null;default:0" json:"dropped_relations"`
	FailedWrites     int            `gorm:"column:failed_writes;not null;default:0" json:"failed_writes"`
	Error            string         `gorm:"column:error" json:"error,omitempty"`
	Report           datatypes.JSON `gorm:"column:report;type:jsonb" json:"report"`
	StartedAt        time.Time      `gorm:"column:started_at;not null" json:"started_at"`
	FinishedAt       *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt        time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ImportRun) TableName() string { return "import_run" }

// DatasetRun is the bookkeeping row for one QA generation run.
type DatasetRun struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Domain         string         `gorm:"column:domain;not null;index" json:"domain"`
	Status         string         `gorm:"column:status;not null;index" json:"status"`
	Seed           int64          `gorm:"column:seed;not null;default:0" json:"seed"`
	TargetEasy     int            `gorm:"column:target_easy;not null;default:0" json:"target_easy"`
	TargetMedium   int            `gorm:"column:target_medium;not null;default:0" json:"target_medium"`
	TargetHard     int            `gorm:"column:target_hard;not null;default:0" json:"target_hard"`
	AchievedEasy   int            `gorm:"column:achieved_easy;not null;default:0" json:"achieved_easy"`
	AchievedMedium int            `gorm:"column:achieved_medium;not null;default:0" json:"achieved_medium"`
	AchievedHard   int            `gorm:"column:achieved_hard;not null;default:0" json:"achieved_hard"`
	Total          int            `gorm:"column:total;not null;default:0" json:"total"`
	OutputDir      string         `gorm:"column:output_dir" json:"output_dir,omitempty"`
	Error          string         `gorm:"column:error" json:"error,omitempty"`
	Stats          datatypes.JSON `gorm:"column:stats;type:jsonb" json:"stats"`
	StartedAt      time.Time      `gorm:"column:started_at;not null" json:"started_at"`
	FinishedAt     *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (DatasetRun) TableName() string { return "dataset_run" }
