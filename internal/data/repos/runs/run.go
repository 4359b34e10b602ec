package runs

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/kgforge-backend/internal/domain"
	"github.com/yungbote/kgforge-backend/internal/pkg/dbctx"
	"github.com/yungbote/kgforge-backend/internal/platform/logger"
)

type RunRepo interface {
	CreateImportRun(dbc dbctx.Context, run *types.ImportRun) (*types.ImportRun, error)
	UpdateImportRun(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	LatestImportRun(dbc dbctx.Context, domain string) (*types.ImportRun, error)
	CreateDatasetRun(dbc dbctx.Context, run *types.DatasetRun) (*types.DatasetRun, error)
	UpdateDatasetRun(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	LatestDatasetRun(dbc dbctx.Context, domain string) (*types.DatasetRun, error)
}

type runRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRunRepo(db *gorm.DB, baseLog *logger.Logger) RunRepo {
	return &runRepo{
		db:  db,
		log: baseLog.With("repo", "RunRepo"),
	}
}

func (r *runRepo) CreateImportRun(dbc dbctx.Context, run *types.ImportRun) (*types.ImportRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if run == nil {
		return nil, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *runRepo) UpdateImportRun(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.ImportRun{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *runRepo) LatestImportRun(dbc dbctx.Context, domain string) (*types.ImportRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var run types.ImportRun
	q := transaction.WithContext(dbc.Ctx).Model(&types.ImportRun{})
	if domain != "" {
		q = q.Where("domain = ?", domain)
	}
	if err := q.Order("created_at DESC").Limit(1).Find(&run).Error; err != nil {
		return nil, err
	}
	if run.ID == uuid.Nil {
		return nil, nil
	}
	return &run, nil
}

func (r *runRepo) CreateDatasetRun(dbc dbctx.Context, run *types.DatasetRun) (*types.DatasetRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if run == nil {
		return nil, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *runRepo) UpdateDatasetRun(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.DatasetRun{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *runRepo) LatestDatasetRun(dbc dbctx.Context, domain string) (*types.DatasetRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var run types.DatasetRun
	q := transaction.WithContext(dbc.Ctx).Model(&types.DatasetRun{})
	if domain != "" {
		q = q.Where("domain = ?", domain)
	}
	if err := q.Order("created_at DESC").Limit(1).Find(&run).Error; err != nil {
		return nil, err
	}
	if run.ID == uuid.Nil {
		return nil, nil
	}
	return &run, nil
}
