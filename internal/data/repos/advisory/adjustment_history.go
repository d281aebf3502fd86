package advisory

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/brightpathcs/brightpath-backend/internal/domain"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/dbctx"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/logger"
)

// AdjustmentHistoryRepo is append-only: rows are never updated or deleted.
type AdjustmentHistoryRepo interface {
	Create(dbc dbctx.Context, row *types.WeightAdjustmentHistory) error
	ListByMapping(dbc dbctx.Context, mappingID uuid.UUID, limit int) ([]*types.WeightAdjustmentHistory, error)
	ListRecent(dbc dbctx.Context, limit int) ([]*types.WeightAdjustmentHistory, error)
}

type adjustmentHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAdjustmentHistoryRepo(db *gorm.DB, baseLog *logger.Logger) AdjustmentHistoryRepo {
	return &adjustmentHistoryRepo{db: db, log: baseLog.With("repo", "AdjustmentHistoryRepo")}
}

func (r *adjustmentHistoryRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *adjustmentHistoryRepo) Create(dbc dbctx.Context, row *types.WeightAdjustmentHistory) error {
	if row == nil {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).Create(row).Error
}

func (r *adjustmentHistoryRepo) ListByMapping(dbc dbctx.Context, mappingID uuid.UUID, limit int) ([]*types.WeightAdjustmentHistory, error) {
	out := []*types.WeightAdjustmentHistory{}
	if mappingID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 20
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("mapping_id = ?", mappingID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *adjustmentHistoryRepo) ListRecent(dbc dbctx.Context, limit int) ([]*types.WeightAdjustmentHistory, error) {
	out := []*types.WeightAdjustmentHistory{}
	if limit <= 0 {
		limit = 50
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
