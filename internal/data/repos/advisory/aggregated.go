package advisory

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/brightpathcs/brightpath-backend/internal/domain"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/dbctx"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/logger"
)

type AggregatedRepo interface {
	ListByCustomer(dbc dbctx.Context, customerID uuid.UUID, includeAccepted bool) ([]*types.AggregatedRecommendation, error)
	CreateBatch(dbc dbctx.Context, rows []*types.AggregatedRecommendation) error
	// DeleteNonAccepted clears previously generated rows ahead of an
	// aggregation rerun. Accepted rows are never cleared.
	DeleteNonAccepted(dbc dbctx.Context, customerID uuid.UUID) error
}

type aggregatedRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAggregatedRepo(db *gorm.DB, baseLog *logger.Logger) AggregatedRepo {
	return &aggregatedRepo{db: db, log: baseLog.With("repo", "AggregatedRepo")}
}

func (r *aggregatedRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *aggregatedRepo) ListByCustomer(dbc dbctx.Context, customerID uuid.UUID, includeAccepted bool) ([]*types.AggregatedRecommendation, error) {
	out := []*types.AggregatedRecommendation{}
	if customerID == uuid.Nil {
		return out, nil
	}
	q := r.dbx(dbc).WithContext(dbc.Ctx).
		Preload("UseCase").
		Where("customer_id = ?", customerID)
	if !includeAccepted {
		q = q.Where("is_accepted = ?", false)
	}
	if err := q.Order("combined_priority_score DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *aggregatedRepo) CreateBatch(dbc dbctx.Context, rows []*types.AggregatedRecommendation) error {
	if len(rows) == 0 {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).Create(&rows).Error
}

func (r *aggregatedRepo) DeleteNonAccepted(dbc dbctx.Context, customerID uuid.UUID) error {
	if customerID == uuid.Nil {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Where("customer_id = ? AND is_accepted = ?", customerID, false).
		Delete(&types.AggregatedRecommendation{}).Error
}
