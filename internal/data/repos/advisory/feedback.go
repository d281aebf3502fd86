package advisory

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/brightpathcs/brightpath-backend/internal/domain"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/dbctx"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/logger"
)

type FeedbackRepo interface {
	Create(dbc dbctx.Context, row *types.RecommendationFeedback) error
	// ListRecentByUseCase returns the newest feedback events for a use case,
	// newest first. Feedback reaches a mapping through its use case, so this
	// deliberately pools events across every dimension the use case serves.
	ListRecentByUseCase(dbc dbctx.Context, useCaseID uuid.UUID, limit int) ([]*types.RecommendationFeedback, error)
	CountByUseCase(dbc dbctx.Context, useCaseID uuid.UUID) (int64, error)
}

type feedbackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) FeedbackRepo {
	return &feedbackRepo{db: db, log: baseLog.With("repo", "FeedbackRepo")}
}

func (r *feedbackRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *feedbackRepo) Create(dbc dbctx.Context, row *types.RecommendationFeedback) error {
	if row == nil {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).Create(row).Error
}

func (r *feedbackRepo) ListRecentByUseCase(dbc dbctx.Context, useCaseID uuid.UUID, limit int) ([]*types.RecommendationFeedback, error) {
	out := []*types.RecommendationFeedback{}
	if useCaseID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 50
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("use_case_id = ?", useCaseID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *feedbackRepo) CountByUseCase(dbc dbctx.Context, useCaseID uuid.UUID) (int64, error) {
	if useCaseID == uuid.Nil {
		return 0, nil
	}
	var n int64
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.RecommendationFeedback{}).
		Where("use_case_id = ?", useCaseID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
