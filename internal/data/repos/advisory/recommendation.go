package advisory

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/brightpathcs/brightpath-backend/internal/domain"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/dbctx"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/logger"
)

type RecommendationRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.RoadmapRecommendation, error)
	ListByCustomerAssessment(dbc dbctx.Context, customerID, assessmentID uuid.UUID) ([]*types.RoadmapRecommendation, error)
	// ListForAggregation returns non-accepted recommendations across every
	// framework, optionally excluding dismissed rows.
	ListForAggregation(dbc dbctx.Context, customerID uuid.UUID, includeDismissed bool) ([]*types.RoadmapRecommendation, error)
	CreateBatch(dbc dbctx.Context, rows []*types.RoadmapRecommendation) error
	// DeleteNonAccepted soft deletes every recommendation for the customer
	// and assessment that an advisor has not accepted.
	DeleteNonAccepted(dbc dbctx.Context, customerID, assessmentID uuid.UUID) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
}

type recommendationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationRepo {
	return &recommendationRepo{db: db, log: baseLog.With("repo", "RecommendationRepo")}
}

func (r *recommendationRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *recommendationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.RoadmapRecommendation, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.RoadmapRecommendation
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Preload("UseCase").
		Where("id = ?", id).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *recommendationRepo) ListByCustomerAssessment(dbc dbctx.Context, customerID, assessmentID uuid.UUID) ([]*types.RoadmapRecommendation, error) {
	out := []*types.RoadmapRecommendation{}
	if customerID == uuid.Nil || assessmentID == uuid.Nil {
		return out, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Preload("UseCase").
		Where("customer_id = ? AND assessment_id = ?", customerID, assessmentID).
		Order("priority_score DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *recommendationRepo) ListForAggregation(dbc dbctx.Context, customerID uuid.UUID, includeDismissed bool) ([]*types.RoadmapRecommendation, error) {
	out := []*types.RoadmapRecommendation{}
	if customerID == uuid.Nil {
		return out, nil
	}
	q := r.dbx(dbc).WithContext(dbc.Ctx).
		Preload("UseCase").
		Where("customer_id = ? AND is_accepted = ?", customerID, false)
	if !includeDismissed {
		q = q.Where("is_dismissed = ?", false)
	}
	if err := q.Order("priority_score DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *recommendationRepo) CreateBatch(dbc dbctx.Context, rows []*types.RoadmapRecommendation) error {
	if len(rows) == 0 {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).Create(&rows).Error
}

func (r *recommendationRepo) DeleteNonAccepted(dbc dbctx.Context, customerID, assessmentID uuid.UUID) error {
	if customerID == uuid.Nil || assessmentID == uuid.Nil {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Where("customer_id = ? AND assessment_id = ? AND is_accepted = ?", customerID, assessmentID, false).
		Delete(&types.RoadmapRecommendation{}).Error
}

func (r *recommendationRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.RoadmapRecommendation{}).
		Where("id = ?", id).
		Updates(updates).Error
}
