package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/brightpathcs/brightpath-backend/internal/domain"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/dbctx"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/logger"
)

type MappingRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.DimensionUseCaseMapping, error)
	// ListByTypeAndDimensions returns mappings for the given weak dimensions
	// ordered by admin priority ascending, with the use case preloaded.
	ListByTypeAndDimensions(dbc dbctx.Context, assessmentType types.AssessmentType, dimensionNames []string) ([]*types.DimensionUseCaseMapping, error)
	ListByUseCaseID(dbc dbctx.Context, useCaseID uuid.UUID) ([]*types.DimensionUseCaseMapping, error)
	// ListLearningEnabled returns mappings eligible for a learning cycle,
	// optionally filtered to an explicit id set.
	ListLearningEnabled(dbc dbctx.Context, ids []uuid.UUID) ([]*types.DimensionUseCaseMapping, error)
	// UpdateWeight applies a new impact weight and stamps last_weight_update.
	UpdateWeight(dbc dbctx.Context, id uuid.UUID, weight float64, at time.Time) error
	Create(dbc dbctx.Context, rows []*types.DimensionUseCaseMapping) error
}

type mappingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMappingRepo(db *gorm.DB, baseLog *logger.Logger) MappingRepo {
	return &mappingRepo{db: db, log: baseLog.With("repo", "MappingRepo")}
}

func (r *mappingRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *mappingRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.DimensionUseCaseMapping, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.DimensionUseCaseMapping
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

func (r *mappingRepo) ListByTypeAndDimensions(dbc dbctx.Context, assessmentType types.AssessmentType, dimensionNames []string) ([]*types.DimensionUseCaseMapping, error) {
	out := []*types.DimensionUseCaseMapping{}
	if len(dimensionNames) == 0 {
		return out, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Preload("UseCase").
		Where("assessment_type = ? AND dimension_name IN ?", assessmentType, dimensionNames).
		Order("priority ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mappingRepo) ListByUseCaseID(dbc dbctx.Context, useCaseID uuid.UUID) ([]*types.DimensionUseCaseMapping, error) {
	out := []*types.DimensionUseCaseMapping{}
	if useCaseID == uuid.Nil {
		return out, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("use_case_id = ?", useCaseID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mappingRepo) ListLearningEnabled(dbc dbctx.Context, ids []uuid.UUID) ([]*types.DimensionUseCaseMapping, error) {
	out := []*types.DimensionUseCaseMapping{}
	q := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("is_learning_enabled = ?", true)
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	if err := q.Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mappingRepo) UpdateWeight(dbc dbctx.Context, id uuid.UUID, weight float64, at time.Time) error {
	if id == uuid.Nil {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.DimensionUseCaseMapping{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"impact_weight":      weight,
			"last_weight_update": at,
			"updated_at":         at,
		}).Error
}

func (r *mappingRepo) Create(dbc dbctx.Context, rows []*types.DimensionUseCaseMapping) error {
	if len(rows) == 0 {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).Create(&rows).Error
}
