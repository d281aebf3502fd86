package catalog

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/brightpathcs/brightpath-backend/internal/domain"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/dbctx"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/logger"
)

type AssessmentRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CustomerAssessment, error)
	// GetLatestCompleted returns the most recent completed assessment for a
	// customer in one framework, or nil when none exists.
	GetLatestCompleted(dbc dbctx.Context, customerID uuid.UUID, assessmentType types.AssessmentType) (*types.CustomerAssessment, error)
	// ListLatestCompletedByCustomer returns the latest completed assessment
	// per framework for a customer.
	ListLatestCompletedByCustomer(dbc dbctx.Context, customerID uuid.UUID) ([]*types.CustomerAssessment, error)
	Create(dbc dbctx.Context, row *types.CustomerAssessment) error
}

type assessmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentRepo {
	return &assessmentRepo{db: db, log: baseLog.With("repo", "AssessmentRepo")}
}

func (r *assessmentRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *assessmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CustomerAssessment, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.CustomerAssessment
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *assessmentRepo) GetLatestCompleted(dbc dbctx.Context, customerID uuid.UUID, assessmentType types.AssessmentType) (*types.CustomerAssessment, error) {
	if customerID == uuid.Nil {
		return nil, nil
	}
	var row types.CustomerAssessment
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("customer_id = ? AND assessment_type = ? AND status = ?", customerID, assessmentType, types.AssessmentStatusCompleted).
		Order("completed_at DESC NULLS LAST, created_at DESC").
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *assessmentRepo) ListLatestCompletedByCustomer(dbc dbctx.Context, customerID uuid.UUID) ([]*types.CustomerAssessment, error) {
	out := []*types.CustomerAssessment{}
	if customerID == uuid.Nil {
		return out, nil
	}
	for _, at := range types.AllAssessmentTypes {
		row, err := r.GetLatestCompleted(dbc, customerID, at)
		if err != nil {
			return nil, err
		}
		if row != nil {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *assessmentRepo) Create(dbc dbctx.Context, row *types.CustomerAssessment) error {
	if row == nil {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).Create(row).Error
}
