package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/brightpathcs/brightpath-backend/internal/domain"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/dbctx"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/logger"
)

type UseCaseRepo interface {
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.UseCase, error)
	Create(dbc dbctx.Context, rows []*types.UseCase) error
}

type useCaseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUseCaseRepo(db *gorm.DB, baseLog *logger.Logger) UseCaseRepo {
	return &useCaseRepo{db: db, log: baseLog.With("repo", "UseCaseRepo")}
}

func (r *useCaseRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *useCaseRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.UseCase, error) {
	out := []*types.UseCase{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *useCaseRepo) Create(dbc dbctx.Context, rows []*types.UseCase) error {
	if len(rows) == 0 {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).Create(&rows).Error
}
