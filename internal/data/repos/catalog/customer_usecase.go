package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/brightpathcs/brightpath-backend/internal/domain"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/dbctx"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/logger"
)

type CustomerUseCaseRepo interface {
	ListByCustomer(dbc dbctx.Context, customerID uuid.UUID) ([]*types.CustomerUseCase, error)
	Upsert(dbc dbctx.Context, row *types.CustomerUseCase) error
}

type customerUseCaseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCustomerUseCaseRepo(db *gorm.DB, baseLog *logger.Logger) CustomerUseCaseRepo {
	return &customerUseCaseRepo{db: db, log: baseLog.With("repo", "CustomerUseCaseRepo")}
}

func (r *customerUseCaseRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *customerUseCaseRepo) ListByCustomer(dbc dbctx.Context, customerID uuid.UUID) ([]*types.CustomerUseCase, error) {
	out := []*types.CustomerUseCase{}
	if customerID == uuid.Nil {
		return out, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("customer_id = ?", customerID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *customerUseCaseRepo) Upsert(dbc dbctx.Context, row *types.CustomerUseCase) error {
	if row == nil || row.CustomerID == uuid.Nil || row.UseCaseID == uuid.Nil {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Where("customer_id = ? AND use_case_id = ?", row.CustomerID, row.UseCaseID).
		Assign(map[string]any{"status": row.Status}).
		FirstOrCreate(row).Error
}
