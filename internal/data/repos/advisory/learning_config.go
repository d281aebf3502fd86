package advisory

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/brightpathcs/brightpath-backend/internal/domain"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/dbctx"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/logger"
)

type LearningConfigRepo interface {
	GetAll(dbc dbctx.Context) ([]*types.LearningConfigEntry, error)
	// SeedDefaults inserts entries that do not exist yet. Existing values are
	// left untouched so admin edits survive restarts.
	SeedDefaults(dbc dbctx.Context, rows []*types.LearningConfigEntry) error
	Set(dbc dbctx.Context, key, value string) error
}

type learningConfigRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningConfigRepo(db *gorm.DB, baseLog *logger.Logger) LearningConfigRepo {
	return &learningConfigRepo{db: db, log: baseLog.With("repo", "LearningConfigRepo")}
}

func (r *learningConfigRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *learningConfigRepo) GetAll(dbc dbctx.Context) ([]*types.LearningConfigEntry, error) {
	out := []*types.LearningConfigEntry{}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Order("key ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *learningConfigRepo) SeedDefaults(dbc dbctx.Context, rows []*types.LearningConfigEntry) error {
	if len(rows) == 0 {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).
		Create(&rows).Error
}

func (r *learningConfigRepo) Set(dbc dbctx.Context, key, value string) error {
	if key == "" {
		return nil
	}
	row := &types.LearningConfigEntry{Key: key, Value: value}
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(row).Error
}
