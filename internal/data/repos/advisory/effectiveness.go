package advisory

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/brightpathcs/brightpath-backend/internal/domain"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/dbctx"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/logger"
)

type EffectivenessRepo interface {
	GetByMappingID(dbc dbctx.Context, mappingID uuid.UUID) (*types.MappingEffectiveness, error)
	GetByMappingIDs(dbc dbctx.Context, mappingIDs []uuid.UUID) ([]*types.MappingEffectiveness, error)
	Upsert(dbc dbctx.Context, row *types.MappingEffectiveness) error
	// IncrementTotalRecommendations bumps the generation counter for every
	// mapping that fed a persisted recommendation.
	IncrementTotalRecommendations(dbc dbctx.Context, mappingIDs []uuid.UUID) error
}

type effectivenessRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEffectivenessRepo(db *gorm.DB, baseLog *logger.Logger) EffectivenessRepo {
	return &effectivenessRepo{db: db, log: baseLog.With("repo", "EffectivenessRepo")}
}

func (r *effectivenessRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *effectivenessRepo) GetByMappingID(dbc dbctx.Context, mappingID uuid.UUID) (*types.MappingEffectiveness, error) {
	if mappingID == uuid.Nil {
		return nil, nil
	}
	var row types.MappingEffectiveness
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("mapping_id = ?", mappingID).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *effectivenessRepo) GetByMappingIDs(dbc dbctx.Context, mappingIDs []uuid.UUID) ([]*types.MappingEffectiveness, error) {
	out := []*types.MappingEffectiveness{}
	if len(mappingIDs) == 0 {
		return out, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("mapping_id IN ?", mappingIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *effectivenessRepo) Upsert(dbc dbctx.Context, row *types.MappingEffectiveness) error {
	if row == nil || row.MappingID == uuid.Nil {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "mapping_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_recommendations", "accept_count", "dismiss_count",
				"rating_count", "thumbs_up_count", "thumbs_down_count",
				"total_rating_sum", "accept_rate", "average_rating",
				"effectiveness_score", "confidence_level",
				"last_feedback_at", "updated_at",
			}),
		}).
		Create(row).Error
}

func (r *effectivenessRepo) IncrementTotalRecommendations(dbc dbctx.Context, mappingIDs []uuid.UUID) error {
	if len(mappingIDs) == 0 {
		return nil
	}
	for _, id := range mappingIDs {
		row := &types.MappingEffectiveness{MappingID: id, TotalRecommendations: 1}
		if err := r.dbx(dbc).WithContext(dbc.Ctx).
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "mapping_id"}},
				DoUpdates: clause.Assignments(map[string]any{
					"total_recommendations": gorm.Expr("mapping_effectiveness.total_recommendations + 1"),
				}),
			}).
			Create(row).Error; err != nil {
			return err
		}
	}
	return nil
}
