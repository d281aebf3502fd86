package db

import (
	types "github.com/brightpathcs/brightpath-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// =========================
		// Assessment catalog
		// =========================
		&types.Dimension{},
		&types.CustomerAssessment{},
		&types.UseCase{},
		&types.CustomerUseCase{},
		&types.DimensionUseCaseMapping{},

		// =========================
		// Recommendations + feedback ledger
		// =========================
		&types.RoadmapRecommendation{},
		&types.RecommendationFeedback{},
		&types.MappingEffectiveness{},
		&types.WeightAdjustmentHistory{},
		&types.LearningConfigEntry{},

		// =========================
		// Cross-framework aggregation
		// =========================
		&types.AggregatedRecommendation{},
	)
}
