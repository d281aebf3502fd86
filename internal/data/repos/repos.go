package repos

import (
	"gorm.io/gorm"

	"github.com/brightpathcs/brightpath-backend/internal/data/repos/advisory"
	"github.com/brightpathcs/brightpath-backend/internal/data/repos/catalog"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/logger"
)

type AssessmentRepo = catalog.AssessmentRepo
type UseCaseRepo = catalog.UseCaseRepo
type CustomerUseCaseRepo = catalog.CustomerUseCaseRepo
type MappingRepo = catalog.MappingRepo

type RecommendationRepo = advisory.RecommendationRepo
type FeedbackRepo = advisory.FeedbackRepo
type EffectivenessRepo = advisory.EffectivenessRepo
type AdjustmentHistoryRepo = advisory.AdjustmentHistoryRepo
type LearningConfigRepo = advisory.LearningConfigRepo
type AggregatedRepo = advisory.AggregatedRepo

func NewAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentRepo {
	return catalog.NewAssessmentRepo(db, baseLog)
}
func NewUseCaseRepo(db *gorm.DB, baseLog *logger.Logger) UseCaseRepo {
	return catalog.NewUseCaseRepo(db, baseLog)
}
func NewCustomerUseCaseRepo(db *gorm.DB, baseLog *logger.Logger) CustomerUseCaseRepo {
	return catalog.NewCustomerUseCaseRepo(db, baseLog)
}
func NewMappingRepo(db *gorm.DB, baseLog *logger.Logger) MappingRepo {
	return catalog.NewMappingRepo(db, baseLog)
}

func NewRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationRepo {
	return advisory.NewRecommendationRepo(db, baseLog)
}
func NewFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) FeedbackRepo {
	return advisory.NewFeedbackRepo(db, baseLog)
}
func NewEffectivenessRepo(db *gorm.DB, baseLog *logger.Logger) EffectivenessRepo {
	return advisory.NewEffectivenessRepo(db, baseLog)
}
func NewAdjustmentHistoryRepo(db *gorm.DB, baseLog *logger.Logger) AdjustmentHistoryRepo {
	return advisory.NewAdjustmentHistoryRepo(db, baseLog)
}
func NewLearningConfigRepo(db *gorm.DB, baseLog *logger.Logger) LearningConfigRepo {
	return advisory.NewLearningConfigRepo(db, baseLog)
}
func NewAggregatedRepo(db *gorm.DB, baseLog *logger.Logger) AggregatedRepo {
	return advisory.NewAggregatedRepo(db, baseLog)
}
