package testutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/brightpathcs/brightpath-backend/internal/domain"
)

func SeedUseCase(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, linkedFeatures []string) *types.UseCase {
	tb.Helper()
	uc := &types.UseCase{
		ID:   uuid.New(),
		Name: name,
	}
	if len(linkedFeatures) > 0 {
		raw, err := json.Marshal(linkedFeatures)
		if err != nil {
			tb.Fatalf("marshal linked features: %v", err)
		}
		uc.LinkedFeatureRefs = datatypes.JSON(raw)
	}
	if err := tx.WithContext(ctx).Create(uc).Error; err != nil {
		tb.Fatalf("seed use case: %v", err)
	}
	return uc
}

func SeedMapping(tb testing.TB, ctx context.Context, tx *gorm.DB, at types.AssessmentType, dimension string, useCaseID uuid.UUID, impactWeight float64, priority int) *types.DimensionUseCaseMapping {
	tb.Helper()
	m := &types.DimensionUseCaseMapping{
		ID:                uuid.New(),
		AssessmentType:    at,
		DimensionName:     dimension,
		UseCaseID:         useCaseID,
		ImpactWeight:      impactWeight,
		ThresholdScore:    3.5,
		Priority:          priority,
		IsLearningEnabled: true,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed mapping: %v", err)
	}
	return m
}

func SeedCompletedAssessment(tb testing.TB, ctx context.Context, tx *gorm.DB, customerID uuid.UUID, at types.AssessmentType, scores map[string]float64) *types.CustomerAssessment {
	tb.Helper()
	raw, err := json.Marshal(scores)
	if err != nil {
		tb.Fatalf("marshal scores: %v", err)
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	overall := 0.0
	if len(scores) > 0 {
		overall = sum / float64(len(scores))
	}
	now := time.Now().UTC()
	a := &types.CustomerAssessment{
		ID:              uuid.New(),
		CustomerID:      customerID,
		AssessmentType:  at,
		Status:          types.AssessmentStatusCompleted,
		DimensionScores: datatypes.JSON(raw),
		OverallScore:    overall,
		CompletedAt:     &now,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed assessment: %v", err)
	}
	return a
}

func SeedRecommendation(tb testing.TB, ctx context.Context, tx *gorm.DB, customerID, assessmentID, useCaseID uuid.UUID, at types.AssessmentType, priorityScore float64) *types.RoadmapRecommendation {
	tb.Helper()
	r := &types.RoadmapRecommendation{
		ID:                   uuid.New(),
		CustomerID:           customerID,
		AssessmentID:         assessmentID,
		UseCaseID:            useCaseID,
		AssessmentType:       at,
		Title:                "rec",
		DimensionName:        "Process",
		DimensionScore:       2.0,
		PriorityScore:        priorityScore,
		ImprovementPotential: 1.0,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed recommendation: %v", err)
	}
	return r
}
