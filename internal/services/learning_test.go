package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brightpathcs/brightpath-backend/internal/data/repos"
	"github.com/brightpathcs/brightpath-backend/internal/data/repos/testutil"
	types "github.com/brightpathcs/brightpath-backend/internal/domain"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/errs"
)

func newLearningService(t *testing.T, tx *gorm.DB) (LearningService, repos.EffectivenessRepo, repos.MappingRepo, repos.AdjustmentHistoryRepo) {
	t.Helper()
	log := testutil.Logger(t)
	mappings := repos.NewMappingRepo(tx, log)
	effectiveness := repos.NewEffectivenessRepo(tx, log)
	history := repos.NewAdjustmentHistoryRepo(tx, log)
	svc := NewLearningService(
		tx,
		log,
		NewLearningConfigService(tx, log, repos.NewLearningConfigRepo(tx, log)),
		mappings,
		repos.NewRecommendationRepo(tx, log),
		repos.NewFeedbackRepo(tx, log),
		effectiveness,
		history,
	)
	return svc, effectiveness, mappings, history
}

func TestRecordFeedbackAccept(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	svc, effRepo, _, _ := newLearningService(t, tx)

	customerID := uuid.New()
	advisorID := uuid.New()
	uc := testutil.SeedUseCase(t, ctx, tx, "Use case", nil)
	m := testutil.SeedMapping(t, ctx, tx, types.AssessmentTypeSPM, "Process", uc.ID, 0.5, 5)
	a := testutil.SeedCompletedAssessment(t, ctx, tx, customerID, types.AssessmentTypeSPM, map[string]float64{"Process": 2.0})
	rec := testutil.SeedRecommendation(t, ctx, tx, customerID, a.ID, uc.ID, types.AssessmentTypeSPM, 60)

	rating := 5
	row, err := svc.RecordFeedback(ctx, FeedbackInput{
		RecommendationID: rec.ID,
		Action:           types.FeedbackActionAccept,
		AdvisorID:        advisorID,
		QualityRating:    &rating,
	})
	if err != nil {
		t.Fatalf("RecordFeedback: %v", err)
	}
	if row.PriorityScoreSnapshot != 60 {
		t.Fatalf("priority snapshot = %v, want 60", row.PriorityScoreSnapshot)
	}

	var stored types.RoadmapRecommendation
	if err := tx.WithContext(ctx).Where("id = ?", rec.ID).First(&stored).Error; err != nil {
		t.Fatalf("reload recommendation: %v", err)
	}
	if !stored.IsAccepted || stored.AcceptedAt == nil || stored.AcceptedBy == nil || *stored.AcceptedBy != advisorID {
		t.Fatalf("recommendation not stamped accepted: %+v", stored)
	}
	if stored.QualityRating == nil || *stored.QualityRating != 5 {
		t.Fatalf("quality rating not stamped: %+v", stored.QualityRating)
	}

	eff, err := effRepo.GetByMappingID(dbcFor(ctx, tx), m.ID)
	if err != nil {
		t.Fatalf("GetByMappingID: %v", err)
	}
	if eff == nil {
		t.Fatal("effectiveness row not created")
	}
	if eff.AcceptCount != 1 || eff.RatingCount != 1 || eff.TotalRatingSum != 5 {
		t.Fatalf("counters = accept %d rating %d sum %v", eff.AcceptCount, eff.RatingCount, eff.TotalRatingSum)
	}
	// accept rate 1.0, avg rating 5.0, no thumbs: 0.4 + 0.5 + 0.05
	if !almostEqual(eff.EffectivenessScore, 0.95) {
		t.Fatalf("effectiveness = %v, want 0.95", eff.EffectivenessScore)
	}
}

func TestRecordFeedbackDismissAfterAccept(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	svc, _, _, _ := newLearningService(t, tx)

	customerID := uuid.New()
	advisorID := uuid.New()
	uc := testutil.SeedUseCase(t, ctx, tx, "Use case", nil)
	testutil.SeedMapping(t, ctx, tx, types.AssessmentTypeSPM, "Process", uc.ID, 0.5, 5)
	a := testutil.SeedCompletedAssessment(t, ctx, tx, customerID, types.AssessmentTypeSPM, map[string]float64{"Process": 2.0})
	rec := testutil.SeedRecommendation(t, ctx, tx, customerID, a.ID, uc.ID, types.AssessmentTypeSPM, 60)

	if _, err := svc.RecordFeedback(ctx, FeedbackInput{
		RecommendationID: rec.ID,
		Action:           types.FeedbackActionAccept,
		AdvisorID:        advisorID,
	}); err != nil {
		t.Fatalf("accept: %v", err)
	}

	_, err := svc.RecordFeedback(ctx, FeedbackInput{
		RecommendationID: rec.ID,
		Action:           types.FeedbackActionDismiss,
		AdvisorID:        advisorID,
	})
	if !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("dismiss after accept = %v, want ErrConflict", err)
	}
}

func TestRecordFeedbackValidation(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	svc, _, _, _ := newLearningService(t, tx)

	_, err := svc.RecordFeedback(ctx, FeedbackInput{
		RecommendationID: uuid.New(),
		Action:           "like",
		AdvisorID:        uuid.New(),
	})
	if !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("unknown action = %v, want ErrInvalidArgument", err)
	}

	bad := 9
	_, err = svc.RecordFeedback(ctx, FeedbackInput{
		RecommendationID: uuid.New(),
		Action:           types.FeedbackActionRating,
		AdvisorID:        uuid.New(),
		QualityRating:    &bad,
	})
	if !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("rating out of range = %v, want ErrInvalidArgument", err)
	}

	_, err = svc.RecordFeedback(ctx, FeedbackInput{
		RecommendationID: uuid.New(),
		Action:           types.FeedbackActionAccept,
		AdvisorID:        uuid.New(),
	})
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("missing recommendation = %v, want ErrNotFound", err)
	}
}

func seedFeedbackBurst(t *testing.T, ctx context.Context, tx *gorm.DB, svc LearningService, rec *types.RoadmapRecommendation, accepts, dismisses int, ratings []int) {
	t.Helper()
	for i := 0; i < dismisses; i++ {
		if _, err := svc.RecordFeedback(ctx, FeedbackInput{
			RecommendationID: rec.ID,
			Action:           types.FeedbackActionDismiss,
			AdvisorID:        uuid.New(),
		}); err != nil {
			t.Fatalf("dismiss feedback: %v", err)
		}
	}
	for _, r := range ratings {
		rr := r
		if _, err := svc.RecordFeedback(ctx, FeedbackInput{
			RecommendationID: rec.ID,
			Action:           types.FeedbackActionRating,
			AdvisorID:        uuid.New(),
			QualityRating:    &rr,
		}); err != nil {
			t.Fatalf("rating feedback: %v", err)
		}
	}
	// Accept last so the dismiss guard never trips.
	for i := 0; i < accepts; i++ {
		if _, err := svc.RecordFeedback(ctx, FeedbackInput{
			RecommendationID: rec.ID,
			Action:           types.FeedbackActionAccept,
			AdvisorID:        uuid.New(),
		}); err != nil {
			t.Fatalf("accept feedback: %v", err)
		}
	}
}

func TestRunLearningCycleAdjustsWeight(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	svc, _, mappingRepo, historyRepo := newLearningService(t, tx)

	customerID := uuid.New()
	uc := testutil.SeedUseCase(t, ctx, tx, "Use case", nil)
	m := testutil.SeedMapping(t, ctx, tx, types.AssessmentTypeSPM, "Process", uc.ID, 0.5, 5)
	a := testutil.SeedCompletedAssessment(t, ctx, tx, customerID, types.AssessmentTypeSPM, map[string]float64{"Process": 2.0})
	rec := testutil.SeedRecommendation(t, ctx, tx, customerID, a.ID, uc.ID, types.AssessmentTypeSPM, 60)

	// 4 accepts, 1 dismiss, 3 high ratings: enough volume and confidence for
	// an upward adjustment.
	seedFeedbackBurst(t, ctx, tx, svc, rec, 4, 1, []int{5, 5, 4})

	summary, err := svc.RunLearningCycle(ctx, CycleParams{MappingIDs: []uuid.UUID{m.ID}})
	if err != nil {
		t.Fatalf("RunLearningCycle: %v", err)
	}
	if summary.Disabled {
		t.Fatal("cycle reported disabled with default config")
	}
	if len(summary.Adjustments) != 1 {
		t.Fatalf("adjustments = %+v, want exactly 1 (skips: %+v)", summary.Adjustments, summary.Skipped)
	}

	adj := summary.Adjustments[0]
	if !adj.Applied {
		t.Fatal("live cycle adjustment not applied")
	}
	if adj.NewWeight <= adj.OldWeight {
		t.Fatalf("positive feedback must raise the weight: %v -> %v", adj.OldWeight, adj.NewWeight)
	}
	// Default cap per cycle is 0.1.
	if adj.NewWeight-adj.OldWeight > 0.1+1e-9 {
		t.Fatalf("delta %v exceeds the per-cycle cap", adj.NewWeight-adj.OldWeight)
	}

	reloaded, err := mappingRepo.GetByID(dbcFor(ctx, tx), m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !almostEqual(reloaded.ImpactWeight, adj.NewWeight) {
		t.Fatalf("stored weight %v does not match adjustment %v", reloaded.ImpactWeight, adj.NewWeight)
	}
	if reloaded.LastWeightUpdate == nil {
		t.Fatal("last_weight_update not stamped")
	}

	hist, err := historyRepo.ListByMapping(dbcFor(ctx, tx), m.ID, 0)
	if err != nil {
		t.Fatalf("ListByMapping: %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("history rows = %d, want 1", len(hist))
	}
	if hist[0].FieldChanged != "impact_weight" || hist[0].AdjustmentType != types.AdjustmentAutomatic {
		t.Fatalf("unexpected history row: %+v", hist[0])
	}
	if len(hist[0].ContextSnapshot) == 0 || hist[0].Explanation == "" {
		t.Fatal("history row missing context snapshot or explanation")
	}
}

func TestRunLearningCycleSkipsInsufficientFeedback(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	svc, _, _, _ := newLearningService(t, tx)

	customerID := uuid.New()
	uc := testutil.SeedUseCase(t, ctx, tx, "Use case", nil)
	m := testutil.SeedMapping(t, ctx, tx, types.AssessmentTypeSPM, "Process", uc.ID, 0.5, 5)
	a := testutil.SeedCompletedAssessment(t, ctx, tx, customerID, types.AssessmentTypeSPM, map[string]float64{"Process": 2.0})
	rec := testutil.SeedRecommendation(t, ctx, tx, customerID, a.ID, uc.ID, types.AssessmentTypeSPM, 60)

	// Two events, default minimum is five.
	seedFeedbackBurst(t, ctx, tx, svc, rec, 1, 1, nil)

	summary, err := svc.RunLearningCycle(ctx, CycleParams{MappingIDs: []uuid.UUID{m.ID}})
	if err != nil {
		t.Fatalf("RunLearningCycle: %v", err)
	}
	if len(summary.Adjustments) != 0 {
		t.Fatalf("adjustments = %+v, want none", summary.Adjustments)
	}
	if len(summary.Skipped) != 1 || summary.Skipped[0].ReasonCode != "insufficient_feedback" {
		t.Fatalf("skips = %+v, want one insufficient_feedback", summary.Skipped)
	}
}

func TestRunLearningCycleDryRun(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	svc, _, mappingRepo, historyRepo := newLearningService(t, tx)

	customerID := uuid.New()
	uc := testutil.SeedUseCase(t, ctx, tx, "Use case", nil)
	m := testutil.SeedMapping(t, ctx, tx, types.AssessmentTypeSPM, "Process", uc.ID, 0.5, 5)
	a := testutil.SeedCompletedAssessment(t, ctx, tx, customerID, types.AssessmentTypeSPM, map[string]float64{"Process": 2.0})
	rec := testutil.SeedRecommendation(t, ctx, tx, customerID, a.ID, uc.ID, types.AssessmentTypeSPM, 60)

	seedFeedbackBurst(t, ctx, tx, svc, rec, 4, 1, []int{5, 5, 4})

	summary, err := svc.RunLearningCycle(ctx, CycleParams{MappingIDs: []uuid.UUID{m.ID}, DryRun: true})
	if err != nil {
		t.Fatalf("RunLearningCycle dry run: %v", err)
	}
	if len(summary.Adjustments) != 1 {
		t.Fatalf("adjustments = %+v, want 1 preview", summary.Adjustments)
	}
	if summary.Adjustments[0].Applied {
		t.Fatal("dry run adjustment flagged as applied")
	}

	reloaded, err := mappingRepo.GetByID(dbcFor(ctx, tx), m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !almostEqual(reloaded.ImpactWeight, 0.5) {
		t.Fatalf("dry run changed stored weight to %v", reloaded.ImpactWeight)
	}
	hist, err := historyRepo.ListByMapping(dbcFor(ctx, tx), m.ID, 0)
	if err != nil {
		t.Fatalf("ListByMapping: %v", err)
	}
	if len(hist) != 0 {
		t.Fatalf("dry run wrote %d history rows", len(hist))
	}
}

func TestRunLearningCycleDisabled(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	log := testutil.Logger(t)
	svc, _, _, _ := newLearningService(t, tx)

	configRepo := repos.NewLearningConfigRepo(tx, log)
	if err := configRepo.Set(dbcFor(ctx, tx), types.ConfigKeyLearningEnabled, "false"); err != nil {
		t.Fatalf("disable learning: %v", err)
	}

	summary, err := svc.RunLearningCycle(ctx, CycleParams{})
	if err != nil {
		t.Fatalf("RunLearningCycle: %v", err)
	}
	if !summary.Disabled {
		t.Fatal("cycle must report disabled")
	}

	// Dry runs stay available while learning is off.
	summary, err = svc.RunLearningCycle(ctx, CycleParams{DryRun: true})
	if err != nil {
		t.Fatalf("RunLearningCycle dry run: %v", err)
	}
	if summary.Disabled {
		t.Fatal("dry run must not be blocked by the global switch")
	}
}
