package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brightpathcs/brightpath-backend/internal/data/repos"
	"github.com/brightpathcs/brightpath-backend/internal/data/repos/testutil"
	types "github.com/brightpathcs/brightpath-backend/internal/domain"
)

func TestWeakDimensions(t *testing.T) {
	scores := map[string]float64{
		"Process":    2.0,
		"Technology": 3.0,
		"People":     3.5, // exactly at threshold is not weak
		"Strategy":   4.5,
	}

	weak := weakDimensions(scores, 3.5)

	if len(weak) != 2 {
		t.Fatalf("got %d weak dimensions, want 2", len(weak))
	}
	// Worst gap first.
	if weak[0].Name != "Process" || weak[1].Name != "Technology" {
		t.Fatalf("got order %q, %q; want Process, Technology", weak[0].Name, weak[1].Name)
	}
	if weak[0].Gap != 1.5 {
		t.Fatalf("Process gap = %v, want 1.5", weak[0].Gap)
	}
}

func TestWeakDimensionsTieOrder(t *testing.T) {
	scores := map[string]float64{"Beta": 2.0, "Alpha": 2.0}
	weak := weakDimensions(scores, 3.5)
	if weak[0].Name != "Alpha" || weak[1].Name != "Beta" {
		t.Fatalf("equal gaps must order by name, got %q then %q", weak[0].Name, weak[1].Name)
	}
}

func TestWeakDimensionsEmpty(t *testing.T) {
	if got := weakDimensions(nil, 3.5); len(got) != 0 {
		t.Fatalf("nil scores produced %d dimensions", len(got))
	}
	if got := weakDimensions(map[string]float64{"A": 5}, 3.5); len(got) != 0 {
		t.Fatalf("all-strong scores produced %d dimensions", len(got))
	}
}

func TestPriorityScore(t *testing.T) {
	tests := []struct {
		name         string
		gap          float64
		impactWeight float64
		priority     int
		hasFeatures  bool
		want         float64
	}{
		// min(1.5*25, 50) + 0.9*30 + (15-4) + 5 = 37.5 + 27 + 11 + 5
		{"typical weak dimension", 1.5, 0.9, 4, true, 80.5},
		// Gap band saturates at 50.
		{"gap band capped", 3.0, 1.0, 1, true, 50 + 30 + 14 + 5},
		// Priority at or beyond 15 contributes nothing.
		{"low admin priority", 1.0, 0.5, 20, false, 25 + 15},
		{"zero gap", 0, 0.5, 10, false, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := priorityScore(tt.gap, tt.impactWeight, tt.priority, tt.hasFeatures)
			if !almostEqual(got, tt.want) {
				t.Fatalf("priorityScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPriorityScoreBounded(t *testing.T) {
	// Worst case of every band: gap cap 50 + weight 30 + priority 15 + bonus 5.
	if got := priorityScore(100, 1.0, 0, true); got != 100 {
		t.Fatalf("maximum score = %v, want 100", got)
	}
}

func TestImprovementPotential(t *testing.T) {
	// Capped at the gap itself.
	if got := improvementPotential(1.5, 0.9); !almostEqual(got, 1.35) {
		t.Fatalf("improvementPotential(1.5, 0.9) = %v, want 1.35", got)
	}
	if got := improvementPotential(1.0, 2.0); !almostEqual(got, 1.0) {
		t.Fatalf("potential must not exceed the gap, got %v", got)
	}
}

func TestRecommendationTitle(t *testing.T) {
	uc := &types.UseCase{Name: "Automate onboarding"}
	if got := recommendationTitle(uc); got != "Automate onboarding" {
		t.Fatalf("title = %q", got)
	}

	uc.LinkedFeatureRefs = datatypes.JSON([]byte(`["feature-a"]`))
	if got := recommendationTitle(uc); got != "Automate onboarding (platform feature available)" {
		t.Fatalf("title with linked features = %q", got)
	}

	if got := recommendationTitle(nil); got != "Improvement initiative" {
		t.Fatalf("nil use case title = %q", got)
	}
}

func newRecommendationService(t *testing.T, tx *gorm.DB) RecommendationService {
	t.Helper()
	log := testutil.Logger(t)
	return NewRecommendationService(
		tx,
		log,
		repos.NewAssessmentRepo(tx, log),
		repos.NewMappingRepo(tx, log),
		repos.NewCustomerUseCaseRepo(tx, log),
		repos.NewRecommendationRepo(tx, log),
		repos.NewEffectivenessRepo(tx, log),
		nil,
	)
}

func TestGenerate(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	svc := newRecommendationService(t, tx)

	customerID := uuid.New()
	ucA := testutil.SeedUseCase(t, ctx, tx, "Adopt cost allocation", []string{"feature-a"})
	ucB := testutil.SeedUseCase(t, ctx, tx, "Tag cloud spend", nil)
	ucC := testutil.SeedUseCase(t, ctx, tx, "Already underway", nil)

	testutil.SeedMapping(t, ctx, tx, types.AssessmentTypeSPM, "Process", ucA.ID, 0.9, 4)
	testutil.SeedMapping(t, ctx, tx, types.AssessmentTypeSPM, "Technology", ucB.ID, 0.5, 10)
	testutil.SeedMapping(t, ctx, tx, types.AssessmentTypeSPM, "Process", ucC.ID, 0.8, 1)

	// ucC is in progress for this customer and must be withheld.
	cu := &types.CustomerUseCase{CustomerID: customerID, UseCaseID: ucC.ID, Status: types.UseCaseStatusInProgress}
	if err := tx.WithContext(ctx).Create(cu).Error; err != nil {
		t.Fatalf("seed customer use case: %v", err)
	}

	testutil.SeedCompletedAssessment(t, ctx, tx, customerID, types.AssessmentTypeSPM, map[string]float64{
		"Process":    2.0,
		"Technology": 3.0,
		"Strategy":   4.5,
	})

	recs, err := svc.Generate(ctx, GenerateParams{CustomerID: customerID, AssessmentType: types.AssessmentTypeSPM})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(recs))
	}

	// Highest score first: Process gap 1.5, weight 0.9, priority 4, features.
	first := recs[0]
	if first.UseCaseID != ucA.ID {
		t.Fatalf("top recommendation use case = %s, want %s", first.UseCaseID, ucA.ID)
	}
	if !almostEqual(first.PriorityScore, 80.5) {
		t.Fatalf("top priority score = %v, want 80.5", first.PriorityScore)
	}
	if !almostEqual(first.ImprovementPotential, 1.35) {
		t.Fatalf("improvement potential = %v, want 1.35", first.ImprovementPotential)
	}
	if first.Title != "Adopt cost allocation (platform feature available)" {
		t.Fatalf("title = %q", first.Title)
	}
	if first.DimensionName != "Process" || first.DimensionScore != 2.0 {
		t.Fatalf("dimension stamp = %q %v", first.DimensionName, first.DimensionScore)
	}

	for _, r := range recs {
		if r.UseCaseID == ucC.ID {
			t.Fatal("in-progress use case must not be recommended")
		}
	}
}

func TestGenerateIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	svc := newRecommendationService(t, tx)

	customerID := uuid.New()
	uc := testutil.SeedUseCase(t, ctx, tx, "Use case", nil)
	testutil.SeedMapping(t, ctx, tx, types.AssessmentTypeSPM, "Process", uc.ID, 0.5, 5)
	testutil.SeedCompletedAssessment(t, ctx, tx, customerID, types.AssessmentTypeSPM, map[string]float64{"Process": 2.0})

	first, err := svc.Generate(ctx, GenerateParams{CustomerID: customerID, AssessmentType: types.AssessmentTypeSPM})
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("first run created %d rows, want 1", len(first))
	}

	// Without regenerate, existing active recommendations are kept and no
	// duplicates appear.
	second, err := svc.Generate(ctx, GenerateParams{CustomerID: customerID, AssessmentType: types.AssessmentTypeSPM})
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("second run created %d duplicate rows", len(second))
	}

	var count int64
	if err := tx.WithContext(ctx).Model(&types.RoadmapRecommendation{}).
		Where("customer_id = ?", customerID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("stored rows = %d, want 1", count)
	}
}

func TestGenerateRegeneratePreservesAccepted(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	svc := newRecommendationService(t, tx)

	customerID := uuid.New()
	ucKeep := testutil.SeedUseCase(t, ctx, tx, "Accepted use case", nil)
	ucReplace := testutil.SeedUseCase(t, ctx, tx, "Replaceable use case", nil)
	testutil.SeedMapping(t, ctx, tx, types.AssessmentTypeSPM, "Process", ucKeep.ID, 0.5, 5)
	testutil.SeedMapping(t, ctx, tx, types.AssessmentTypeSPM, "Process", ucReplace.ID, 0.4, 6)
	testutil.SeedCompletedAssessment(t, ctx, tx, customerID, types.AssessmentTypeSPM, map[string]float64{"Process": 2.0})

	first, err := svc.Generate(ctx, GenerateParams{CustomerID: customerID, AssessmentType: types.AssessmentTypeSPM})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("first run created %d rows, want 2", len(first))
	}

	// Accept one row directly.
	var acceptedID uuid.UUID
	for _, r := range first {
		if r.UseCaseID == ucKeep.ID {
			acceptedID = r.ID
		}
	}
	if err := tx.WithContext(ctx).Model(&types.RoadmapRecommendation{}).
		Where("id = ?", acceptedID).Update("is_accepted", true).Error; err != nil {
		t.Fatalf("accept: %v", err)
	}

	regen, err := svc.Generate(ctx, GenerateParams{CustomerID: customerID, AssessmentType: types.AssessmentTypeSPM, Regenerate: true})
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	// Only the non-accepted use case is recreated.
	if len(regen) != 1 || regen[0].UseCaseID != ucReplace.ID {
		t.Fatalf("regenerated rows = %+v, want only the replaceable use case", regen)
	}

	var stored []*types.RoadmapRecommendation
	if err := tx.WithContext(ctx).Where("customer_id = ?", customerID).Find(&stored).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored rows = %d, want accepted + regenerated", len(stored))
	}
	foundAccepted := false
	for _, r := range stored {
		if r.ID == acceptedID && r.IsAccepted {
			foundAccepted = true
		}
	}
	if !foundAccepted {
		t.Fatal("accepted recommendation did not survive regeneration")
	}
}

func TestGenerateNoWeakDimensions(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	svc := newRecommendationService(t, tx)

	customerID := uuid.New()
	uc := testutil.SeedUseCase(t, ctx, tx, "Use case", nil)
	testutil.SeedMapping(t, ctx, tx, types.AssessmentTypeSPM, "Process", uc.ID, 0.5, 5)
	testutil.SeedCompletedAssessment(t, ctx, tx, customerID, types.AssessmentTypeSPM, map[string]float64{"Process": 4.8})

	recs, err := svc.Generate(ctx, GenerateParams{CustomerID: customerID, AssessmentType: types.AssessmentTypeSPM})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("strong customer got %d recommendations", len(recs))
	}

	// No completed assessment for another framework: also empty, no error.
	recs, err = svc.Generate(ctx, GenerateParams{CustomerID: customerID, AssessmentType: types.AssessmentTypeTBM})
	if err != nil {
		t.Fatalf("Generate without assessment: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("missing assessment got %d recommendations", len(recs))
	}
}
