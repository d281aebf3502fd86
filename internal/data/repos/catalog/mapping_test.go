package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/brightpathcs/brightpath-backend/internal/data/repos/catalog"
	"github.com/brightpathcs/brightpath-backend/internal/data/repos/testutil"
	types "github.com/brightpathcs/brightpath-backend/internal/domain"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/dbctx"
)

func TestMappingListByTypeAndDimensions(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := catalog.NewMappingRepo(tx, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	uc := testutil.SeedUseCase(t, ctx, tx, "Use case", nil)
	low := testutil.SeedMapping(t, ctx, tx, types.AssessmentTypeSPM, "Process", uc.ID, 0.5, 9)
	high := testutil.SeedMapping(t, ctx, tx, types.AssessmentTypeSPM, "Process", uc.ID, 0.5, 2)
	testutil.SeedMapping(t, ctx, tx, types.AssessmentTypeTBM, "Process", uc.ID, 0.5, 1)
	testutil.SeedMapping(t, ctx, tx, types.AssessmentTypeSPM, "Strategy", uc.ID, 0.5, 1)

	rows, err := repo.ListByTypeAndDimensions(dbc, types.AssessmentTypeSPM, []string{"Process"})
	if err != nil {
		t.Fatalf("ListByTypeAndDimensions: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	// Admin priority ascending.
	if rows[0].ID != high.ID || rows[1].ID != low.ID {
		t.Fatalf("rows not ordered by priority: %v then %v", rows[0].Priority, rows[1].Priority)
	}
	if rows[0].UseCase == nil || rows[0].UseCase.Name != "Use case" {
		t.Fatal("use case not preloaded")
	}

	empty, err := repo.ListByTypeAndDimensions(dbc, types.AssessmentTypeSPM, nil)
	if err != nil {
		t.Fatalf("empty dimension list: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("empty dimension list returned %d rows", len(empty))
	}
}

func TestMappingUpdateWeight(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := catalog.NewMappingRepo(tx, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	uc := testutil.SeedUseCase(t, ctx, tx, "Use case", nil)
	m := testutil.SeedMapping(t, ctx, tx, types.AssessmentTypeSPM, "Process", uc.ID, 0.5, 5)

	at := time.Now().UTC().Truncate(time.Millisecond)
	if err := repo.UpdateWeight(dbc, m.ID, 0.62, at); err != nil {
		t.Fatalf("UpdateWeight: %v", err)
	}

	got, err := repo.GetByID(dbc, m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ImpactWeight != 0.62 {
		t.Fatalf("ImpactWeight = %v, want 0.62", got.ImpactWeight)
	}
	if got.LastWeightUpdate == nil {
		t.Fatal("LastWeightUpdate not stamped")
	}
}

func TestMappingListLearningEnabled(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := catalog.NewMappingRepo(tx, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	uc := testutil.SeedUseCase(t, ctx, tx, "Use case", nil)
	enabled := testutil.SeedMapping(t, ctx, tx, types.AssessmentTypeSPM, "Process", uc.ID, 0.5, 5)
	frozen := testutil.SeedMapping(t, ctx, tx, types.AssessmentTypeSPM, "Strategy", uc.ID, 0.5, 5)
	if err := tx.WithContext(ctx).Model(&types.DimensionUseCaseMapping{}).
		Where("id = ?", frozen.ID).Update("is_learning_enabled", false).Error; err != nil {
		t.Fatalf("freeze mapping: %v", err)
	}

	rows, err := repo.ListLearningEnabled(dbc, []uuid.UUID{enabled.ID, frozen.ID})
	if err != nil {
		t.Fatalf("ListLearningEnabled: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != enabled.ID {
		t.Fatalf("got %d rows, want only the learning-enabled mapping", len(rows))
	}
}

func TestMappingGetByIDMissing(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := catalog.NewMappingRepo(tx, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	got, err := repo.GetByID(dbc, uuid.New())
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Fatalf("missing id returned %+v", got)
	}
}
