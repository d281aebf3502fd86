package services

import (
	"context"
	"testing"

	"github.com/brightpathcs/brightpath-backend/internal/data/repos"
	"github.com/brightpathcs/brightpath-backend/internal/data/repos/testutil"
	types "github.com/brightpathcs/brightpath-backend/internal/domain"
)

func TestLoadCycleConfigDefaults(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	svc := NewLearningConfigService(tx, log, repos.NewLearningConfigRepo(tx, log))

	cfg, err := svc.LoadCycleConfig(dbcFor(context.Background(), tx))
	if err != nil {
		t.Fatalf("LoadCycleConfig: %v", err)
	}
	if cfg != DefaultLearningConfig() {
		t.Fatalf("empty table must yield defaults, got %+v", cfg)
	}
}

func TestLoadCycleConfigOverridesAndMalformed(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	ctx := context.Background()
	repo := repos.NewLearningConfigRepo(tx, log)
	svc := NewLearningConfigService(tx, log, repo)

	dbc := dbcFor(ctx, tx)
	if err := repo.Set(dbc, types.ConfigKeyMinFeedbackForAdjustment, "10"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := repo.Set(dbc, types.ConfigKeyConfidenceThreshold, "not-a-number"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := repo.Set(dbc, types.ConfigKeyLearningEnabled, "false"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	cfg, err := svc.LoadCycleConfig(dbc)
	if err != nil {
		t.Fatalf("LoadCycleConfig: %v", err)
	}
	if cfg.MinFeedbackForAdjustment != 10 {
		t.Fatalf("MinFeedbackForAdjustment = %d, want 10", cfg.MinFeedbackForAdjustment)
	}
	// Malformed value falls back to the typed default.
	if cfg.ConfidenceThreshold != DefaultLearningConfig().ConfidenceThreshold {
		t.Fatalf("ConfidenceThreshold = %v, want default", cfg.ConfidenceThreshold)
	}
	if cfg.LearningEnabled {
		t.Fatal("LearningEnabled override ignored")
	}
}

func TestSeedDefaultsDoesNotOverwrite(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	ctx := context.Background()
	repo := repos.NewLearningConfigRepo(tx, log)
	svc := NewLearningConfigService(tx, log, repo)

	dbc := dbcFor(ctx, tx)
	if err := repo.Set(dbc, types.ConfigKeyMinFeedbackForAdjustment, "42"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := svc.SeedDefaults(dbc, ""); err != nil {
		t.Fatalf("SeedDefaults: %v", err)
	}

	cfg, err := svc.LoadCycleConfig(dbc)
	if err != nil {
		t.Fatalf("LoadCycleConfig: %v", err)
	}
	if cfg.MinFeedbackForAdjustment != 42 {
		t.Fatalf("seeding overwrote admin edit: %d", cfg.MinFeedbackForAdjustment)
	}
}
