package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/brightpathcs/brightpath-backend/internal/data/db"
	"github.com/brightpathcs/brightpath-backend/internal/data/repos"
	types "github.com/brightpathcs/brightpath-backend/internal/domain"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/dbctx"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/envutil"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/logger"
	"github.com/brightpathcs/brightpath-backend/internal/services"
)

// Scheduled learning cycle runner. Executes one adjustment pass per interval;
// the interval comes from the stored learning config so admins can retune it
// without a redeploy.
func main() {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	configService := services.NewLearningConfigService(thePG, log, repos.NewLearningConfigRepo(thePG, log))
	learningService := services.NewLearningService(
		thePG,
		log,
		configService,
		repos.NewMappingRepo(thePG, log),
		repos.NewRecommendationRepo(thePG, log),
		repos.NewFeedbackRepo(thePG, log),
		repos.NewEffectivenessRepo(thePG, log),
		repos.NewAdjustmentHistoryRepo(thePG, log),
	)

	runCycle := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		summary, err := learningService.RunLearningCycle(ctx, services.CycleParams{
			Trigger: types.TriggerScheduledCycle,
		})
		if err != nil {
			log.Error("Scheduled learning cycle failed", "error", err)
			return
		}
		log.Info("Scheduled learning cycle done",
			"evaluated", summary.Evaluated,
			"adjusted", len(summary.Adjustments),
			"skipped", len(summary.Skipped),
			"disabled", summary.Disabled,
		)
	}

	if envutil.Bool("RUN_ONCE", false) {
		runCycle()
		return
	}

	cfg, err := configService.LoadCycleConfig(dbctx.Context{Ctx: context.Background()})
	if err != nil {
		log.Error("Could not load learning config", "error", err)
		os.Exit(1)
	}

	c := cron.New()
	spec := envutil.String("LEARNING_CYCLE_CRON", fmt.Sprintf("@every %dh", cfg.AdjustmentFrequencyHours))
	if _, err := c.AddFunc(spec, runCycle); err != nil {
		log.Error("Invalid cron spec", "spec", spec, "error", err)
		os.Exit(1)
	}
	c.Start()
	log.Info("Learning cycle scheduler started", "spec", spec)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopCtx := c.Stop()
	<-stopCtx.Done()
	log.Info("Learning cycle scheduler stopped")
}
