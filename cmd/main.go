package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brightpathcs/brightpath-backend/internal/clients/redislock"
	"github.com/brightpathcs/brightpath-backend/internal/data/db"
	"github.com/brightpathcs/brightpath-backend/internal/data/repos"
	"github.com/brightpathcs/brightpath-backend/internal/handlers"
	"github.com/brightpathcs/brightpath-backend/internal/observability"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/dbctx"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/envutil"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/logger"
	"github.com/brightpathcs/brightpath-backend/internal/server"
	"github.com/brightpathcs/brightpath-backend/internal/services"
)

func main() {
	// Logger
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

	// Tracing
	ctx := context.Background()
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "brightpath-backend",
		Environment: envutil.String("DEPLOY_ENV", "development"),
		Version:     envutil.String("SERVICE_VERSION", "dev"),
	})
	if shutdownOTel != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOTel(shutdownCtx)
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()
	if err := db.AutoMigrateAll(thePG); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}

	// Redis lock (optional; generation falls back to single-instance mode)
	locker, err := redislock.New(log)
	if err != nil {
		log.Warn("Redis locker unavailable, regeneration locking disabled", "error", err)
		locker = nil
	} else {
		defer locker.Close()
	}

	// Repos
	log.Info("Setting up repos from main...")
	assessmentRepo := repos.NewAssessmentRepo(thePG, log)
	customerUseCaseRepo := repos.NewCustomerUseCaseRepo(thePG, log)
	mappingRepo := repos.NewMappingRepo(thePG, log)
	recommendationRepo := repos.NewRecommendationRepo(thePG, log)
	feedbackRepo := repos.NewFeedbackRepo(thePG, log)
	effectivenessRepo := repos.NewEffectivenessRepo(thePG, log)
	historyRepo := repos.NewAdjustmentHistoryRepo(thePG, log)
	learningConfigRepo := repos.NewLearningConfigRepo(thePG, log)
	aggregatedRepo := repos.NewAggregatedRepo(thePG, log)

	// Services
	log.Info("Setting up services from main...")
	configService := services.NewLearningConfigService(thePG, log, learningConfigRepo)
	if err := configService.SeedDefaults(dbctx.Context{Ctx: ctx}, envutil.String("LEARNING_CONFIG_PATH", "")); err != nil {
		log.Warn("Could not seed learning config defaults", "error", err)
	}
	recommendationService := services.NewRecommendationService(
		thePG, log, assessmentRepo, mappingRepo, customerUseCaseRepo, recommendationRepo, effectivenessRepo, locker,
	)
	learningService := services.NewLearningService(
		thePG, log, configService, mappingRepo, recommendationRepo, feedbackRepo, effectivenessRepo, historyRepo,
	)
	aggregationService := services.NewAggregationService(
		thePG, log, assessmentRepo, recommendationRepo, aggregatedRepo, locker,
	)

	// Handlers
	log.Info("Setting up handlers from main...")
	recommendationHandler := handlers.NewRecommendationHandler(log, recommendationService)
	learningHandler := handlers.NewLearningHandler(log, learningService)
	aggregationHandler := handlers.NewAggregationHandler(log, aggregationService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		RecommendationHandler: recommendationHandler,
		LearningHandler:       learningHandler,
		AggregationHandler:    aggregationHandler,
	})

	port := envutil.String("PORT", "8080")
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
