package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/brightpathcs/brightpath-backend/internal/handlers"
)

type RouterConfig struct {
	RecommendationHandler *handlers.RecommendationHandler
	LearningHandler       *handlers.LearningHandler
	AggregationHandler    *handlers.AggregationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware("brightpath-backend"))
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		// Recommendations
		api.POST("/customers/:id/recommendations/generate", cfg.RecommendationHandler.Generate)
		api.POST("/recommendations/:id/feedback", cfg.LearningHandler.RecordFeedback)
		// Learning
		api.POST("/learning/cycle", cfg.LearningHandler.RunCycle)
		api.GET("/learning/summary", cfg.LearningHandler.GetSummary)
		// Aggregation
		api.POST("/customers/:id/aggregate", cfg.AggregationHandler.Aggregate)
		api.GET("/customers/:id/cross-analysis", cfg.AggregationHandler.GetCrossAnalysis)
		api.GET("/customers/:id/roadmap", cfg.AggregationHandler.GetRoadmap)
	}

	return router
}
