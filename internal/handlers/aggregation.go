package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brightpathcs/brightpath-backend/internal/pkg/logger"
	"github.com/brightpathcs/brightpath-backend/internal/services"
)

type AggregationHandler struct {
	log    *logger.Logger
	aggSvc services.AggregationService
}

func NewAggregationHandler(log *logger.Logger, aggSvc services.AggregationService) *AggregationHandler {
	return &AggregationHandler{
		log:    log.With("handler", "AggregationHandler"),
		aggSvc: aggSvc,
	}
}

type aggregateRequest struct {
	IncludeDismissed bool `json:"include_dismissed"`
	Limit            int  `json:"limit"`
}

// POST /api/customers/:id/aggregate
func (h *AggregationHandler) Aggregate(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_customer_id", err)
		return
	}

	var req aggregateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_body", err)
			return
		}
	}

	rows, err := h.aggSvc.AggregateRecommendations(c.Request.Context(), services.AggregateParams{
		CustomerID:       customerID,
		IncludeDismissed: req.IncludeDismissed,
		Limit:            req.Limit,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"aggregated": rows})
}

// GET /api/customers/:id/cross-analysis
func (h *AggregationHandler) GetCrossAnalysis(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_customer_id", err)
		return
	}

	analysis, err := h.aggSvc.GetCrossTypeAnalysis(c.Request.Context(), customerID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, analysis)
}

// GET /api/customers/:id/roadmap?include_accepted=false
func (h *AggregationHandler) GetRoadmap(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_customer_id", err)
		return
	}
	includeAccepted := c.DefaultQuery("include_accepted", "true") != "false"

	roadmap, err := h.aggSvc.BuildUnifiedRoadmap(c.Request.Context(), customerID, includeAccepted)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, roadmap)
}
