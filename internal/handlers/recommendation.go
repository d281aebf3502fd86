package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/brightpathcs/brightpath-backend/internal/domain"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/logger"
	"github.com/brightpathcs/brightpath-backend/internal/services"
)

type RecommendationHandler struct {
	log    *logger.Logger
	recSvc services.RecommendationService
}

func NewRecommendationHandler(log *logger.Logger, recSvc services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{
		log:    log.With("handler", "RecommendationHandler"),
		recSvc: recSvc,
	}
}

type generateRequest struct {
	AssessmentType string  `json:"assessment_type"`
	Threshold      float64 `json:"threshold"`
	Limit          int     `json:"limit"`
	Regenerate     bool    `json:"regenerate"`
}

// POST /api/customers/:id/recommendations/generate
// Generates recommendations for one framework, or for every framework when
// assessment_type is omitted.
func (h *RecommendationHandler) Generate(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_customer_id", err)
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	if req.AssessmentType == "" {
		out, err := h.recSvc.GenerateAll(c.Request.Context(), customerID, req.Threshold, req.Limit, req.Regenerate)
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		RespondOK(c, gin.H{"recommendations_by_type": out})
		return
	}

	if !types.ValidAssessmentType(req.AssessmentType) {
		RespondError(c, http.StatusBadRequest, "invalid_assessment_type", nil)
		return
	}
	recs, err := h.recSvc.Generate(c.Request.Context(), services.GenerateParams{
		CustomerID:     customerID,
		AssessmentType: types.AssessmentType(req.AssessmentType),
		Threshold:      req.Threshold,
		Limit:          req.Limit,
		Regenerate:     req.Regenerate,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"recommendations": recs})
}
