package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/brightpathcs/brightpath-backend/internal/domain"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/logger"
	"github.com/brightpathcs/brightpath-backend/internal/services"
)

type LearningHandler struct {
	log         *logger.Logger
	learningSvc services.LearningService
}

func NewLearningHandler(log *logger.Logger, learningSvc services.LearningService) *LearningHandler {
	return &LearningHandler{
		log:         log.With("handler", "LearningHandler"),
		learningSvc: learningSvc,
	}
}

type feedbackRequest struct {
	Action                string  `json:"action"`
	AdvisorID             string  `json:"advisor_id"`
	QualityRating         *int    `json:"quality_rating"`
	Thumbs                *string `json:"thumbs"`
	DismissReasonCategory *string `json:"dismiss_reason_category"`
	FeedbackReason        *string `json:"feedback_reason"`
}

// POST /api/recommendations/:id/feedback
func (h *LearningHandler) RecordFeedback(c *gin.Context) {
	recommendationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_recommendation_id", err)
		return
	}

	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	advisorID, err := uuid.Parse(req.AdvisorID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_advisor_id", err)
		return
	}

	in := services.FeedbackInput{
		RecommendationID:      recommendationID,
		Action:                types.FeedbackAction(req.Action),
		AdvisorID:             advisorID,
		QualityRating:         req.QualityRating,
		DismissReasonCategory: req.DismissReasonCategory,
		FeedbackReason:        req.FeedbackReason,
	}
	if req.Thumbs != nil {
		thumbs := types.ThumbsFeedback(*req.Thumbs)
		in.Thumbs = &thumbs
	}

	row, err := h.learningSvc.RecordFeedback(c.Request.Context(), in)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"feedback": row})
}

type cycleRequest struct {
	MappingIDs []string `json:"mapping_ids"`
}

// POST /api/learning/cycle?dry_run=true
func (h *LearningHandler) RunCycle(c *gin.Context) {
	var req cycleRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_body", err)
			return
		}
	}

	params := services.CycleParams{
		DryRun:  c.Query("dry_run") == "true",
		Trigger: types.TriggerManualAdjustment,
	}
	for _, raw := range req.MappingIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_mapping_id", err)
			return
		}
		params.MappingIDs = append(params.MappingIDs, id)
	}

	summary, err := h.learningSvc.RunLearningCycle(c.Request.Context(), params)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"summary": summary})
}

// GET /api/learning/summary
func (h *LearningHandler) GetSummary(c *gin.Context) {
	summary, err := h.learningSvc.GetLearningSummary(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, summary)
}
