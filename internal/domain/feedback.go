package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecommendationFeedback is one immutable advisor interaction with a
// recommendation. Rows are append-only; the score snapshot records the state
// of the recommendation at feedback time so later analysis can relate the
// feedback to the scores that produced it.
type RecommendationFeedback struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	RecommendationID uuid.UUID      `gorm:"type:uuid;column:recommendation_id;not null;index" json:"recommendation_id"`
	UseCaseID        uuid.UUID      `gorm:"type:uuid;column:use_case_id;not null;index" json:"use_case_id"`
	CustomerID       uuid.UUID      `gorm:"type:uuid;column:customer_id;not null;index" json:"customer_id"`
	AssessmentType   AssessmentType `gorm:"column:assessment_type;not null" json:"assessment_type"`

	Action FeedbackAction `gorm:"column:action;not null" json:"action"`

	QualityRating         *int            `gorm:"column:quality_rating" json:"quality_rating,omitempty"`
	ThumbsFeedback        *ThumbsFeedback `gorm:"column:thumbs_feedback" json:"thumbs_feedback,omitempty"`
	DismissReasonCategory *string         `gorm:"column:dismiss_reason_category" json:"dismiss_reason_category,omitempty"`
	FeedbackReason        *string         `gorm:"column:feedback_reason;type:text" json:"feedback_reason,omitempty"`

	AdvisorID uuid.UUID `gorm:"type:uuid;column:advisor_id;not null" json:"advisor_id"`

	PriorityScoreSnapshot  float64 `gorm:"column:priority_score_snapshot;not null" json:"priority_score_snapshot"`
	DimensionScoreSnapshot float64 `gorm:"column:dimension_score_snapshot;not null" json:"dimension_score_snapshot"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (RecommendationFeedback) TableName() string { return "recommendation_feedback" }
