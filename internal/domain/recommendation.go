package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoadmapRecommendation is one scored improvement suggestion produced by the
// recommendation engine for a customer's weak dimension. Advisor actions
// mutate the acceptance fields; an accepted row survives regeneration.
type RoadmapRecommendation struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	CustomerID     uuid.UUID      `gorm:"type:uuid;column:customer_id;not null;index:idx_rec_customer_assessment,priority:1" json:"customer_id"`
	AssessmentID   uuid.UUID      `gorm:"type:uuid;column:assessment_id;not null;index:idx_rec_customer_assessment,priority:2" json:"assessment_id"`
	UseCaseID      uuid.UUID      `gorm:"type:uuid;column:use_case_id;not null;index" json:"use_case_id"`
	UseCase        *UseCase       `gorm:"foreignKey:UseCaseID;references:ID" json:"use_case,omitempty"`
	AssessmentType AssessmentType `gorm:"column:assessment_type;not null;index" json:"assessment_type"`

	Title          string  `gorm:"column:title;not null" json:"title"`
	DimensionName  string  `gorm:"column:dimension_name;not null" json:"dimension_name"`
	DimensionScore float64 `gorm:"column:dimension_score;not null" json:"dimension_score"`

	PriorityScore        float64 `gorm:"column:priority_score;not null;index" json:"priority_score"`
	ImprovementPotential float64 `gorm:"column:improvement_potential;not null" json:"improvement_potential"`

	IsAccepted bool       `gorm:"column:is_accepted;not null;default:false" json:"is_accepted"`
	AcceptedAt *time.Time `gorm:"column:accepted_at" json:"accepted_at,omitempty"`
	AcceptedBy *uuid.UUID `gorm:"type:uuid;column:accepted_by" json:"accepted_by,omitempty"`

	IsDismissed   bool       `gorm:"column:is_dismissed;not null;default:false" json:"is_dismissed"`
	DismissedAt   *time.Time `gorm:"column:dismissed_at" json:"dismissed_at,omitempty"`
	DismissedBy   *uuid.UUID `gorm:"type:uuid;column:dismissed_by" json:"dismissed_by,omitempty"`
	DismissReason *string    `gorm:"column:dismiss_reason" json:"dismiss_reason,omitempty"`

	QualityRating *int       `gorm:"column:quality_rating" json:"quality_rating,omitempty"`
	RatedAt       *time.Time `gorm:"column:rated_at" json:"rated_at,omitempty"`
	RatedBy       *uuid.UUID `gorm:"type:uuid;column:rated_by" json:"rated_by,omitempty"`

	TargetQuarter *int `gorm:"column:target_quarter" json:"target_quarter,omitempty"`
	TargetYear    *int `gorm:"column:target_year" json:"target_year,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (RoadmapRecommendation) TableName() string { return "roadmap_recommendation" }
