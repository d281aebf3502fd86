package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AggregatedRecommendation merges every framework's recommendation for the
// same use case into one cross-framework row. Non-accepted rows are cleared
// and recreated wholesale on each aggregation run; accepted rows persist.
type AggregatedRecommendation struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	CustomerID uuid.UUID `gorm:"type:uuid;column:customer_id;not null;index:idx_agg_customer_usecase,unique,priority:1" json:"customer_id"`
	UseCaseID  uuid.UUID `gorm:"type:uuid;column:use_case_id;not null;index:idx_agg_customer_usecase,unique,priority:2" json:"use_case_id"`
	UseCase    *UseCase  `gorm:"foreignKey:UseCaseID;references:ID" json:"use_case,omitempty"`

	Title string `gorm:"column:title;not null" json:"title"`

	// SourceAssessmentTypes is the set of frameworks that independently
	// recommended this use case.
	SourceAssessmentTypes   datatypes.JSON `gorm:"column:source_assessment_types;type:jsonb" json:"source_assessment_types"`
	SourceRecommendationIDs datatypes.JSON `gorm:"column:source_recommendation_ids;type:jsonb" json:"source_recommendation_ids"`

	BasePriorityScore     float64 `gorm:"column:base_priority_score;not null" json:"base_priority_score"`
	SynergyBoost          float64 `gorm:"column:synergy_boost;not null;default:1" json:"synergy_boost"`
	CombinedPriorityScore float64 `gorm:"column:combined_priority_score;not null;index" json:"combined_priority_score"`
	IsSynergistic         bool    `gorm:"column:is_synergistic;not null;default:false" json:"is_synergistic"`

	IsAccepted bool       `gorm:"column:is_accepted;not null;default:false" json:"is_accepted"`
	AcceptedAt *time.Time `gorm:"column:accepted_at" json:"accepted_at,omitempty"`
	AcceptedBy *uuid.UUID `gorm:"type:uuid;column:accepted_by" json:"accepted_by,omitempty"`

	TargetQuarter *int `gorm:"column:target_quarter" json:"target_quarter,omitempty"`
	TargetYear    *int `gorm:"column:target_year" json:"target_year,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (AggregatedRecommendation) TableName() string { return "aggregated_recommendation" }

// SourceTypes decodes the framework set column.
func (a *AggregatedRecommendation) SourceTypes() []AssessmentType {
	if a == nil || len(a.SourceAssessmentTypes) == 0 {
		return nil
	}
	var out []AssessmentType
	if err := json.Unmarshal(a.SourceAssessmentTypes, &out); err != nil {
		return nil
	}
	return out
}
