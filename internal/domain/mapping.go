package domain

import (
	"time"

	"github.com/google/uuid"
)

// DimensionUseCaseMapping links a weak assessment dimension to a use case
// that can improve it. This is the unit of knowledge the learning service
// tunes: impact_weight stays inside [0.1, 1.0] at all times.
type DimensionUseCaseMapping struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	AssessmentType AssessmentType `gorm:"column:assessment_type;not null;index:idx_mapping_type_dimension,priority:1" json:"assessment_type"`
	DimensionName  string         `gorm:"column:dimension_name;not null;index:idx_mapping_type_dimension,priority:2" json:"dimension_name"`
	UseCaseID      uuid.UUID      `gorm:"type:uuid;column:use_case_id;not null;index" json:"use_case_id"`
	UseCase        *UseCase       `gorm:"foreignKey:UseCaseID;references:ID" json:"use_case,omitempty"`

	// ImpactWeight is how much implementing the use case improves the
	// dimension (0.1-1.0 once the learning clamp has run).
	ImpactWeight float64 `gorm:"column:impact_weight;not null;default:0.5" json:"impact_weight"`
	// ThresholdScore is the score below which the dimension counts as weak.
	ThresholdScore float64 `gorm:"column:threshold_score;not null;default:3.5" json:"threshold_score"`
	// Priority is an admin-declared tie-break, lower = more important.
	Priority int `gorm:"column:priority;not null;default:10" json:"priority"`

	IsLearningEnabled bool       `gorm:"column:is_learning_enabled;not null;default:true" json:"is_learning_enabled"`
	LastWeightUpdate  *time.Time `gorm:"column:last_weight_update" json:"last_weight_update,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (DimensionUseCaseMapping) TableName() string { return "dimension_use_case_mapping" }
