package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Dimension is one scored axis of a maturity assessment template.
type Dimension struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	AssessmentType AssessmentType `gorm:"column:assessment_type;not null;index:idx_dimension_type_name,unique,priority:1" json:"assessment_type"`
	Name           string         `gorm:"column:name;not null;index:idx_dimension_type_name,unique,priority:2" json:"name"`
	Weight         float64        `gorm:"column:weight;not null;default:1" json:"weight"`
	SortIndex      int            `gorm:"column:sort_index;not null;default:0" json:"sort_index"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Dimension) TableName() string { return "dimension" }

// CustomerAssessment is a completed maturity assessment instance. Once the
// status reaches completed the dimension scores are immutable except for
// re-scoring by the surrounding application.
type CustomerAssessment struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	CustomerID     uuid.UUID        `gorm:"type:uuid;column:customer_id;not null;index:idx_assessment_customer_type,priority:1" json:"customer_id"`
	AssessmentType AssessmentType   `gorm:"column:assessment_type;not null;index:idx_assessment_customer_type,priority:2" json:"assessment_type"`
	Status         AssessmentStatus `gorm:"column:status;not null;default:'draft'" json:"status"`

	// DimensionScores maps dimension name to a 0-5 maturity score.
	DimensionScores datatypes.JSON `gorm:"column:dimension_scores;type:jsonb" json:"dimension_scores"`
	OverallScore    float64        `gorm:"column:overall_score;not null;default:0" json:"overall_score"`

	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (CustomerAssessment) TableName() string { return "customer_assessment" }

// Scores decodes the jsonb dimension score map. A missing or empty column
// yields an empty map, not an error.
func (a *CustomerAssessment) Scores() (map[string]float64, error) {
	out := map[string]float64{}
	if a == nil || len(a.DimensionScores) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(a.DimensionScores, &out); err != nil {
		return nil, err
	}
	return out, nil
}
