package domain

import (
	"time"

	"github.com/google/uuid"
)

// MappingEffectiveness holds the rolling feedback counters for one mapping
// plus the derived scores. The derived fields are always a pure function of
// the counters and recent feedback history; they are recomputed on every
// feedback event and never edited by hand.
type MappingEffectiveness struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	MappingID uuid.UUID `gorm:"type:uuid;column:mapping_id;not null;uniqueIndex" json:"mapping_id"`

	TotalRecommendations int `gorm:"column:total_recommendations;not null;default:0" json:"total_recommendations"`
	AcceptCount          int `gorm:"column:accept_count;not null;default:0" json:"accept_count"`
	DismissCount         int `gorm:"column:dismiss_count;not null;default:0" json:"dismiss_count"`
	RatingCount          int `gorm:"column:rating_count;not null;default:0" json:"rating_count"`
	ThumbsUpCount        int `gorm:"column:thumbs_up_count;not null;default:0" json:"thumbs_up_count"`
	ThumbsDownCount      int `gorm:"column:thumbs_down_count;not null;default:0" json:"thumbs_down_count"`

	TotalRatingSum float64 `gorm:"column:total_rating_sum;not null;default:0" json:"total_rating_sum"`

	AcceptRate         float64 `gorm:"column:accept_rate;not null;default:0.5" json:"accept_rate"`
	AverageRating      float64 `gorm:"column:average_rating;not null;default:3" json:"average_rating"`
	EffectivenessScore float64 `gorm:"column:effectiveness_score;not null;default:0" json:"effectiveness_score"`
	ConfidenceLevel    float64 `gorm:"column:confidence_level;not null;default:0" json:"confidence_level"`

	LastFeedbackAt *time.Time `gorm:"column:last_feedback_at" json:"last_feedback_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (MappingEffectiveness) TableName() string { return "mapping_effectiveness" }

// FeedbackCount is the number of accept/dismiss/rating events observed.
func (e *MappingEffectiveness) FeedbackCount() int {
	if e == nil {
		return 0
	}
	return e.AcceptCount + e.DismissCount + e.RatingCount
}
