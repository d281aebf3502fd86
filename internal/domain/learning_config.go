package domain

import (
	"time"

	"github.com/google/uuid"
)

// LearningConfigEntry is one key/value learning tunable. Entries are seeded
// once with typed defaults and remain admin-editable afterwards.
type LearningConfigEntry struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	Key         string `gorm:"column:key;not null;uniqueIndex" json:"key"`
	Value       string `gorm:"column:value;not null" json:"value"`
	ValueType   string `gorm:"column:value_type;not null;default:'string'" json:"value_type"`
	Description string `gorm:"column:description;type:text" json:"description,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (LearningConfigEntry) TableName() string { return "learning_config" }

// Learning config keys.
const (
	ConfigKeyMinFeedbackForAdjustment = "min_feedback_for_adjustment"
	ConfigKeyConfidenceThreshold      = "confidence_threshold"
	ConfigKeyMaxWeightChangePerCycle  = "max_weight_change_per_cycle"
	ConfigKeyRecencyDecayHalfLifeDays = "recency_decay_half_life_days"
	ConfigKeyColdStartWeight          = "cold_start_weight"
	ConfigKeyLearningEnabled          = "learning_enabled"
	ConfigKeyAdjustmentFrequencyHours = "adjustment_frequency_hours"
)
