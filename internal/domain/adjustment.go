package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// WeightAdjustmentHistory is the append-only audit row written for every
// applied weight change. It is the single source of truth for why a mapping
// weight changed and is never deleted.
type WeightAdjustmentHistory struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	MappingID    uuid.UUID `gorm:"type:uuid;column:mapping_id;not null;index" json:"mapping_id"`
	FieldChanged string    `gorm:"column:field_changed;not null" json:"field_changed"`

	OldValue float64 `gorm:"column:old_value;not null" json:"old_value"`
	NewValue float64 `gorm:"column:new_value;not null" json:"new_value"`

	AdjustmentType AdjustmentType `gorm:"column:adjustment_type;not null" json:"adjustment_type"`
	TriggerEvent   TriggerEvent   `gorm:"column:trigger_event;not null" json:"trigger_event"`

	// ContextSnapshot captures the feedback counters, accept rate, average
	// rating and confidence that justified the change.
	ContextSnapshot datatypes.JSON `gorm:"column:context_snapshot;type:jsonb" json:"context_snapshot,omitempty"`
	Explanation     string         `gorm:"column:explanation;type:text" json:"explanation"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (WeightAdjustmentHistory) TableName() string { return "weight_adjustment_history" }
