package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UseCase is a candidate improvement action a customer can adopt.
type UseCase struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	Name        string `gorm:"column:name;not null" json:"name"`
	Description string `gorm:"column:description;type:text" json:"description,omitempty"`

	// LinkedFeatureRefs holds external product feature identifiers tied to
	// this use case, when any exist.
	LinkedFeatureRefs datatypes.JSON `gorm:"column:linked_feature_refs;type:jsonb" json:"linked_feature_refs,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (UseCase) TableName() string { return "use_case" }

// HasLinkedFeatures reports whether any external feature refs are attached.
func (u *UseCase) HasLinkedFeatures() bool {
	if u == nil || len(u.LinkedFeatureRefs) == 0 {
		return false
	}
	var refs []string
	if err := json.Unmarshal(u.LinkedFeatureRefs, &refs); err != nil {
		return false
	}
	return len(refs) > 0
}

// CustomerUseCase tracks the adoption status of a use case for one customer.
type CustomerUseCase struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	CustomerID uuid.UUID             `gorm:"type:uuid;column:customer_id;not null;index:idx_customer_usecase,unique,priority:1" json:"customer_id"`
	UseCaseID  uuid.UUID             `gorm:"type:uuid;column:use_case_id;not null;index:idx_customer_usecase,unique,priority:2" json:"use_case_id"`
	Status     CustomerUseCaseStatus `gorm:"column:status;not null;default:'proposed'" json:"status"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (CustomerUseCase) TableName() string { return "customer_use_case" }
