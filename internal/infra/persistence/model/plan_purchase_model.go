package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EmergencyContactData is the JSON shape of plan_purchases.emergency_contact.
type EmergencyContactData struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// PlanPurchaseModel is the GORM-specific struct for the 'plan_purchases' table.
// Rows are written by the purchase flow; this service only reads them.
type PlanPurchaseModel struct {
	ID                   uuid.UUID                                `gorm:"type:uuid;primary_key"`
	SubscriberID         uuid.UUID                                `gorm:"type:uuid;not null;index"`
	PlanName             string                                   `gorm:"type:varchar(255);not null"`
	PolicyNumber         string                                   `gorm:"type:varchar(64);not null"`
	Status               string                                   `gorm:"type:varchar(16);not null;default:'active'"`
	MandatoryMemberCount int                                      `gorm:"not null;default:0"`
	RelationSlots        datatypes.JSONSlice[string]              `gorm:"not null"`
	BenefitsSummary      string                                   `gorm:"type:text"`
	EmergencyContact     datatypes.JSONType[EmergencyContactData] `gorm:"not null"`
	PurchasedAt          time.Time                                `gorm:"not null"`
	ExpiresAt            time.Time                                `gorm:"not null"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TableName explicitly sets the table name for GORM.
func (PlanPurchaseModel) TableName() string {
	return "plan_purchases"
}
