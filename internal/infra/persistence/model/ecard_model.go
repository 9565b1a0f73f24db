package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CardSnapshotData is the JSON shape of e_cards.snapshot.
type CardSnapshotData struct {
	FullName         string               `json:"full_name"`
	RelationSlot     string               `json:"relation_slot"`
	DateOfBirth      string               `json:"date_of_birth"`
	Gender           string               `json:"gender"`
	BloodGroup       string               `json:"blood_group"`
	PlanName         string               `json:"plan_name"`
	PolicyNumber     string               `json:"policy_number"`
	BenefitsSummary  string               `json:"benefits_summary"`
	EmergencyContact EmergencyContactData `json:"emergency_contact"`
}

// ECardModel is the GORM-specific struct for the 'e_cards' table.
// The unique index on member_id is what guarantees a single card per member.
type ECardModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	MemberID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	PlanPurchaseID uuid.UUID `gorm:"type:uuid;not null;index"`
	Status         string    `gorm:"type:varchar(16);not null;default:'pending'"`
	CardUniqueID   string    `gorm:"type:varchar(32);not null;uniqueIndex"`
	IssuedAt       time.Time `gorm:"not null"`
	ValidFrom      time.Time `gorm:"not null"`
	ValidTill      time.Time `gorm:"not null"`
	ActivatedAt    *time.Time
	Snapshot       datatypes.JSONType[CardSnapshotData] `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName explicitly sets the table name for GORM.
func (ECardModel) TableName() string {
	return "e_cards"
}
