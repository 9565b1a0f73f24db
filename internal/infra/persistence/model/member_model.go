package model

import (
	"time"

	"github.com/google/uuid"
)

// MemberModel is the GORM-specific struct for the 'members' table.
// (plan_purchase_id, relation_slot) is unique, so each slot holds at most one member.
type MemberModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	PlanPurchaseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_members_purchase_slot,priority:1"`
	RelationSlot   string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_members_purchase_slot,priority:2"`

	FullName    string   `gorm:"type:varchar(255);not null;default:''"`
	DateOfBirth *string  `gorm:"type:varchar(10)"` // YYYY-MM-DD
	Gender      string   `gorm:"type:varchar(16);not null;default:''"`
	BloodGroup  string   `gorm:"type:varchar(4);not null;default:''"`
	Mobile      string   `gorm:"type:varchar(10);not null;default:''"`
	Email       string   `gorm:"type:varchar(255);not null;default:''"`
	HeightCm    *float64 `gorm:"type:decimal(5,1)"`
	WeightKg    *float64 `gorm:"type:decimal(5,1)"`
	NationalIDA string   `gorm:"column:national_id_a;type:varchar(12);not null;default:''"`
	NationalIDB string   `gorm:"column:national_id_b;type:varchar(10);not null;default:''"`
	Address     string   `gorm:"type:text;not null;default:''"`
	City        string   `gorm:"type:varchar(128);not null;default:''"`
	Region      string   `gorm:"type:varchar(128);not null;default:''"`
	PostalCode  string   `gorm:"type:varchar(6);not null;default:''"`

	LockState string     `gorm:"type:varchar(16);not null;default:'empty';index"`
	CardID    *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	LockedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (MemberModel) TableName() string {
	return "members"
}
