package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ECardStatus is the issuance state of a card. Transitions only move forward.
type ECardStatus string

const (
	ECardStatusPending ECardStatus = "pending"
	ECardStatusActive  ECardStatus = "active"
)

// CardValidity is how long a card is valid from issuance, before capping at plan expiry.
const CardValidity = 1

// CardSnapshot is the member and plan data frozen onto a card when it is requested.
type CardSnapshot struct {
	FullName         string           `json:"full_name"`
	RelationSlot     RelationSlot     `json:"relation_slot"`
	DateOfBirth      string           `json:"date_of_birth"`
	Gender           string           `json:"gender"`
	BloodGroup       string           `json:"blood_group"`
	PlanName         string           `json:"plan_name"`
	PolicyNumber     string           `json:"policy_number"`
	BenefitsSummary  string           `json:"benefits_summary"`
	EmergencyContact EmergencyContact `json:"emergency_contact"`
}

// ECard is the digital membership credential issued to a locked member.
type ECard struct {
	ID             uuid.UUID    `json:"id"`
	MemberID       uuid.UUID    `json:"member_id"` // At most one card per member.
	PlanPurchaseID uuid.UUID    `json:"plan_purchase_id"`
	Status         ECardStatus  `json:"status"`
	CardUniqueID   string       `json:"card_unique_id"` // Human-readable id printed on the card.
	IssuedAt       time.Time    `json:"issued_at"`
	ValidFrom      time.Time    `json:"valid_from"`
	ValidTill      time.Time    `json:"valid_till"`
	ActivatedAt    *time.Time   `json:"activated_at,omitempty"`
	Snapshot       CardSnapshot `json:"snapshot"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// IsActive reports whether the card has been confirmed.
func (c *ECard) IsActive() bool {
	return c.Status == ECardStatusActive
}

// NewECard builds a pending card for a locked member of purchase, issued at now.
func NewECard(member *Member, purchase *PlanPurchase, now time.Time) *ECard {
	id := uuid.New()
	validTill := now.AddDate(CardValidity, 0, 0)
	if !purchase.ExpiresAt.IsZero() && purchase.ExpiresAt.Before(validTill) {
		validTill = purchase.ExpiresAt
	}

	snapshot := CardSnapshot{
		FullName:         member.FullName,
		RelationSlot:     member.RelationSlot,
		Gender:           member.Gender,
		BloodGroup:       member.BloodGroup,
		PlanName:         purchase.PlanName,
		PolicyNumber:     purchase.PolicyNumber,
		BenefitsSummary:  purchase.BenefitsSummary,
		EmergencyContact: purchase.EmergencyContact,
	}
	if member.DateOfBirth != nil {
		snapshot.DateOfBirth = member.DateOfBirth.Format(DateLayout)
	}

	return &ECard{
		ID:             id,
		MemberID:       member.ID,
		PlanPurchaseID: purchase.ID,
		Status:         ECardStatusPending,
		CardUniqueID:   CardUniqueID(id, now),
		IssuedAt:       now,
		ValidFrom:      now,
		ValidTill:      validTill,
		Snapshot:       snapshot,
	}
}

// CardUniqueID derives the display id, e.g. EC-2026-1A2B3C4D.
func CardUniqueID(id uuid.UUID, issuedAt time.Time) string {
	hex := strings.ReplaceAll(id.String(), "-", "")

	return fmt.Sprintf("EC-%d-%s", issuedAt.Year(), strings.ToUpper(hex[:8]))
}
