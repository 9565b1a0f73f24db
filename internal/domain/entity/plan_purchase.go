// Package entity contains the core business objects of the project.
package entity

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// PlanPurchaseStatus is the lifecycle state of a purchased plan.
type PlanPurchaseStatus string

const (
	PlanPurchaseStatusActive  PlanPurchaseStatus = "active"
	PlanPurchaseStatusExpired PlanPurchaseStatus = "expired"
)

// RelationSlot identifies the position a member occupies under a plan, e.g. "self" or "child1".
type RelationSlot string

// EmergencyContact is printed on every card issued under a plan.
type EmergencyContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// PlanPurchase is a plan bought by a subscriber. It is created by the purchase flow and only read here.
type PlanPurchase struct {
	ID                   uuid.UUID          `json:"id"`                     // The Global Unique Identifier (GUID) for the purchase.
	SubscriberID         uuid.UUID          `json:"subscriber_id"`          // The account that bought the plan.
	PlanName             string             `json:"plan_name"`              // Display name of the plan.
	PolicyNumber         string             `json:"policy_number"`          // Insurer policy reference.
	Status               PlanPurchaseStatus `json:"status"`                 // active or expired.
	MandatoryMemberCount int                `json:"mandatory_member_count"` // Locked members required for full enrollment.
	RelationSlots        []RelationSlot     `json:"relation_slots"`         // Ordered slots the purchase covers.
	BenefitsSummary      string             `json:"benefits_summary"`       // Short benefits text for the card.
	EmergencyContact     EmergencyContact   `json:"emergency_contact"`      // Helpline printed on the card.
	PurchasedAt          time.Time          `json:"purchased_at"`
	ExpiresAt            time.Time          `json:"expires_at"`
}

// HasSlot reports whether slot belongs to the purchase.
func (p *PlanPurchase) HasSlot(slot RelationSlot) bool {
	return slices.Contains(p.RelationSlots, slot)
}

// SlotIndex returns the position of slot in the purchase order, or -1.
func (p *PlanPurchase) SlotIndex(slot RelationSlot) int {
	return slices.Index(p.RelationSlots, slot)
}

// IsExpiredAt reports whether the purchase no longer covers members at t.
func (p *PlanPurchase) IsExpiredAt(t time.Time) bool {
	if p.Status == PlanPurchaseStatusExpired {
		return true
	}

	return !p.ExpiresAt.IsZero() && !t.Before(p.ExpiresAt)
}
