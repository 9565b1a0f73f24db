package usecase

import (
	"context"

	"enrollment/internal/domain/entity"

	"github.com/google/uuid"
)

// EnrollmentStatus is the gate as seen by the purchase dashboard.
type EnrollmentStatus struct {
	PlanPurchaseID   uuid.UUID            `json:"plan_purchase_id"`
	MandatoryCount   int                  `json:"mandatory_count"`
	LockedCount      int                  `json:"locked_count"`
	FullyEnrolled    bool                 `json:"fully_enrolled"`
	Progress         float64              `json:"progress"`
	NextUnlockedSlot *entity.RelationSlot `json:"next_unlocked_slot,omitempty"`
}

// EnrollmentUsecase derives the enrollment gate from member state. Nothing is cached.
type EnrollmentUsecase interface {
	// IsFullyEnrolled reports whether enough members are locked.
	IsFullyEnrolled(ctx context.Context, planPurchaseID uuid.UUID) (bool, error)

	// Progress returns the locked share of the mandatory member count, capped at 1.
	Progress(ctx context.Context, planPurchaseID uuid.UUID) (float64, error)

	// NextUnlockedSlot returns the first slot whose member is missing or not locked.
	NextUnlockedSlot(ctx context.Context, planPurchaseID uuid.UUID) (entity.RelationSlot, bool, error)

	// Status bundles the gate values.
	Status(ctx context.Context, planPurchaseID uuid.UUID) (*EnrollmentStatus, error)
}
