package repository

import (
	"context"

	"enrollment/internal/domain/entity"
	"enrollment/internal/errors"

	"github.com/google/uuid"
)

// ErrPlanPurchaseNotFound is returned when a plan purchase is not found.
var ErrPlanPurchaseNotFound = errors.New("plan purchase not found")

// PlanPurchaseRepository reads plan purchases written by the purchase flow.
type PlanPurchaseRepository interface {
	// FindPlanPurchaseByID retrieves a plan purchase by its unique ID.
	FindPlanPurchaseByID(ctx context.Context, id uuid.UUID) (*entity.PlanPurchase, error)
}
