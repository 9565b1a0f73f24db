package usecase

import (
	"context"

	"enrollment/internal/domain/entity"
	"enrollment/internal/domain/wizard"

	"github.com/google/uuid"
)

// WizardCommand is the outcome of a completed wizard pass.
type WizardCommand struct {
	MemberID     uuid.UUID
	Fields       entity.FieldValues
	Acknowledged bool
}

// WizardResult is what a successful commit produced.
type WizardResult struct {
	Member *entity.Member `json:"member"`
	Card   *entity.ECard  `json:"card"`
}

// WizardUsecase backs the "generate card" wizard.
type WizardUsecase interface {
	// Start lists the purchase's members for the selection step.
	Start(ctx context.Context, planPurchaseID uuid.UUID) ([]wizard.Candidate, error)

	// Commit locks the member (unless already locked) and requests the card.
	Commit(ctx context.Context, cmd *WizardCommand) (*WizardResult, error)
}
