package usecase

import (
	"context"

	"enrollment/internal/domain/entity"

	"github.com/google/uuid"
)

// CardStanding is the outcome of verifying a scanned card.
type CardStanding string

const (
	CardStandingValid   CardStanding = "valid"
	CardStandingPending CardStanding = "pending"
	CardStandingExpired CardStanding = "expired"
)

// CardCheck is the result of VerifyCard.
type CardCheck struct {
	Card     *entity.ECard `json:"card"`
	Standing CardStanding  `json:"standing"`
}

// CardUsecase defines the E-Card issuance state machine: none, pending, active.
type CardUsecase interface {
	// RequestCard creates the pending card of a locked member.
	RequestCard(ctx context.Context, memberID uuid.UUID) (*entity.ECard, error)

	// ConfirmCard activates a pending card. Confirming an active card returns it unchanged.
	ConfirmCard(ctx context.Context, cardID uuid.UUID) (*entity.ECard, error)

	// GenerateCard renders the card artwork and confirms it.
	GenerateCard(ctx context.Context, cardID uuid.UUID) (*entity.ECard, error)

	// GetCard retrieves a card.
	GetCard(ctx context.Context, cardID uuid.UUID) (*entity.ECard, error)

	// GetCardByMember retrieves the card issued to a member.
	GetCardByMember(ctx context.Context, memberID uuid.UUID) (*entity.ECard, error)

	// RenderCardQR returns the PNG QR code printed on the card.
	RenderCardQR(ctx context.Context, cardID uuid.UUID) ([]byte, error)

	// VerifyCard resolves the text of a scanned card QR code to the card and its standing.
	VerifyCard(ctx context.Context, qrData string) (*CardCheck, error)
}
