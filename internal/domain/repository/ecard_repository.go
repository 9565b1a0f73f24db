package repository

import (
	"context"
	"time"

	"enrollment/internal/domain/entity"
	"enrollment/internal/errors"

	"github.com/google/uuid"
)

// Domain-specific errors for card persistence.
var (
	// ErrCardNotFound is returned when a card is not found.
	ErrCardNotFound = errors.New("card not found")
	// ErrDuplicateCard is returned when a card already exists for the member.
	ErrDuplicateCard = errors.New("card already exists for member")
	// ErrCardAlreadyActive is returned when activating a card that is no longer pending.
	ErrCardAlreadyActive = errors.New("card already active")
)

// ECardRepository defines the interface for card-related database operations.
type ECardRepository interface {
	// CreateCard persists a new pending card. The member_id column is unique.
	CreateCard(ctx context.Context, card *entity.ECard) error

	// FindCardByID retrieves a card by its unique ID.
	FindCardByID(ctx context.Context, id uuid.UUID) (*entity.ECard, error)

	// FindCardByMemberID retrieves the card issued to a member.
	FindCardByMemberID(ctx context.Context, memberID uuid.UUID) (*entity.ECard, error)

	// ActivateCard moves a pending card to active.
	ActivateCard(ctx context.Context, id uuid.UUID, activatedAt time.Time) error
}
