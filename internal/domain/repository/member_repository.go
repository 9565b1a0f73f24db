// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"
	"time"

	"enrollment/internal/domain/entity"
	"enrollment/internal/errors"

	"github.com/google/uuid"
)

// Domain-specific errors for member persistence.
var (
	// ErrMemberNotFound is returned when a member is not found.
	ErrMemberNotFound = errors.New("member not found")
	// ErrDuplicateSlot is returned when the relation slot of a plan purchase is already taken.
	ErrDuplicateSlot = errors.New("relation slot already occupied")
	// ErrMemberLocked is returned when a conditional write finds the member already locked.
	ErrMemberLocked = errors.New("member is locked")
	// ErrMemberNotLocked is returned when attaching a card to a member that is not locked.
	ErrMemberNotLocked = errors.New("member is not locked")
	// ErrCardAlreadyAttached is returned when the member already references a card.
	ErrCardAlreadyAttached = errors.New("member already has a card")
)

// MemberRepository defines the interface for member-related database operations.
// Every state-changing write is conditional on the stored lock state, so two
// concurrent callers can never both move a member into locked.
type MemberRepository interface {
	// CreateMember persists a new empty member.
	CreateMember(ctx context.Context, member *entity.Member) error

	// FindMemberByID retrieves a member by its unique ID.
	FindMemberByID(ctx context.Context, id uuid.UUID) (*entity.Member, error)

	// FindMembersByPlanPurchase retrieves all members of a plan purchase.
	FindMembersByPlanPurchase(ctx context.Context, planPurchaseID uuid.UUID) ([]*entity.Member, error)

	// SaveDraft writes the given fields of member and moves it to draft,
	// only while the stored member is not locked.
	SaveDraft(ctx context.Context, member *entity.Member, fields []entity.FieldName) error

	// UpdateOptionalFields writes the given fields without touching the lock state.
	UpdateOptionalFields(ctx context.Context, member *entity.Member, fields []entity.FieldName) error

	// LockMember writes every field of member and sets it locked, only while
	// the stored member is not locked yet.
	LockMember(ctx context.Context, member *entity.Member, lockedAt time.Time) error

	// AttachCard sets the card reference of a locked member that has none.
	AttachCard(ctx context.Context, memberID, cardID uuid.UUID) error
}
