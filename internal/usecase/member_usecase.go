package usecase

import (
	"context"

	"enrollment/internal/domain/entity"

	"github.com/google/uuid"
)

// MemberUsecase defines the member record store: creation, drafts and locking.
type MemberUsecase interface {
	// CreateMember creates an empty member in one of the purchase's relation slots.
	CreateMember(ctx context.Context, planPurchaseID uuid.UUID, slot entity.RelationSlot) (*entity.Member, error)

	// ProvisionMembers creates an empty member for every relation slot that has none.
	// It is safe to call repeatedly.
	ProvisionMembers(ctx context.Context, planPurchaseID uuid.UUID) ([]*entity.Member, error)

	// SaveDraft validates and stores the supplied fields. An empty value clears the field.
	SaveDraft(ctx context.Context, memberID uuid.UUID, fields entity.FieldValues) (*entity.Member, error)

	// CommitAndLock merges fields over the stored draft, validates the whole
	// record and locks the member.
	CommitAndLock(ctx context.Context, memberID uuid.UUID, fields entity.FieldValues) (*entity.Member, error)

	// GetMember retrieves a member.
	GetMember(ctx context.Context, memberID uuid.UUID) (*entity.Member, error)

	// ListMembers retrieves the members of a plan purchase in relation slot order.
	ListMembers(ctx context.Context, planPurchaseID uuid.UUID) ([]*entity.Member, error)
}
