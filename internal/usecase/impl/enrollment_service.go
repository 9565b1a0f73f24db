package impl

import (
	"context"

	"enrollment/internal/domain/entity"
	"enrollment/internal/domain/repository"
	"enrollment/internal/usecase"

	"github.com/google/uuid"
)

// enrollmentService derives the enrollment gate from member rows on every call.
type enrollmentService struct {
	memberRepo   repository.MemberRepository
	purchaseRepo repository.PlanPurchaseRepository
}

// NewEnrollmentService is the constructor for enrollmentService.
func NewEnrollmentService(memberRepo repository.MemberRepository, purchaseRepo repository.PlanPurchaseRepository) usecase.EnrollmentUsecase {
	return &enrollmentService{
		memberRepo:   memberRepo,
		purchaseRepo: purchaseRepo,
	}
}

func (srv *enrollmentService) IsFullyEnrolled(ctx context.Context, planPurchaseID uuid.UUID) (bool, error) {
	status, err := srv.Status(ctx, planPurchaseID)
	if err != nil {
		return false, err
	}

	return status.FullyEnrolled, nil
}

func (srv *enrollmentService) Progress(ctx context.Context, planPurchaseID uuid.UUID) (float64, error) {
	status, err := srv.Status(ctx, planPurchaseID)
	if err != nil {
		return 0, err
	}

	return status.Progress, nil
}

func (srv *enrollmentService) NextUnlockedSlot(ctx context.Context, planPurchaseID uuid.UUID) (entity.RelationSlot, bool, error) {
	status, err := srv.Status(ctx, planPurchaseID)
	if err != nil {
		return "", false, err
	}
	if status.NextUnlockedSlot == nil {
		return "", false, nil
	}

	return *status.NextUnlockedSlot, true, nil
}

// Status reads the purchase and its members once and derives every gate value.
func (srv *enrollmentService) Status(ctx context.Context, planPurchaseID uuid.UUID) (*usecase.EnrollmentStatus, error) {
	purchase, err := srv.purchaseRepo.FindPlanPurchaseByID(ctx, planPurchaseID)
	if err != nil {
		return nil, translateRepoError(err, "failed to find plan purchase")
	}
	members, err := srv.memberRepo.FindMembersByPlanPurchase(ctx, planPurchaseID)
	if err != nil {
		return nil, translateRepoError(err, "failed to find members")
	}

	return deriveStatus(purchase, members), nil
}

func deriveStatus(purchase *entity.PlanPurchase, members []*entity.Member) *usecase.EnrollmentStatus {
	lockedSlots := make(map[entity.RelationSlot]bool, len(members))
	locked := 0
	for _, member := range members {
		if member.IsLocked() {
			locked++
			lockedSlots[member.RelationSlot] = true
		}
	}

	status := &usecase.EnrollmentStatus{
		PlanPurchaseID: purchase.ID,
		MandatoryCount: purchase.MandatoryMemberCount,
		LockedCount:    locked,
		FullyEnrolled:  locked >= purchase.MandatoryMemberCount,
		Progress:       1,
	}
	if purchase.MandatoryMemberCount > 0 {
		status.Progress = min(1, float64(locked)/float64(purchase.MandatoryMemberCount))
	}
	for _, slot := range purchase.RelationSlots {
		if !lockedSlots[slot] {
			status.NextUnlockedSlot = &slot

			break
		}
	}

	return status
}
