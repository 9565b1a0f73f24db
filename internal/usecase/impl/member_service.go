package impl

import (
	"context"
	"log/slog"
	"sort"

	"enrollment/config"
	deliverycontext "enrollment/internal/delivery/context"
	"enrollment/internal/domain/entity"
	domainerrors "enrollment/internal/domain/errors"
	"enrollment/internal/domain/repository"
	"enrollment/internal/domain/service"
	"enrollment/internal/domain/validation"
	"enrollment/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// memberService implements the MemberUsecase interface.
type memberService struct {
	memberRepo                 repository.MemberRepository
	purchaseRepo               repository.PlanPurchaseRepository
	clock                      service.Clock
	allowOptionalEditAfterLock bool
	logger                     *slog.Logger
}

// MemberServiceParams holds dependencies for MemberService, injected by Fx.
type MemberServiceParams struct {
	fx.In

	MemberRepo   repository.MemberRepository
	PurchaseRepo repository.PlanPurchaseRepository
	Clock        service.Clock
	Config       *config.Config
	Logger       *slog.Logger
}

// NewMemberService is the constructor for memberService.
func NewMemberService(params MemberServiceParams) usecase.MemberUsecase {
	allowOptionalEdit := true
	if params.Config != nil && params.Config.Enrollment != nil {
		allowOptionalEdit = params.Config.Enrollment.AllowOptionalEditAfterLock
	}

	return &memberService{
		memberRepo:                 params.MemberRepo,
		purchaseRepo:               params.PurchaseRepo,
		clock:                      params.Clock,
		allowOptionalEditAfterLock: allowOptionalEdit,
		logger:                     params.Logger,
	}
}

// CreateMember creates an empty member in one of the purchase's relation slots.
func (srv *memberService) CreateMember(ctx context.Context, planPurchaseID uuid.UUID, slot entity.RelationSlot) (*entity.Member, error) {
	purchase, err := srv.purchaseRepo.FindPlanPurchaseByID(ctx, planPurchaseID)
	if err != nil {
		return nil, translateRepoError(err, "failed to find plan purchase")
	}
	if !purchase.HasSlot(slot) {
		return nil, validationFailed([]validation.FieldError{validation.InvalidSlot(slot)})
	}

	member := &entity.Member{
		ID:             uuid.New(),
		PlanPurchaseID: planPurchaseID,
		RelationSlot:   slot,
		LockState:      entity.LockStateEmpty,
	}
	if err := srv.memberRepo.CreateMember(ctx, member); err != nil {
		return nil, translateRepoError(err, "failed to create member")
	}

	srv.log(ctx).Info("Member created",
		slog.String("member_id", member.ID.String()),
		slog.String("plan_purchase_id", planPurchaseID.String()),
		slog.String("relation_slot", string(slot)),
	)

	return member, nil
}

// ProvisionMembers fills every free relation slot with an empty member.
// A slot taken concurrently is not an error.
func (srv *memberService) ProvisionMembers(ctx context.Context, planPurchaseID uuid.UUID) ([]*entity.Member, error) {
	purchase, err := srv.purchaseRepo.FindPlanPurchaseByID(ctx, planPurchaseID)
	if err != nil {
		return nil, translateRepoError(err, "failed to find plan purchase")
	}

	existing, err := srv.memberRepo.FindMembersByPlanPurchase(ctx, planPurchaseID)
	if err != nil {
		return nil, translateRepoError(err, "failed to find members")
	}
	taken := make(map[entity.RelationSlot]bool, len(existing))
	for _, member := range existing {
		taken[member.RelationSlot] = true
	}

	created := 0
	for _, slot := range purchase.RelationSlots {
		if taken[slot] {
			continue
		}
		member := &entity.Member{
			ID:             uuid.New(),
			PlanPurchaseID: planPurchaseID,
			RelationSlot:   slot,
			LockState:      entity.LockStateEmpty,
		}
		if err := srv.memberRepo.CreateMember(ctx, member); err != nil {
			if errors.Is(err, repository.ErrDuplicateSlot) {
				continue
			}

			return nil, translateRepoError(err, "failed to provision member")
		}
		created++
	}

	if created > 0 {
		srv.log(ctx).Info("Members provisioned",
			slog.String("plan_purchase_id", planPurchaseID.String()),
			slog.Int("created", created),
		)
	}

	return srv.ListMembers(ctx, planPurchaseID)
}

// SaveDraft validates the supplied fields and stores them all or none.
func (srv *memberService) SaveDraft(ctx context.Context, memberID uuid.UUID, fields entity.FieldValues) (*entity.Member, error) {
	member, err := srv.memberRepo.FindMemberByID(ctx, memberID)
	if err != nil {
		return nil, translateRepoError(err, "failed to find member")
	}
	if err := srv.checkEditable(member, fields); err != nil {
		return nil, err
	}

	canonical, fieldErrs := validation.Draft(fields, srv.clock.Now())
	if len(fieldErrs) > 0 {
		return nil, validationFailed(fieldErrs)
	}
	if len(canonical) == 0 {
		// Nothing to store; an empty member stays empty.
		return member, nil
	}
	names := orderedFields(canonical)

	if member.IsLocked() {
		return srv.updateOptionalFields(ctx, member, canonical, names)
	}

	if err := member.Apply(canonical); err != nil {
		return nil, errors.Wrap(err, "failed to apply draft")
	}
	err = srv.memberRepo.SaveDraft(ctx, member, names)
	if errors.Is(err, repository.ErrMemberLocked) {
		// Locked between our read and the conditional write.
		current, findErr := srv.memberRepo.FindMemberByID(ctx, memberID)
		if findErr != nil {
			return nil, translateRepoError(findErr, "failed to reload member")
		}
		if err := srv.checkEditable(current, fields); err != nil {
			return nil, err
		}

		return srv.updateOptionalFields(ctx, current, canonical, names)
	}
	if err != nil {
		return nil, translateRepoError(err, "failed to save draft")
	}
	member.LockState = entity.LockStateDraft

	srv.log(ctx).Debug("Member draft saved",
		slog.String("member_id", memberID.String()),
		slog.Int("fields", len(names)),
	)

	return member, nil
}

// CommitAndLock validates the merged record and locks it in one conditional write.
func (srv *memberService) CommitAndLock(ctx context.Context, memberID uuid.UUID, fields entity.FieldValues) (*entity.Member, error) {
	member, err := srv.memberRepo.FindMemberByID(ctx, memberID)
	if err != nil {
		return nil, translateRepoError(err, "failed to find member")
	}
	if member.IsLocked() {
		return nil, errors.WithStack(domainerrors.ErrMemberLocked)
	}

	now := srv.clock.Now()
	canonical, fieldErrs := validation.Lock(member.Values().Merge(fields), now)
	if len(fieldErrs) > 0 {
		return nil, validationFailed(fieldErrs)
	}
	if err := member.Apply(canonical); err != nil {
		return nil, errors.Wrap(err, "failed to apply member fields")
	}

	if err := srv.memberRepo.LockMember(ctx, member, now); err != nil {
		return nil, translateRepoError(err, "failed to lock member")
	}
	member.LockState = entity.LockStateLocked
	member.LockedAt = &now

	srv.log(ctx).Info("Member locked",
		slog.String("member_id", memberID.String()),
		slog.String("plan_purchase_id", member.PlanPurchaseID.String()),
	)

	return member, nil
}

// GetMember retrieves a member.
func (srv *memberService) GetMember(ctx context.Context, memberID uuid.UUID) (*entity.Member, error) {
	member, err := srv.memberRepo.FindMemberByID(ctx, memberID)
	if err != nil {
		return nil, translateRepoError(err, "failed to find member")
	}

	return member, nil
}

// ListMembers returns the purchase's members in the purchase's slot order.
func (srv *memberService) ListMembers(ctx context.Context, planPurchaseID uuid.UUID) ([]*entity.Member, error) {
	purchase, err := srv.purchaseRepo.FindPlanPurchaseByID(ctx, planPurchaseID)
	if err != nil {
		return nil, translateRepoError(err, "failed to find plan purchase")
	}

	members, err := srv.memberRepo.FindMembersByPlanPurchase(ctx, planPurchaseID)
	if err != nil {
		return nil, translateRepoError(err, "failed to find members")
	}
	sortBySlot(purchase, members)

	return members, nil
}

// checkEditable rejects changes a locked member no longer accepts.
func (srv *memberService) checkEditable(member *entity.Member, fields entity.FieldValues) error {
	if !member.IsLocked() {
		return nil
	}
	if !srv.allowOptionalEditAfterLock {
		return errors.WithStack(domainerrors.ErrMemberLocked)
	}
	for name := range fields {
		if name.IsKnown() && name.IsMandatory() {
			return errors.Wrapf(domainerrors.ErrMemberLocked, "field %s", name)
		}
	}

	return nil
}

func (srv *memberService) updateOptionalFields(ctx context.Context, member *entity.Member, canonical entity.FieldValues, names []entity.FieldName) (*entity.Member, error) {
	if err := member.Apply(canonical); err != nil {
		return nil, errors.Wrap(err, "failed to apply optional fields")
	}
	if err := srv.memberRepo.UpdateOptionalFields(ctx, member, names); err != nil {
		return nil, translateRepoError(err, "failed to update optional fields")
	}

	return member, nil
}

func (srv *memberService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// orderedFields returns the keys of values in display order.
func orderedFields(values entity.FieldValues) []entity.FieldName {
	names := make([]entity.FieldName, 0, len(values))
	for _, name := range entity.AllFields {
		if _, ok := values[name]; ok {
			names = append(names, name)
		}
	}

	return names
}

// sortBySlot orders members like the purchase's relation slots. Members in a
// slot the purchase no longer lists go last.
func sortBySlot(purchase *entity.PlanPurchase, members []*entity.Member) {
	rank := func(m *entity.Member) int {
		if idx := purchase.SlotIndex(m.RelationSlot); idx >= 0 {
			return idx
		}

		return len(purchase.RelationSlots)
	}
	sort.SliceStable(members, func(i, j int) bool {
		return rank(members[i]) < rank(members[j])
	})
}
