package impl

import (
	"testing"

	"enrollment/internal/domain/entity"
	domainerrors "enrollment/internal/domain/errors"
	"enrollment/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWizardService_StartListsCandidates(t *testing.T) {
	fx := newEnrollmentFixtures(t)
	fx.expectPublishes()
	ctx := t.Context()
	purchase := fx.seedPurchase(t, 2, "self", "spouse")
	member := fx.lockedMember(t, purchase, "self")
	_, err := fx.members.CreateMember(ctx, purchase.ID, "spouse")
	require.NoError(t, err)
	_, err = fx.cards.RequestCard(ctx, member.ID)
	require.NoError(t, err)

	candidates, err := fx.wizard.Start(ctx, purchase.ID)
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, entity.RelationSlot("self"), candidates[0].Member.RelationSlot)
	assert.False(t, candidates[0].Selectable)
	assert.True(t, candidates[1].Selectable)
}

func TestWizardService_CommitLocksAndRequestsCard(t *testing.T) {
	fx := newEnrollmentFixtures(t)
	fx.expectPublishes()
	ctx := t.Context()
	purchase := fx.seedPurchase(t, 1, "self")
	member, err := fx.members.CreateMember(ctx, purchase.ID, "self")
	require.NoError(t, err)

	result, err := fx.wizard.Commit(ctx, &usecase.WizardCommand{
		MemberID:     member.ID,
		Fields:       completeFields(),
		Acknowledged: true,
	})
	require.NoError(t, err)

	assert.True(t, result.Member.IsLocked())
	assert.Equal(t, entity.ECardStatusPending, result.Card.Status)
	require.NotNil(t, result.Member.CardID)
	assert.Equal(t, result.Card.ID, *result.Member.CardID)
}

func TestWizardService_CommitRequiresAcknowledgement(t *testing.T) {
	fx := newEnrollmentFixtures(t)
	ctx := t.Context()
	purchase := fx.seedPurchase(t, 1, "self")
	member, err := fx.members.CreateMember(ctx, purchase.ID, "self")
	require.NoError(t, err)

	_, err = fx.wizard.Commit(ctx, &usecase.WizardCommand{MemberID: member.ID, Fields: completeFields()})
	assert.ErrorIs(t, err, domainerrors.ErrAcknowledgementRequired)

	stored, err := fx.members.GetMember(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LockStateEmpty, stored.LockState)
}

func TestWizardService_CommitValidationFailureDoesNotLock(t *testing.T) {
	fx := newEnrollmentFixtures(t)
	ctx := t.Context()
	purchase := fx.seedPurchase(t, 1, "self")
	member, err := fx.members.CreateMember(ctx, purchase.ID, "self")
	require.NoError(t, err)

	fields := completeFields()
	fields[entity.FieldMobile] = "5123456789"
	_, err = fx.wizard.Commit(ctx, &usecase.WizardCommand{MemberID: member.ID, Fields: fields, Acknowledged: true})

	var validationErr *domainerrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Fields(), 1)
	assert.Equal(t, entity.FieldMobile, validationErr.Fields()[0].Field)

	_, err = fx.cards.GetCardByMember(ctx, member.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestWizardService_LockedMemberSkipsCommitAndLock(t *testing.T) {
	fx := newEnrollmentFixtures(t)
	fx.expectPublishes()
	ctx := t.Context()
	purchase := fx.seedPurchase(t, 1, "self")
	member := fx.lockedMember(t, purchase, "self")

	result, err := fx.wizard.Commit(ctx, &usecase.WizardCommand{
		MemberID:     member.ID,
		Fields:       entity.FieldValues{entity.FieldHeightCm: "168"},
		Acknowledged: true,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Member.LockedAt)
	assert.True(t, member.LockedAt.Equal(*result.Member.LockedAt))
	require.NotNil(t, result.Member.HeightCm)
	assert.InDelta(t, 168.0, *result.Member.HeightCm, 0.001)

	_, err = fx.wizard.Commit(ctx, &usecase.WizardCommand{
		MemberID:     member.ID,
		Fields:       entity.FieldValues{entity.FieldFullName: "Someone Else"},
		Acknowledged: true,
	})
	assert.ErrorIs(t, err, domainerrors.ErrCardAlreadyIssued)
}

func TestWizardService_LockedMemberResubmitsOriginalInput(t *testing.T) {
	fx := newEnrollmentFixtures(t)
	fx.expectPublishes()
	ctx := t.Context()
	purchase := fx.seedPurchase(t, 1, "self")
	member := fx.lockedMember(t, purchase, "self")

	// the stored values are canonical; the wizard receives the raw spellings again
	result, err := fx.wizard.Commit(ctx, &usecase.WizardCommand{
		MemberID:     member.ID,
		Fields:       completeFields(),
		Acknowledged: true,
	})
	require.NoError(t, err)
	assert.Equal(t, member.NationalIDB, result.Member.NationalIDB)
	assert.Equal(t, entity.ECardStatusPending, result.Card.Status)
}

func TestWizardService_LockedMemberRejectsMandatoryChange(t *testing.T) {
	fx := newEnrollmentFixtures(t)
	ctx := t.Context()
	purchase := fx.seedPurchase(t, 1, "self")
	member := fx.lockedMember(t, purchase, "self")

	_, err := fx.wizard.Commit(ctx, &usecase.WizardCommand{
		MemberID:     member.ID,
		Fields:       entity.FieldValues{entity.FieldFullName: "Someone Else"},
		Acknowledged: true,
	})

	assert.ErrorIs(t, err, domainerrors.ErrMemberLocked)
}

func TestWizardService_IssuanceFailureKeepsMemberLocked(t *testing.T) {
	fx := newEnrollmentFixtures(t)
	ctx := t.Context()
	purchase := fx.seedPurchase(t, 1, "self")
	member, err := fx.members.CreateMember(ctx, purchase.ID, "self")
	require.NoError(t, err)
	fx.clock.At = purchase.ExpiresAt.AddDate(0, 0, 1)

	_, err = fx.wizard.Commit(ctx, &usecase.WizardCommand{
		MemberID:     member.ID,
		Fields:       completeFields(),
		Acknowledged: true,
	})

	var issuanceErr *domainerrors.IssuanceError
	require.ErrorAs(t, err, &issuanceErr)
	assert.Equal(t, domainerrors.CodeCardIssuanceFailed, issuanceErr.ErrorCode())
	assert.Equal(t, domainerrors.ActionNone, issuanceErr.Action())
	assert.ErrorIs(t, err, domainerrors.ErrPlanExpired)
	assert.NotErrorIs(t, err, domainerrors.ErrValidationFailed)

	stored, err := fx.members.GetMember(ctx, member.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsLocked())
}
