package impl

import (
	"context"
	"sync"
	"testing"
	"time"

	"enrollment/internal/domain/constants"
	"enrollment/internal/domain/entity"
	domainerrors "enrollment/internal/domain/errors"
	"enrollment/internal/domain/service"
	"enrollment/internal/infra/persistence/model"
	"enrollment/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCardService_RequestCardNeedsLockedMember(t *testing.T) {
	fx := newEnrollmentFixtures(t)
	ctx := t.Context()
	purchase := fx.seedPurchase(t, 1, "self")
	member, err := fx.members.CreateMember(ctx, purchase.ID, "self")
	require.NoError(t, err)
	_, err = fx.members.SaveDraft(ctx, member.ID, completeFields())
	require.NoError(t, err)

	_, err = fx.cards.RequestCard(ctx, member.ID)
	require.ErrorIs(t, err, domainerrors.ErrMemberNotLocked)

	_, err = fx.members.CommitAndLock(ctx, member.ID, nil)
	require.NoError(t, err)

	var published *service.CardRequestedEvent
	fx.publisher.EXPECT().
		PublishCardRequested(mock.Anything, mock.AnythingOfType("*service.CardRequestedEvent")).
		Run(func(_ context.Context, event *service.CardRequestedEvent) { published = event }).
		Return(nil).
		Once()

	card, err := fx.cards.RequestCard(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ECardStatusPending, card.Status)
	assert.Equal(t, member.ID, card.MemberID)
	assert.Equal(t, "Asha Verma", card.Snapshot.FullName)
	assert.Equal(t, "POL-2026-0001", card.Snapshot.PolicyNumber)
	assert.Equal(t, purchase.ExpiresAt, card.ValidTill)

	require.NotNil(t, published)
	assert.Equal(t, card.ID.String(), published.CardID)
	assert.Equal(t, card.CardUniqueID, published.CardUniqueID)

	stored, err := fx.members.GetMember(ctx, member.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CardID)
	assert.Equal(t, card.ID, *stored.CardID)
}

func TestCardService_SecondRequestIsRejected(t *testing.T) {
	fx := newEnrollmentFixtures(t)
	fx.expectPublishes()
	ctx := t.Context()
	purchase := fx.seedPurchase(t, 1, "self")
	member := fx.lockedMember(t, purchase, "self")

	_, err := fx.cards.RequestCard(ctx, member.ID)
	require.NoError(t, err)

	_, err = fx.cards.RequestCard(ctx, member.ID)
	assert.ErrorIs(t, err, domainerrors.ErrCardAlreadyIssued)
}

func TestCardService_ConcurrentRequestsIssueOneCard(t *testing.T) {
	fx := newEnrollmentFixtures(t)
	fx.expectPublishes()
	ctx := t.Context()
	purchase := fx.seedPurchase(t, 1, "self")
	member := fx.lockedMember(t, purchase, "self")

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.cards.RequestCard(ctx, member.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domainerrors.ErrCardAlreadyIssued):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, callers-1, rejected)

	var count int64
	require.NoError(t, fx.db.Model(&model.ECardModel{}).Where("member_id = ?", member.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCardService_RequestCardOnExpiredPlan(t *testing.T) {
	fx := newEnrollmentFixtures(t)
	ctx := t.Context()
	purchase := fx.seedPurchase(t, 1, "self")
	member := fx.lockedMember(t, purchase, "self")

	fx.clock.At = purchase.ExpiresAt

	_, err := fx.cards.RequestCard(ctx, member.ID)
	assert.ErrorIs(t, err, domainerrors.ErrPlanExpired)

	_, err = fx.cards.GetCardByMember(ctx, member.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestCardService_PublishFailureKeepsCardPending(t *testing.T) {
	fx := newEnrollmentFixtures(t)
	ctx := t.Context()
	purchase := fx.seedPurchase(t, 1, "self")
	member := fx.lockedMember(t, purchase, "self")

	fx.publisher.EXPECT().
		PublishCardRequested(mock.Anything, mock.Anything).
		Return(errors.New("topic unavailable")).
		Once()

	card, err := fx.cards.RequestCard(ctx, member.ID)
	require.NoError(t, err)

	stored, err := fx.cards.GetCardByMember(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, card.ID, stored.ID)
	assert.Equal(t, entity.ECardStatusPending, stored.Status)
}

func TestCardService_ConfirmCardIsIdempotent(t *testing.T) {
	fx := newEnrollmentFixtures(t)
	fx.expectPublishes()
	ctx := t.Context()
	purchase := fx.seedPurchase(t, 1, "self")
	member := fx.lockedMember(t, purchase, "self")
	card, err := fx.cards.RequestCard(ctx, member.ID)
	require.NoError(t, err)

	fx.clock.Advance(time.Minute)
	first, err := fx.cards.ConfirmCard(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, first.IsActive())
	require.NotNil(t, first.ActivatedAt)

	fx.clock.Advance(time.Minute)
	second, err := fx.cards.ConfirmCard(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, second.IsActive())
	assert.True(t, first.ActivatedAt.Equal(*second.ActivatedAt))

	_, err = fx.cards.ConfirmCard(ctx, uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestCardService_GenerateCard(t *testing.T) {
	fx := newEnrollmentFixtures(t)
	fx.expectPublishes()
	ctx := t.Context()
	purchase := fx.seedPurchase(t, 1, "self")
	member := fx.lockedMember(t, purchase, "self")
	card, err := fx.cards.RequestCard(ctx, member.ID)
	require.NoError(t, err)

	fx.qr.EXPECT().
		GenerateCardQR(mock.MatchedBy(func(p *service.CardVerification) bool {
			return p.CardUniqueID == card.CardUniqueID &&
				p.VerifyURL == "https://cards.example.com/verify/"+card.CardUniqueID
		})).
		Return([]byte("png"), nil).
		Once()

	generated, err := fx.cards.GenerateCard(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, generated.IsActive())

	// redelivery does not render again
	again, err := fx.cards.GenerateCard(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, again.IsActive())
}

func TestCardService_GenerateCardRenderFailureKeepsPending(t *testing.T) {
	fx := newEnrollmentFixtures(t)
	fx.expectPublishes()
	ctx := t.Context()
	purchase := fx.seedPurchase(t, 1, "self")
	member := fx.lockedMember(t, purchase, "self")
	card, err := fx.cards.RequestCard(ctx, member.ID)
	require.NoError(t, err)

	fx.qr.EXPECT().GenerateCardQR(mock.Anything).Return(nil, errors.New("encoder failed")).Once()

	_, err = fx.cards.GenerateCard(ctx, card.ID)
	require.Error(t, err)

	stored, err := fx.cards.GetCard(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ECardStatusPending, stored.Status)
}

func TestCardService_SyncConfirmation(t *testing.T) {
	fx := newEnrollmentFixtures(t, withConfirmationMode(constants.CardConfirmationSync))
	ctx := t.Context()
	purchase := fx.seedPurchase(t, 1, "self")
	member := fx.lockedMember(t, purchase, "self")

	fx.qr.EXPECT().GenerateCardQR(mock.Anything).Return([]byte("png"), nil).Once()

	card, err := fx.cards.RequestCard(ctx, member.ID)
	require.NoError(t, err)
	assert.True(t, card.IsActive())
}

func TestCardService_RenderCardQR(t *testing.T) {
	fx := newEnrollmentFixtures(t)
	fx.expectPublishes()
	ctx := t.Context()
	purchase := fx.seedPurchase(t, 1, "self")
	member := fx.lockedMember(t, purchase, "self")
	card, err := fx.cards.RequestCard(ctx, member.ID)
	require.NoError(t, err)

	fx.qr.EXPECT().GenerateCardQR(mock.Anything).Return([]byte("png-bytes"), nil).Once()

	qr, err := fx.cards.RenderCardQR(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), qr)

	_, err = fx.cards.RenderCardQR(ctx, uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrCardNotFound)
}

func TestCardService_VerifyCard(t *testing.T) {
	fx := newEnrollmentFixtures(t, withConfirmationMode(constants.CardConfirmationSync))
	ctx := t.Context()
	purchase := fx.seedPurchase(t, 1, "self")
	member := fx.lockedMember(t, purchase, "self")

	fx.qr.EXPECT().GenerateCardQR(mock.Anything).Return([]byte("png"), nil).Once()
	card, err := fx.cards.RequestCard(ctx, member.ID)
	require.NoError(t, err)
	require.True(t, card.IsActive())

	scanned := &service.CardVerification{CardUniqueID: card.CardUniqueID, MemberID: member.ID, ValidTill: card.ValidTill}
	fx.qr.EXPECT().ParseCardQR("scanned").Return(scanned, nil)

	check, err := fx.cards.VerifyCard(ctx, "scanned")
	require.NoError(t, err)
	assert.Equal(t, usecase.CardStandingValid, check.Standing)
	assert.Equal(t, card.ID, check.Card.ID)

	fx.clock.Advance(card.ValidTill.Sub(fx.clock.Now()) + time.Hour)
	check, err = fx.cards.VerifyCard(ctx, "scanned")
	require.NoError(t, err)
	assert.Equal(t, usecase.CardStandingExpired, check.Standing)

	fx.qr.EXPECT().ParseCardQR("forged").
		Return(&service.CardVerification{CardUniqueID: "EC-2026-FFFFFFFF", MemberID: member.ID}, nil)
	_, err = fx.cards.VerifyCard(ctx, "forged")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	fx.qr.EXPECT().ParseCardQR("garbage").Return(nil, errors.New("not json"))
	_, err = fx.cards.VerifyCard(ctx, "garbage")
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}
