package impl

import (
	"context"
	"log/slog"
	"strings"

	"enrollment/config"
	deliverycontext "enrollment/internal/delivery/context"
	"enrollment/internal/domain/constants"
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

// cardService implements the CardUsecase interface.
type cardService struct {
	txManager        repository.TransactionManager
	memberRepo       repository.MemberRepository
	cardRepo         repository.ECardRepository
	purchaseRepo     repository.PlanPurchaseRepository
	publisher        service.EventPublisher
	qrService        service.QRCodeService
	clock            service.Clock
	confirmationMode string
	verifyBaseURL    string
	logger           *slog.Logger
}

// CardServiceParams holds dependencies for CardService, injected by Fx.
type CardServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	MemberRepo   repository.MemberRepository
	CardRepo     repository.ECardRepository
	PurchaseRepo repository.PlanPurchaseRepository
	Publisher    service.EventPublisher
	QRService    service.QRCodeService
	Clock        service.Clock
	Config       *config.Config
	Logger       *slog.Logger
}

// NewCardService is the constructor for cardService.
func NewCardService(params CardServiceParams) usecase.CardUsecase {
	confirmationMode := constants.CardConfirmationAsync
	verifyBaseURL := ""
	if params.Config != nil && params.Config.Card != nil {
		if params.Config.Card.ConfirmationMode != "" {
			confirmationMode = params.Config.Card.ConfirmationMode
		}
		verifyBaseURL = params.Config.Card.VerifyBaseURL
	}

	return &cardService{
		txManager:        params.TxManager,
		memberRepo:       params.MemberRepo,
		cardRepo:         params.CardRepo,
		purchaseRepo:     params.PurchaseRepo,
		publisher:        params.Publisher,
		qrService:        params.QRService,
		clock:            params.Clock,
		confirmationMode: confirmationMode,
		verifyBaseURL:    strings.TrimRight(verifyBaseURL, "/"),
		logger:           params.Logger,
	}
}

// RequestCard creates the pending card of a locked member. The card insert and
// the member's card reference are written in one transaction; the unique index
// on e_cards.member_id decides concurrent requests.
func (srv *cardService) RequestCard(ctx context.Context, memberID uuid.UUID) (*entity.ECard, error) {
	member, err := srv.memberRepo.FindMemberByID(ctx, memberID)
	if err != nil {
		return nil, translateRepoError(err, "failed to find member")
	}
	if !member.IsLocked() {
		return nil, errors.WithStack(domainerrors.ErrMemberNotLocked)
	}
	if member.HasCard() {
		return nil, errors.WithStack(domainerrors.ErrCardAlreadyIssued)
	}

	purchase, err := srv.purchaseRepo.FindPlanPurchaseByID(ctx, member.PlanPurchaseID)
	if err != nil {
		return nil, translateRepoError(err, "failed to find plan purchase")
	}
	now := srv.clock.Now()
	if purchase.IsExpiredAt(now) {
		return nil, errors.WithStack(domainerrors.ErrPlanExpired)
	}

	card := entity.NewECard(member, purchase, now)
	if err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.NewECardRepository().CreateCard(ctx, card); err != nil {
			return err
		}

		return repoFactory.NewMemberRepository().AttachCard(ctx, member.ID, card.ID)
	}); err != nil {
		return nil, translateRepoError(err, "failed to create card")
	}

	logger := srv.log(ctx).With(
		slog.String("card_id", card.ID.String()),
		slog.String("member_id", memberID.String()),
	)
	logger.Info("Card requested", slog.String("card_unique_id", card.CardUniqueID))

	if srv.confirmationMode == constants.CardConfirmationSync {
		confirmed, err := srv.GenerateCard(ctx, card.ID)
		if err != nil {
			// The card row is committed; it stays pending until confirmed again.
			logger.Error("Failed to confirm card", slog.Any("error", err))

			return card, nil
		}

		return confirmed, nil
	}

	srv.publishRequested(ctx, logger, card)

	return card, nil
}

// ConfirmCard activates a pending card. Push delivery is at-least-once, so an
// already active card is returned as is.
func (srv *cardService) ConfirmCard(ctx context.Context, cardID uuid.UUID) (*entity.ECard, error) {
	err := srv.cardRepo.ActivateCard(ctx, cardID, srv.clock.Now())
	if err != nil && !errors.Is(err, repository.ErrCardAlreadyActive) {
		return nil, translateRepoError(err, "failed to activate card")
	}
	alreadyActive := err != nil

	card, err := srv.cardRepo.FindCardByID(ctx, cardID)
	if err != nil {
		return nil, translateRepoError(err, "failed to find card")
	}

	if !alreadyActive {
		srv.log(ctx).Info("Card activated",
			slog.String("card_id", cardID.String()),
			slog.String("member_id", card.MemberID.String()),
		)
	}

	return card, nil
}

// GenerateCard renders the card QR and activates the card.
func (srv *cardService) GenerateCard(ctx context.Context, cardID uuid.UUID) (*entity.ECard, error) {
	card, err := srv.cardRepo.FindCardByID(ctx, cardID)
	if err != nil {
		return nil, translateRepoError(err, "failed to find card")
	}
	if card.IsActive() {
		return card, nil
	}

	qr, err := srv.qrService.GenerateCardQR(srv.verification(card))
	if err != nil {
		return nil, errors.Wrap(err, "failed to render card QR")
	}
	srv.log(ctx).Debug("Card QR rendered",
		slog.String("card_id", cardID.String()),
		slog.Int("bytes", len(qr)),
	)

	return srv.ConfirmCard(ctx, cardID)
}

// GetCard retrieves a card.
func (srv *cardService) GetCard(ctx context.Context, cardID uuid.UUID) (*entity.ECard, error) {
	card, err := srv.cardRepo.FindCardByID(ctx, cardID)
	if err != nil {
		return nil, translateRepoError(err, "failed to find card")
	}

	return card, nil
}

// GetCardByMember retrieves the card issued to a member.
func (srv *cardService) GetCardByMember(ctx context.Context, memberID uuid.UUID) (*entity.ECard, error) {
	card, err := srv.cardRepo.FindCardByMemberID(ctx, memberID)
	if err != nil {
		return nil, translateRepoError(err, "failed to find card by member")
	}

	return card, nil
}

// RenderCardQR returns the PNG QR code printed on the card.
func (srv *cardService) RenderCardQR(ctx context.Context, cardID uuid.UUID) ([]byte, error) {
	card, err := srv.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}

	qr, err := srv.qrService.GenerateCardQR(srv.verification(card))
	if err != nil {
		return nil, errors.Wrap(err, "failed to render card QR")
	}

	return qr, nil
}

// VerifyCard resolves a scanned QR payload. A payload whose unique id does not
// match the member's card is reported as not found.
func (srv *cardService) VerifyCard(ctx context.Context, qrData string) (*usecase.CardCheck, error) {
	payload, err := srv.qrService.ParseCardQR(qrData)
	if err != nil {
		return nil, validationFailed([]validation.FieldError{{
			Field:   "qr_data",
			Reason:  validation.ReasonInvalidFormat,
			Message: "is not a card QR code",
		}})
	}

	card, err := srv.GetCardByMember(ctx, payload.MemberID)
	if err != nil {
		return nil, err
	}
	if card.CardUniqueID != payload.CardUniqueID {
		return nil, errors.Wrap(domainerrors.ErrCardNotFound, "card unique id mismatch")
	}

	standing := usecase.CardStandingValid
	switch {
	case !card.IsActive():
		standing = usecase.CardStandingPending
	case !srv.clock.Now().Before(card.ValidTill):
		standing = usecase.CardStandingExpired
	}

	return &usecase.CardCheck{Card: card, Standing: standing}, nil
}

func (srv *cardService) verification(card *entity.ECard) *service.CardVerification {
	payload := &service.CardVerification{
		CardUniqueID: card.CardUniqueID,
		MemberID:     card.MemberID,
		ValidTill:    card.ValidTill,
	}
	if srv.verifyBaseURL != "" {
		payload.VerifyURL = srv.verifyBaseURL + "/" + card.CardUniqueID
	}

	return payload
}

// publishRequested hands the card to the card worker. A failed publish leaves
// the card pending; the confirm endpoint can still activate it.
func (srv *cardService) publishRequested(ctx context.Context, logger *slog.Logger, card *entity.ECard) {
	event := &service.CardRequestedEvent{
		RequestID:      deliverycontext.GetRequestIDFromContext(ctx),
		CardID:         card.ID.String(),
		MemberID:       card.MemberID.String(),
		PlanPurchaseID: card.PlanPurchaseID.String(),
		CardUniqueID:   card.CardUniqueID,
	}
	if err := srv.publisher.PublishCardRequested(ctx, event); err != nil {
		logger.Error("Failed to publish card request", slog.Any("error", err))
	}
}

func (srv *cardService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}
