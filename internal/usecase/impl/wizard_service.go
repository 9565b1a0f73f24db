package impl

import (
	"context"
	"log/slog"

	deliverycontext "enrollment/internal/delivery/context"
	"enrollment/internal/domain/entity"
	domainerrors "enrollment/internal/domain/errors"
	"enrollment/internal/domain/service"
	"enrollment/internal/domain/validation"
	"enrollment/internal/domain/wizard"
	"enrollment/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// wizardService drives a wizard pass server side and commits it.
type wizardService struct {
	members usecase.MemberUsecase
	cards   usecase.CardUsecase
	clock   service.Clock
	logger  *slog.Logger
}

// WizardServiceParams holds dependencies for WizardService, injected by Fx.
type WizardServiceParams struct {
	fx.In

	Members usecase.MemberUsecase
	Cards   usecase.CardUsecase
	Clock   service.Clock
	Logger  *slog.Logger
}

// NewWizardService is the constructor for wizardService.
func NewWizardService(params WizardServiceParams) usecase.WizardUsecase {
	return &wizardService{
		members: params.Members,
		cards:   params.Cards,
		clock:   params.Clock,
		logger:  params.Logger,
	}
}

// Start lists the members for the selection step; members with a card are disabled.
func (srv *wizardService) Start(ctx context.Context, planPurchaseID uuid.UUID) ([]wizard.Candidate, error) {
	members, err := srv.members.ListMembers(ctx, planPurchaseID)
	if err != nil {
		return nil, err
	}

	return wizard.Candidates(members), nil
}

// Commit replays the submitted pass through the wizard, locks the member when
// needed and requests its card. A card request failure after the lock is
// reported as an IssuanceError; the member stays locked.
func (srv *wizardService) Commit(ctx context.Context, cmd *usecase.WizardCommand) (*usecase.WizardResult, error) {
	ctx, logger := deliverycontext.WithLogAttrs(ctx, srv.logger, slog.String("member_id", cmd.MemberID.String()))

	member, err := srv.members.GetMember(ctx, cmd.MemberID)
	if err != nil {
		return nil, err
	}

	w := wizard.New(srv.clock.Now())
	if err := w.Select(member); err != nil {
		return nil, errors.Wrap(domainerrors.ErrCardAlreadyIssued, err.Error())
	}
	for name, value := range cmd.Fields {
		if err := w.SetField(name, value); err != nil {
			return nil, stepError(name, err)
		}
	}
	fieldErrs, err := w.Advance()
	if err != nil {
		if len(fieldErrs) > 0 {
			return nil, validationFailed(fieldErrs)
		}

		return nil, errors.Wrap(err, "failed to advance wizard")
	}
	if cmd.Acknowledged {
		if err := w.Acknowledge(); err != nil {
			return nil, errors.Wrap(err, "failed to acknowledge")
		}
	}
	if !w.CanCommit() {
		return nil, errors.WithStack(domainerrors.ErrAcknowledgementRequired)
	}

	if member.IsLocked() {
		member, err = srv.saveOptionalChanges(ctx, member, w.Values())
	} else {
		member, err = srv.members.CommitAndLock(ctx, cmd.MemberID, w.Values())
	}
	if err != nil {
		return nil, err
	}

	card, err := srv.cards.RequestCard(ctx, member.ID)
	if err != nil {
		logger.Warn("Wizard card request failed after lock",
			slog.Any("error", err),
		)

		return nil, domainerrors.NewIssuanceError(member.ID.String(), string(member.LockState), err)
	}
	if err := w.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to finish wizard")
	}
	member.CardID = &card.ID

	return &usecase.WizardResult{Member: member, Card: card}, nil
}

// saveOptionalChanges stores the optional fields edited on an already locked member.
func (srv *wizardService) saveOptionalChanges(ctx context.Context, member *entity.Member, values entity.FieldValues) (*entity.Member, error) {
	stored := member.Values()
	changed := entity.FieldValues{}
	for name, value := range values {
		if !name.IsMandatory() && stored[name] != value {
			changed[name] = value
		}
	}
	if len(changed) == 0 {
		return member, nil
	}

	return srv.members.SaveDraft(ctx, member.ID, changed)
}

// stepError maps a rejected field edit to the error the caller sees.
func stepError(name entity.FieldName, err error) error {
	switch {
	case errors.Is(err, wizard.ErrFieldReadOnly):
		return errors.Wrapf(domainerrors.ErrMemberLocked, "field %s", name)
	case errors.Is(err, wizard.ErrUnknownField):
		return validationFailed([]validation.FieldError{validation.UnknownField(name)})
	default:
		return errors.Wrap(err, "failed to set wizard field")
	}
}
