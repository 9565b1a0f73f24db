// Package impl contains the implementation of the application's business logic.
package impl

import (
	domainerrors "enrollment/internal/domain/errors"
	"enrollment/internal/domain/repository"
	"enrollment/internal/domain/validation"

	"github.com/pkg/errors"
)

// translateRepoError maps repository sentinels to the AppError the caller sees.
// Anything else is wrapped and surfaces as an internal error.
func translateRepoError(err error, msg string) error {
	switch {
	case errors.Is(err, repository.ErrPlanPurchaseNotFound):
		return errors.Wrap(domainerrors.ErrPlanPurchaseNotFound, msg)
	case errors.Is(err, repository.ErrMemberNotFound):
		return errors.Wrap(domainerrors.ErrMemberNotFound, msg)
	case errors.Is(err, repository.ErrCardNotFound):
		return errors.Wrap(domainerrors.ErrCardNotFound, msg)
	case errors.Is(err, repository.ErrDuplicateSlot):
		return errors.Wrap(domainerrors.ErrDuplicateSlot, msg)
	case errors.Is(err, repository.ErrMemberLocked):
		return errors.Wrap(domainerrors.ErrMemberLocked, msg)
	case errors.Is(err, repository.ErrMemberNotLocked):
		return errors.Wrap(domainerrors.ErrMemberNotLocked, msg)
	case errors.Is(err, repository.ErrDuplicateCard), errors.Is(err, repository.ErrCardAlreadyAttached):
		return errors.Wrap(domainerrors.ErrCardAlreadyIssued, msg)
	default:
		return errors.Wrap(err, msg)
	}
}

func validationFailed(fieldErrs []validation.FieldError) error {
	return errors.WithStack(domainerrors.NewValidationError(fieldErrs))
}
