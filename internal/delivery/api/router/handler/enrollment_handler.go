package handler

import (
	"net/http"

	"enrollment/internal/delivery/api/response"
	"enrollment/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// EnrollmentHandlerParams holds dependencies for EnrollmentHandler, injected by Fx.
type EnrollmentHandlerParams struct {
	fx.In

	EnrollmentUC usecase.EnrollmentUsecase
	WizardUC     usecase.WizardUsecase
}

// EnrollmentHandler serves the enrollment gate and the card wizard
type EnrollmentHandler struct {
	enrollmentUC usecase.EnrollmentUsecase
	wizardUC     usecase.WizardUsecase
}

// NewEnrollmentHandler is the constructor for EnrollmentHandler
func NewEnrollmentHandler(params EnrollmentHandlerParams) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollmentUC: params.EnrollmentUC,
		wizardUC:     params.WizardUC,
	}
}

// WizardCommitRequest represents the request body of the final wizard step
type WizardCommitRequest struct {
	MemberID     string        `json:"member_id" validate:"required,uuid"`
	Fields       FieldsPayload `json:"fields"`
	Acknowledged bool          `json:"acknowledged"`
}

// Status returns the enrollment gate of a plan purchase
func (h *EnrollmentHandler) Status(c echo.Context) error {
	planPurchaseID, err := pathID(c, "planPurchaseId")
	if err != nil {
		return response.HandleAppError(c, err)
	}

	status, err := h.enrollmentUC.Status(c.Request().Context(), planPurchaseID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, status)
}

// WizardCandidates lists the members offered on the wizard's first step
func (h *EnrollmentHandler) WizardCandidates(c echo.Context) error {
	planPurchaseID, err := pathID(c, "planPurchaseId")
	if err != nil {
		return response.HandleAppError(c, err)
	}

	candidates, err := h.wizardUC.Start(c.Request().Context(), planPurchaseID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, candidates)
}

// WizardCommit locks the member if needed and requests the card
func (h *EnrollmentHandler) WizardCommit(c echo.Context) error {
	var req WizardCommitRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.HandleAppError(c, err)
	}
	fields, err := req.Fields.toFieldValues()
	if err != nil {
		return response.HandleAppError(c, err)
	}

	result, err := h.wizardUC.Commit(c.Request().Context(), &usecase.WizardCommand{
		MemberID:     uuid.MustParse(req.MemberID),
		Fields:       fields,
		Acknowledged: req.Acknowledged,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, result)
}
