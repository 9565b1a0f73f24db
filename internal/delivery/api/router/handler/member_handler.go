package handler

import (
	"log/slog"
	"net/http"

	"enrollment/internal/delivery/api/response"
	"enrollment/internal/domain/entity"
	"enrollment/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// MemberHandlerParams holds dependencies for MemberHandler, injected by Fx.
type MemberHandlerParams struct {
	fx.In

	MemberUC usecase.MemberUsecase
	Logger   *slog.Logger
}

// MemberHandler holds dependencies for member-related handlers
type MemberHandler struct {
	memberUC usecase.MemberUsecase
	logger   *slog.Logger
}

// NewMemberHandler is the constructor for MemberHandler
func NewMemberHandler(params MemberHandlerParams) *MemberHandler {
	return &MemberHandler{
		memberUC: params.MemberUC,
		logger:   params.Logger,
	}
}

// CreateMemberRequest represents the request body for creating a member
type CreateMemberRequest struct {
	RelationSlot string `json:"relation_slot" validate:"required"`
}

// FieldsRequest represents a request body carrying member fields
type FieldsRequest struct {
	Fields FieldsPayload `json:"fields" validate:"required"`
}

// CommitRequest represents the request body for locking a member; fields are optional
type CommitRequest struct {
	Fields FieldsPayload `json:"fields"`
}

// CreateMember creates an empty member in a relation slot
func (h *MemberHandler) CreateMember(c echo.Context) error {
	planPurchaseID, err := pathID(c, "planPurchaseId")
	if err != nil {
		return response.HandleAppError(c, err)
	}

	var req CreateMemberRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.HandleAppError(c, err)
	}

	member, err := h.memberUC.CreateMember(c.Request().Context(), planPurchaseID, entity.RelationSlot(req.RelationSlot))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, member)
}

// ProvisionMembers creates empty members for every free relation slot
func (h *MemberHandler) ProvisionMembers(c echo.Context) error {
	planPurchaseID, err := pathID(c, "planPurchaseId")
	if err != nil {
		return response.HandleAppError(c, err)
	}

	members, err := h.memberUC.ProvisionMembers(c.Request().Context(), planPurchaseID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, members)
}

// ListMembers lists the members of a plan purchase
func (h *MemberHandler) ListMembers(c echo.Context) error {
	planPurchaseID, err := pathID(c, "planPurchaseId")
	if err != nil {
		return response.HandleAppError(c, err)
	}

	members, err := h.memberUC.ListMembers(c.Request().Context(), planPurchaseID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, members)
}

// GetMember returns one member
func (h *MemberHandler) GetMember(c echo.Context) error {
	memberID, err := pathID(c, "memberId")
	if err != nil {
		return response.HandleAppError(c, err)
	}

	member, err := h.memberUC.GetMember(c.Request().Context(), memberID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, member)
}

// SaveDraft stores a partial set of fields
func (h *MemberHandler) SaveDraft(c echo.Context) error {
	memberID, err := pathID(c, "memberId")
	if err != nil {
		return response.HandleAppError(c, err)
	}

	var req FieldsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.HandleAppError(c, err)
	}
	fields, err := req.Fields.toFieldValues()
	if err != nil {
		return response.HandleAppError(c, err)
	}

	member, err := h.memberUC.SaveDraft(c.Request().Context(), memberID, fields)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, member)
}

// CommitAndLock validates the whole member and locks it
func (h *MemberHandler) CommitAndLock(c echo.Context) error {
	memberID, err := pathID(c, "memberId")
	if err != nil {
		return response.HandleAppError(c, err)
	}

	var req CommitRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.HandleAppError(c, err)
	}
	fields, err := req.Fields.toFieldValues()
	if err != nil {
		return response.HandleAppError(c, err)
	}

	member, err := h.memberUC.CommitAndLock(c.Request().Context(), memberID, fields)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, member)
}
