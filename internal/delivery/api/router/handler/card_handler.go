package handler

import (
	"log/slog"
	"net/http"

	"enrollment/internal/delivery/api/response"
	"enrollment/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// CardHandlerParams holds dependencies for CardHandler, injected by Fx.
type CardHandlerParams struct {
	fx.In

	CardUC usecase.CardUsecase
	Logger *slog.Logger
}

// CardHandler holds dependencies for card-related handlers
type CardHandler struct {
	cardUC usecase.CardUsecase
	logger *slog.Logger
}

// NewCardHandler is the constructor for CardHandler
func NewCardHandler(params CardHandlerParams) *CardHandler {
	return &CardHandler{
		cardUC: params.CardUC,
		logger: params.Logger,
	}
}

// VerifyCardRequest represents the request body for verifying a scanned card
type VerifyCardRequest struct {
	QRData string `json:"qr_data" validate:"required"`
}

// RequestCard requests the card of a locked member
func (h *CardHandler) RequestCard(c echo.Context) error {
	memberID, err := pathID(c, "memberId")
	if err != nil {
		return response.HandleAppError(c, err)
	}

	card, err := h.cardUC.RequestCard(c.Request().Context(), memberID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	status := http.StatusAccepted
	if card.IsActive() {
		status = http.StatusCreated
	}

	return response.Success(c, status, card)
}

// GetCardByMember returns the card issued to a member
func (h *CardHandler) GetCardByMember(c echo.Context) error {
	memberID, err := pathID(c, "memberId")
	if err != nil {
		return response.HandleAppError(c, err)
	}

	card, err := h.cardUC.GetCardByMember(c.Request().Context(), memberID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, card)
}

// GetCard returns a card
func (h *CardHandler) GetCard(c echo.Context) error {
	cardID, err := pathID(c, "cardId")
	if err != nil {
		return response.HandleAppError(c, err)
	}

	card, err := h.cardUC.GetCard(c.Request().Context(), cardID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, card)
}

// ConfirmCard activates a pending card
func (h *CardHandler) ConfirmCard(c echo.Context) error {
	cardID, err := pathID(c, "cardId")
	if err != nil {
		return response.HandleAppError(c, err)
	}

	card, err := h.cardUC.ConfirmCard(c.Request().Context(), cardID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, card)
}

// RenderCardQR returns the card QR code as a PNG image
func (h *CardHandler) RenderCardQR(c echo.Context) error {
	cardID, err := pathID(c, "cardId")
	if err != nil {
		return response.HandleAppError(c, err)
	}

	png, err := h.cardUC.RenderCardQR(c.Request().Context(), cardID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return c.Blob(http.StatusOK, "image/png", png)
}

// VerifyCard resolves the text of a scanned card QR code
func (h *CardHandler) VerifyCard(c echo.Context) error {
	var req VerifyCardRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.HandleAppError(c, err)
	}

	check, err := h.cardUC.VerifyCard(c.Request().Context(), req.QRData)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, check)
}
