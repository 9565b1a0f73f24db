package middleware

import (
	"log/slog"
	"net/http"

	"enrollment/internal/delivery/api/response"
	deliverycontext "enrollment/internal/delivery/context"
	domainerrors "enrollment/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ErrorMiddleware handles errors in the HTTP pipeline
type ErrorMiddleware struct {
	logger *slog.Logger
}

// NewErrorMiddleware creates a new error handling middleware
func NewErrorMiddleware(logger *slog.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{
		logger: logger,
	}
}

// HandleHTTPError handles errors as Echo's HTTPErrorHandler
func (m *ErrorMiddleware) HandleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	logger := deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger)

	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPCode() >= http.StatusInternalServerError {
			logger.Error("Request failed",
				slog.Any("error", err),
				slog.String("code", string(appErr.ErrorCode())),
				slog.String("path", c.Request().URL.Path),
			)
		}
		_ = response.AppError(c, appErr)

		return
	}

	// Routing and binding errors raised by echo itself
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := http.StatusText(httpErr.Code)
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}
		code := domainerrors.Code("HTTP_ERROR")
		switch httpErr.Code {
		case http.StatusNotFound:
			code = domainerrors.CodeNotFound
		case http.StatusBadRequest, http.StatusUnsupportedMediaType:
			code = domainerrors.CodeValidationFailed
		}

		_ = response.Error(c, httpErr.Code, code, message, domainerrors.ActionNone, nil)

		return
	}

	logger.Error("Unhandled error",
		slog.Any("error", err),
		slog.String("path", c.Request().URL.Path),
		slog.String("method", c.Request().Method),
	)

	_ = response.Error(c, http.StatusInternalServerError, domainerrors.CodeInternal,
		"Internal server error, please try again later", domainerrors.ActionRetry, nil)
}
