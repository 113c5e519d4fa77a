package http

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "institute-service/pkg/errors"
	"institute-service/pkg/logger"

	"github.com/labstack/echo/v4"
)

// CustomHTTPErrorHandler handles all errors returned by handlers and middleware.
// It maps sentinel errors to appropriate HTTP status codes, sanitizes internal errors,
// and logs errors with request context.
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, message := statusFor(err)

	requestID := c.Response().Header().Get(echo.HeaderXRequestID)
	if requestID == "" {
		requestID = "unknown"
	}

	if code >= http.StatusInternalServerError {
		c.Logger().Errorf("internal_server_error request_id=%s status=%d error=%s",
			requestID, code, logger.SanitizeLogMessage(err.Error()))
		// Don't expose internal errors to clients
		message = "Internal server error"
	} else {
		c.Logger().Warnf("client_error request_id=%s status=%d error=%s",
			requestID, code, logger.SanitizeLogMessage(err.Error()))
	}

	if err := c.JSON(code, map[string]interface{}{
		"error":      message,
		"request_id": requestID,
	}); err != nil {
		c.Logger().Error(err)
	}
}

func statusFor(err error) (int, string) {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, fmt.Sprintf("%v", httpErr.Message)
	}

	code := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		code, message = http.StatusNotFound, "Resource not found"
	case errors.Is(err, apperrors.ErrUnauthenticated):
		code, message = http.StatusUnauthorized, "Not authorized to access this route"
	case errors.Is(err, apperrors.ErrUnauthorized):
		code, message = http.StatusUnauthorized, "Not authorized to access this route"
	case errors.Is(err, apperrors.ErrForbidden):
		code, message = http.StatusForbidden, "Forbidden"
	case errors.Is(err, apperrors.ErrBadRequest):
		code, message = http.StatusBadRequest, "Bad request"
	case errors.Is(err, apperrors.ErrInvalidInput):
		code, message = http.StatusBadRequest, "Invalid input"
	case errors.Is(err, apperrors.ErrValidation):
		code, message = http.StatusBadRequest, "Validation error"
	case errors.Is(err, apperrors.ErrConflict):
		code, message = http.StatusConflict, "Resource already exists"
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && code < http.StatusInternalServerError {
		message = appErr.Message
	}

	return code, message
}
