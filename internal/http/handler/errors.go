package handler

import (
	"errors"
	"institute-service/internal/authz"
	apperrors "institute-service/pkg/errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// MapToPublicError maps internal errors to public-facing HTTP status codes and messages
// This prevents information disclosure by providing consistent, generic error messages
func MapToPublicError(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "resource not found"
	case errors.Is(err, apperrors.ErrUnauthenticated), errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, "access denied"
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, "resource conflict"
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest, "invalid input"
	case errors.Is(err, authz.ErrInvalidPolicy), errors.Is(err, authz.ErrInvalidRoleLink), errors.Is(err, authz.ErrInvalidRule):
		return http.StatusBadRequest, "invalid policy"
	default:
		// Never expose internal errors to clients
		return http.StatusInternalServerError, "internal server error"
	}
}

// RespondWithMappedError responds with a mapped error, preventing information disclosure
func RespondWithMappedError(c echo.Context, err error) error {
	status, msg := MapToPublicError(err)
	return respondError(c, status, msg)
}

// respondFailure logs server-side failures and answers with fallback; client
// errors keep their mapped status.
func respondFailure(c echo.Context, err error, fallback string) error {
	status, msg := MapToPublicError(err)
	if status >= http.StatusInternalServerError {
		c.Logger().Errorf("%s: %v", fallback, err)
		return respondError(c, status, fallback)
	}
	return respondError(c, status, msg)
}
