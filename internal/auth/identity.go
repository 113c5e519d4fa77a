package auth

import (
	apperrors "institute-service/pkg/errors"

	"github.com/labstack/echo/v4"
)

// Identity is the caller resolved by the gate for a single request.
type Identity struct {
	Subject  string `json:"subject"`
	Name     string `json:"name"`
	RoleID   int64  `json:"role_id"`
	RoleName string `json:"role"`
}

func SetIdentity(c echo.Context, identity *Identity) {
	c.Set(ContextKeyIdentity, identity)
}

func GetIdentity(c echo.Context) (*Identity, error) {
	value := c.Get(ContextKeyIdentity)
	if value == nil {
		return nil, apperrors.Unauthenticated(msgUserNotAuthenticated)
	}

	identity, ok := value.(*Identity)
	if !ok || identity == nil {
		return nil, apperrors.InternalServer(msgInvalidIdentityCtx, nil)
	}

	return identity, nil
}
