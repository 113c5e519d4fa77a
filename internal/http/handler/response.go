package handler

import (
	"institute-service/internal/domain/policy"
	"institute-service/internal/domain/role"
	"net/http"

	"github.com/labstack/echo/v4"
)

type RoleResponse struct {
	*role.Role
	Permissions []policy.Grant `json:"permissions"`
}

type GrantResponse struct {
	Message string       `json:"message"`
	Changed bool         `json:"changed"`
	Grant   policy.Grant `json:"grant"`
}

type LinkResponse struct {
	Message string      `json:"message"`
	Changed bool        `json:"changed"`
	Link    policy.Link `json:"link"`
}

type LinksResponse struct {
	Links []policy.Link `json:"links"`
	Roles []string      `json:"roles"`
}

func respondError(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{jsonKeyError: message})
}

func respondMessage(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{jsonKeyMessage: message})
}

func handleHTTPError(c echo.Context, err error) error {
	if he, ok := err.(*echo.HTTPError); ok {
		msg, _ := he.Message.(string)
		if msg == "" {
			msg = http.StatusText(he.Code)
		}
		return respondError(c, he.Code, msg)
	}

	return respondError(c, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

// emptyIfNil keeps list responses as [] rather than null.
func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
