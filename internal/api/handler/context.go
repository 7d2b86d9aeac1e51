package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hans-clinic/appointment-system/internal/core/domain"
)

// ctxActor reconstructs the acting user from the claims injected by the Auth
// middleware and performs a fast-fail check before any service call:
//   - user_id and role must both be non-empty (presence proves the
//     middleware ran and the token carries a usable identity).
func ctxActor(c echo.Context) (*domain.User, error) {
	userID, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)
	if userID == "" || role == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	username, _ := c.Get("username").(string)

	return &domain.User{
		ID:       userID,
		Username: username,
		Role:     role,
	}, nil
}
