package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// claims carries the identity the Auth middleware extracted from the token.
type claims struct {
	UserID    string
	Role      string
	LibraryID string
}

// ctxClaims reads the authenticated identity from the echo context. Handlers
// mounted behind the Auth middleware can rely on UserID and Role being set;
// LibraryID is empty for borrowers without a library affiliation.
func ctxClaims(c echo.Context) (claims, error) {
	userID, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)
	libraryID, _ := c.Get("library_id").(string)

	if userID == "" || role == "" {
		return claims{}, echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}
	return claims{UserID: userID, Role: role, LibraryID: libraryID}, nil
}
