package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/toylibrary/lending-platform/internal/core/ports"
)

// FavoritesHandler handles a borrower's saved-items list.
type FavoritesHandler struct {
	service ports.LibraryService
}

func NewFavoritesHandler(service ports.LibraryService) *FavoritesHandler {
	return &FavoritesHandler{service: service}
}

type favoriteToggleResponse struct {
	ItemID    string `json:"item_id"`
	Favorited bool   `json:"favorited"`
}

type favoritesListResponse struct {
	ItemIDs []string `json:"item_ids"`
}

// Toggle handles POST /v1/favorites/:item_id. Toggling twice restores the
// original state.
//
// @Summary      Toggle an item in the caller's favorites
// @Tags         favorites
// @Produce      json
// @Security     BearerAuth
// @Param        item_id  path      string  true  "Item ID"
// @Success      200      {object}  favoriteToggleResponse
// @Router       /v1/favorites/{item_id} [post]
func (h *FavoritesHandler) Toggle(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	itemID := c.Param("item_id")
	favorited, err := h.service.ToggleFavorite(c.Request().Context(), cl.UserID, itemID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, favoriteToggleResponse{ItemID: itemID, Favorited: favorited})
}

// List handles GET /v1/favorites.
//
// @Summary      List the caller's favorited item IDs
// @Tags         favorites
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  favoritesListResponse
// @Router       /v1/favorites [get]
func (h *FavoritesHandler) List(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	ids, err := h.service.ListFavorites(c.Request().Context(), cl.UserID)
	if err != nil {
		return err
	}
	if ids == nil {
		ids = []string{}
	}
	return c.JSON(http.StatusOK, favoritesListResponse{ItemIDs: ids})
}
