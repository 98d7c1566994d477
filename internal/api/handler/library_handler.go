package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/toylibrary/lending-platform/internal/core/domain"
	"github.com/toylibrary/lending-platform/internal/core/ports"
)

// LibraryHandler handles library profiles and super-user administration.
type LibraryHandler struct {
	service ports.LibraryService
}

func NewLibraryHandler(service ports.LibraryService) *LibraryHandler {
	return &LibraryHandler{service: service}
}

type libraryRequest struct {
	Name         string `json:"name"          validate:"required"`
	Description  string `json:"description"`
	Address      string `json:"address"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
	ContactPhone string `json:"contact_phone"`
}

func (r libraryRequest) toInput() ports.LibraryInput {
	return ports.LibraryInput{
		Name:         r.Name,
		Description:  r.Description,
		Address:      r.Address,
		ContactEmail: r.ContactEmail,
		ContactPhone: r.ContactPhone,
	}
}

type createLibraryRequest struct {
	libraryRequest
	OwnerID string `json:"owner_id" validate:"required"`
}

// Create handles POST /v1/admin/libraries (super-user provisions a library
// for an existing host account).
//
// @Summary      Create a library for a host
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createLibraryRequest  true  "Library details"
// @Success      201   {object}  domain.Library
// @Failure      400   {object}  errorResponse
// @Router       /v1/admin/libraries [post]
func (h *LibraryHandler) Create(c echo.Context) error {
	var req createLibraryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	lib, err := h.service.CreateLibrary(c.Request().Context(), req.OwnerID, req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, lib)
}

// Get handles GET /v1/libraries/:id.
//
// @Summary      Get a library profile
// @Tags         libraries
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Library ID"
// @Success      200  {object}  domain.Library
// @Failure      404  {object}  errorResponse
// @Router       /v1/libraries/{id} [get]
func (h *LibraryHandler) Get(c echo.Context) error {
	lib, err := h.service.GetLibrary(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lib)
}

// List handles GET /v1/libraries.
//
// @Summary      Browse libraries
// @Tags         libraries
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"
// @Param        search  query     string  false  "Partial match on name or address"
// @Param        page    query     int     false  "Page (1-based)"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  pagedResponse
// @Router       /v1/libraries [get]
func (h *LibraryHandler) List(c echo.Context) error {
	filter := ports.ListLibrariesFilter{
		Status: c.QueryParam("status"),
		Search: c.QueryParam("search"),
		Page:   queryInt(c.QueryParam("page"), 1),
		Limit:  queryInt(c.QueryParam("limit"), 20),
	}
	libs, total, err := h.service.ListLibraries(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newPagedResponse(libs, total, filter.Page, filter.Limit))
}

// Update handles PUT /v1/libraries/:id (host updates own library).
//
// @Summary      Update a library profile
// @Tags         libraries
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Library ID"
// @Param        body  body      libraryRequest  true  "Updated fields"
// @Success      200   {object}  domain.Library
// @Failure      403   {object}  errorResponse
// @Router       /v1/libraries/{id} [put]
func (h *LibraryHandler) Update(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	if cl.Role == domain.RoleHost && cl.LibraryID != id {
		return domain.ErrForbidden
	}

	var req libraryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	lib, err := h.service.UpdateLibrary(c.Request().Context(), id, req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lib)
}

// Approve handles POST /v1/admin/libraries/:id/approve (super-user).
//
// @Summary      Approve a pending library
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Library ID"
// @Success      200  {object}  domain.Library
// @Failure      422  {object}  errorResponse
// @Router       /v1/admin/libraries/{id}/approve [post]
func (h *LibraryHandler) Approve(c echo.Context) error {
	lib, err := h.service.ApproveLibrary(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lib)
}

// Suspend handles POST /v1/admin/libraries/:id/suspend (super-user).
//
// @Summary      Suspend a library
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Library ID"
// @Success      200  {object}  domain.Library
// @Failure      422  {object}  errorResponse
// @Router       /v1/admin/libraries/{id}/suspend [post]
func (h *LibraryHandler) Suspend(c echo.Context) error {
	lib, err := h.service.SuspendLibrary(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lib)
}

// Reinstate handles POST /v1/admin/libraries/:id/reinstate (super-user).
//
// @Summary      Reinstate a suspended library
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Library ID"
// @Success      200  {object}  domain.Library
// @Failure      422  {object}  errorResponse
// @Router       /v1/admin/libraries/{id}/reinstate [post]
func (h *LibraryHandler) Reinstate(c echo.Context) error {
	lib, err := h.service.ReinstateLibrary(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lib)
}
