package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/toylibrary/lending-platform/internal/core/domain"
	"github.com/toylibrary/lending-platform/internal/core/ports"
)

// MemberHandler handles per-library membership management.
type MemberHandler struct {
	service ports.MembershipService
}

func NewMemberHandler(service ports.MembershipService) *MemberHandler {
	return &MemberHandler{service: service}
}

type addMemberRequest struct {
	UserID string `json:"user_id" validate:"required"`
	TierID string `json:"tier_id" validate:"required"`
}

type memberStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending active suspended"`
}

type settleFeesRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// Add handles POST /v1/members (host).
//
// @Summary      Enrol a user as a member of the library
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addMemberRequest  true  "User and tier"
// @Success      201   {object}  domain.Member
// @Failure      404   {object}  errorResponse
// @Router       /v1/members [post]
func (h *MemberHandler) Add(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req addMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	member, err := h.service.AddMember(c.Request().Context(), ports.AddMemberInput{
		UserID:    req.UserID,
		LibraryID: cl.LibraryID,
		TierID:    req.TierID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, member)
}

// Get handles GET /v1/members/:id.
//
// @Summary      Get a member
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Member ID"
// @Success      200  {object}  domain.Member
// @Failure      404  {object}  errorResponse
// @Router       /v1/members/{id} [get]
func (h *MemberHandler) Get(c echo.Context) error {
	member, err := h.service.GetMember(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, member)
}

// UpdateStatus handles PATCH /v1/members/:id/status (host).
//
// @Summary      Change a member's status
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Member ID"
// @Param        body  body      memberStatusRequest  true  "New status"
// @Success      200   {object}  domain.Member
// @Failure      422   {object}  errorResponse
// @Router       /v1/members/{id}/status [patch]
func (h *MemberHandler) UpdateStatus(c echo.Context) error {
	var req memberStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	member, err := h.service.UpdateMemberStatus(c.Request().Context(), c.Param("id"), domain.MemberStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, member)
}

// SettleFees handles POST /v1/members/:id/fees/settle (host).
//
// @Summary      Record a payment against a member's outstanding fees
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Member ID"
// @Param        body  body      settleFeesRequest  true  "Amount paid"
// @Success      200   {object}  domain.Member
// @Failure      404   {object}  errorResponse
// @Router       /v1/members/{id}/fees/settle [post]
func (h *MemberHandler) SettleFees(c echo.Context) error {
	var req settleFeesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	member, err := h.service.SettleFees(c.Request().Context(), c.Param("id"), req.Amount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, member)
}

// List handles GET /v1/members (host, scoped to own library).
//
// @Summary      List the library's members
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page (1-based)"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  pagedResponse
// @Router       /v1/members [get]
func (h *MemberHandler) List(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	filter := ports.ListMembersFilter{
		LibraryID: cl.LibraryID,
		Status:    c.QueryParam("status"),
		Page:      queryInt(c.QueryParam("page"), 1),
		Limit:     queryInt(c.QueryParam("limit"), 20),
	}
	members, total, err := h.service.ListMembers(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newPagedResponse(members, total, filter.Page, filter.Limit))
}
