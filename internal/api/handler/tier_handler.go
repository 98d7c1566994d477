package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/toylibrary/lending-platform/internal/core/ports"
)

// TierHandler handles membership tier management.
type TierHandler struct {
	service ports.MembershipService
}

func NewTierHandler(service ports.MembershipService) *TierHandler {
	return &TierHandler{service: service}
}

type tierRequest struct {
	Name                string   `json:"name"                   validate:"required"`
	Description         string   `json:"description"`
	Price               float64  `json:"price"                  validate:"gte=0"`
	BillingInterval     string   `json:"billing_interval"       validate:"required,oneof=monthly yearly"`
	BorrowingLimit      int      `json:"borrowing_limit"        validate:"required,gt=0"`
	MaxLoanDurationDays int      `json:"max_loan_duration_days" validate:"gte=0"`
	Benefits            []string `json:"benefits"`
}

func (r tierRequest) toInput() ports.TierInput {
	return ports.TierInput{
		Name:                r.Name,
		Description:         r.Description,
		Price:               r.Price,
		BillingInterval:     r.BillingInterval,
		BorrowingLimit:      r.BorrowingLimit,
		MaxLoanDurationDays: r.MaxLoanDurationDays,
		Benefits:            r.Benefits,
	}
}

// Create handles POST /v1/tiers (host).
//
// @Summary      Create a membership tier
// @Tags         tiers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      tierRequest  true  "Tier details"
// @Success      201   {object}  domain.MembershipTier
// @Failure      400   {object}  errorResponse
// @Router       /v1/tiers [post]
func (h *TierHandler) Create(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req tierRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tier, err := h.service.AddTier(c.Request().Context(), cl.LibraryID, req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tier)
}

// Update handles PUT /v1/tiers/:id (host).
//
// @Summary      Update a membership tier
// @Tags         tiers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "Tier ID"
// @Param        body  body      tierRequest  true  "Updated fields"
// @Success      200   {object}  domain.MembershipTier
// @Failure      404   {object}  errorResponse
// @Router       /v1/tiers/{id} [put]
func (h *TierHandler) Update(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req tierRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tier, err := h.service.UpdateTier(c.Request().Context(), cl.LibraryID, c.Param("id"), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tier)
}

// Delete handles DELETE /v1/tiers/:id (host). Fails while members still
// reference the tier.
//
// @Summary      Delete a membership tier
// @Tags         tiers
// @Security     BearerAuth
// @Param        id  path  string  true  "Tier ID"
// @Success      204
// @Failure      409  {object}  errorResponse
// @Router       /v1/tiers/{id} [delete]
func (h *TierHandler) Delete(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteTier(c.Request().Context(), cl.LibraryID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/tiers. Hosts see their own library's tiers; other
// roles pass library_id to view a library's plans.
//
// @Summary      List a library's membership tiers
// @Tags         tiers
// @Produce      json
// @Security     BearerAuth
// @Param        library_id  query     string  false  "Library (defaults to the caller's)"
// @Success      200         {array}   domain.MembershipTier
// @Router       /v1/tiers [get]
func (h *TierHandler) List(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	libraryID := c.QueryParam("library_id")
	if libraryID == "" {
		libraryID = cl.LibraryID
	}
	tiers, err := h.service.ListTiers(c.Request().Context(), libraryID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tiers)
}
