package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/toylibrary/lending-platform/internal/core/domain"
	"github.com/toylibrary/lending-platform/internal/core/ports"
)

// CirculationHandler handles loans and reservations.
type CirculationHandler struct {
	service ports.CirculationService
}

func NewCirculationHandler(service ports.CirculationService) *CirculationHandler {
	return &CirculationHandler{service: service}
}

type checkoutRequest struct {
	ItemID     string `json:"item_id"     validate:"required"`
	BorrowerID string `json:"borrower_id" validate:"required"`
	DueDate    string `json:"due_date"` // RFC 3339; empty derives from item and tier
}

type returnRequest struct {
	Condition string `json:"condition" validate:"required,oneof=excellent good fair poor"`
	Notes     string `json:"notes"`
}

type reserveRequest struct {
	ItemID string `json:"item_id" validate:"required"`
}

// loanResponse adds the derived effective status to the stored loan. The
// stored status never reads "overdue"; this is where clients see it.
type loanResponse struct {
	*domain.Loan
	EffectiveStatus domain.LoanStatus `json:"effective_status"`
	OverdueDays     int               `json:"overdue_days,omitempty"`
}

func newLoanResponse(l *domain.Loan, now time.Time) loanResponse {
	resp := loanResponse{Loan: l, EffectiveStatus: domain.EffectiveLoanStatus(l, now)}
	if resp.EffectiveStatus == domain.LoanOverdue {
		resp.OverdueDays = domain.OverdueDays(l, now)
	}
	return resp
}

func newLoanListResponse(loans []*domain.Loan, now time.Time) []loanResponse {
	out := make([]loanResponse, 0, len(loans))
	for _, l := range loans {
		out = append(out, newLoanResponse(l, now))
	}
	return out
}

// Checkout handles POST /v1/loans (host desk operation).
//
// @Summary      Check an item out to a borrower
// @Tags         loans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string           false  "Makes retried checkouts return the original loan"
// @Param        body             body      checkoutRequest  true   "Checkout details"
// @Success      201              {object}  loanResponse
// @Failure      409              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /v1/loans [post]
func (h *CirculationHandler) Checkout(c echo.Context) error {
	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	input := ports.CheckoutInput{
		ItemID:         req.ItemID,
		BorrowerID:     req.BorrowerID,
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
	}
	if req.DueDate != "" {
		due, err := time.Parse(time.RFC3339, req.DueDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "due_date must be RFC 3339")
		}
		input.DueDate = due
	}

	loan, err := h.service.Checkout(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newLoanResponse(loan, time.Now().UTC()))
}

// Return handles POST /v1/loans/:id/return (host desk operation).
//
// @Summary      Return a loaned item
// @Tags         loans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "Loan ID"
// @Param        body  body      returnRequest  true  "Condition at return"
// @Success      200   {object}  loanResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/loans/{id}/return [post]
func (h *CirculationHandler) Return(c echo.Context) error {
	var req returnRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	loan, err := h.service.Return(c.Request().Context(), ports.ReturnInput{
		LoanID:    c.Param("id"),
		Condition: domain.ItemCondition(req.Condition),
		Notes:     req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newLoanResponse(loan, time.Now().UTC()))
}

// MarkLost handles POST /v1/loans/:id/lost (host desk operation).
//
// @Summary      Mark a loaned item as lost
// @Tags         loans
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Loan ID"
// @Success      200  {object}  loanResponse
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/loans/{id}/lost [post]
func (h *CirculationHandler) MarkLost(c echo.Context) error {
	loan, err := h.service.MarkLost(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newLoanResponse(loan, time.Now().UTC()))
}

// ListLoans handles GET /v1/loans. Hosts see their library's loans; borrowers
// see their own.
//
// @Summary      List loans
// @Tags         loans
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by stored status"
// @Param        page    query     int     false  "Page (1-based)"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  pagedResponse
// @Router       /v1/loans [get]
func (h *CirculationHandler) ListLoans(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	filter := ports.ListLoansFilter{
		Status: c.QueryParam("status"),
		Page:   queryInt(c.QueryParam("page"), 1),
		Limit:  queryInt(c.QueryParam("limit"), 20),
	}
	switch cl.Role {
	case domain.RoleBorrower:
		filter.BorrowerID = cl.UserID
	case domain.RoleHost:
		filter.LibraryID = cl.LibraryID
	}

	loans, total, err := h.service.ListLoans(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newPagedResponse(newLoanListResponse(loans, time.Now().UTC()), total, filter.Page, filter.Limit))
}

// Reserve handles POST /v1/reservations (borrower places a hold on an item).
//
// @Summary      Place a hold on an item
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      reserveRequest  true  "Item to hold"
// @Success      201   {object}  domain.Reservation
// @Failure      409   {object}  errorResponse
// @Router       /v1/reservations [post]
func (h *CirculationHandler) Reserve(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req reserveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	r, err := h.service.Reserve(c.Request().Context(), req.ItemID, cl.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, r)
}

// CancelReservation handles DELETE /v1/reservations/:id. Borrowers may only
// cancel their own holds; hosts and super-users may cancel any.
//
// @Summary      Cancel a hold
// @Tags         reservations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Reservation ID"
// @Success      200  {object}  domain.Reservation
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/reservations/{id} [delete]
func (h *CirculationHandler) CancelReservation(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	actorID := ""
	if cl.Role == domain.RoleBorrower {
		actorID = cl.UserID
	}

	r, err := h.service.CancelReservation(c.Request().Context(), c.Param("id"), actorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

// ListReservations handles GET /v1/reservations. Hosts see their library's
// holds; borrowers see their own.
//
// @Summary      List holds
// @Tags         reservations
// @Produce      json
// @Security     BearerAuth
// @Param        item_id  query     string  false  "Filter by item"
// @Param        status   query     string  false  "Filter by status"
// @Param        page     query     int     false  "Page (1-based)"
// @Param        limit    query     int     false  "Page size"
// @Success      200      {object}  pagedResponse
// @Router       /v1/reservations [get]
func (h *CirculationHandler) ListReservations(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	filter := ports.ListReservationsFilter{
		ItemID: c.QueryParam("item_id"),
		Status: c.QueryParam("status"),
		Page:   queryInt(c.QueryParam("page"), 1),
		Limit:  queryInt(c.QueryParam("limit"), 20),
	}
	switch cl.Role {
	case domain.RoleBorrower:
		filter.BorrowerID = cl.UserID
	case domain.RoleHost:
		filter.LibraryID = cl.LibraryID
	}

	rs, total, err := h.service.ListReservations(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newPagedResponse(rs, total, filter.Page, filter.Limit))
}
