package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/toylibrary/lending-platform/internal/core/ports"
)

// NotificationHandler lets clients fetch and acknowledge their relayed
// notifications.
type NotificationHandler struct {
	repo ports.NotificationRepository
}

func NewNotificationHandler(repo ports.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

// List handles GET /v1/notifications.
//
// @Summary      List the caller's notifications, newest first
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Max notifications (default 50)"
// @Success      200    {array}   domain.Notification
// @Router       /v1/notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	ns, err := h.repo.ListByRecipient(c.Request().Context(), cl.UserID, queryInt(c.QueryParam("limit"), 50))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ns)
}

// MarkRead handles POST /v1/notifications/read — marks all of the caller's
// notifications as read.
//
// @Summary      Mark all notifications as read
// @Tags         notifications
// @Security     BearerAuth
// @Success      204
// @Router       /v1/notifications/read [post]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	if err := h.repo.MarkRead(c.Request().Context(), cl.UserID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
