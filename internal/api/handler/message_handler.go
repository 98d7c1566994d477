package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/toylibrary/lending-platform/internal/core/ports"
)

// MessageHandler handles host/borrower direct messaging.
type MessageHandler struct {
	service ports.MessagingService
}

func NewMessageHandler(service ports.MessagingService) *MessageHandler {
	return &MessageHandler{service: service}
}

type sendMessageRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Body        string `json:"body"         validate:"required"`
}

type unreadCountResponse struct {
	Unread int64 `json:"unread"`
}

// Send handles POST /v1/messages.
//
// @Summary      Send a direct message
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      sendMessageRequest  true  "Recipient and body"
// @Success      201   {object}  domain.Message
// @Failure      404   {object}  errorResponse
// @Router       /v1/messages [post]
func (h *MessageHandler) Send(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	msg, err := h.service.Send(c.Request().Context(), ports.SendMessageInput{
		SenderID:    cl.UserID,
		RecipientID: req.RecipientID,
		LibraryID:   cl.LibraryID,
		Body:        req.Body,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, msg)
}

// Conversation handles GET /v1/messages/:user_id — the thread between the
// caller and the given user, oldest first.
//
// @Summary      Read a conversation thread
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  path      string  true   "Other participant"
// @Param        limit    query     int     false  "Max messages (default 50)"
// @Success      200      {array}   domain.Message
// @Router       /v1/messages/{user_id} [get]
func (h *MessageHandler) Conversation(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	msgs, err := h.service.Conversation(c.Request().Context(), cl.UserID, c.Param("user_id"), queryInt(c.QueryParam("limit"), 50))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msgs)
}

// MarkRead handles POST /v1/messages/:user_id/read — marks every message from
// that sender to the caller as read.
//
// @Summary      Mark a conversation as read
// @Tags         messages
// @Security     BearerAuth
// @Param        user_id  path  string  true  "Sender whose messages to mark"
// @Success      204
// @Router       /v1/messages/{user_id}/read [post]
func (h *MessageHandler) MarkRead(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	if err := h.service.MarkRead(c.Request().Context(), cl.UserID, c.Param("user_id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UnreadCount handles GET /v1/messages/unread/count.
//
// @Summary      Count unread messages
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  unreadCountResponse
// @Router       /v1/messages/unread/count [get]
func (h *MessageHandler) UnreadCount(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	n, err := h.service.UnreadCount(c.Request().Context(), cl.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, unreadCountResponse{Unread: n})
}
