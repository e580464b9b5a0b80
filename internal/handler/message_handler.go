package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "churchadmin/internal/errors"
	"churchadmin/internal/repository"
	"churchadmin/internal/service"
)

// MessageHandler serves /messages.
type MessageHandler struct {
	svc   service.MessageService
	pager Pager
}

func NewMessageHandler(svc service.MessageService, pager Pager) *MessageHandler {
	return &MessageHandler{svc: svc, pager: pager}
}

// List godoc
// @Summary List the current user's messages
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param box query string false "inbox (default), sent or all"
// @Param type query string false "personal or ministry"
// @Param priority query string false "Priority"
// @Param unread query bool false "Only unread (or only read) messages"
// @Param search query string false "Subject or content"
// @Success 200 {object} ListResponse{data=[]model.Message}
// @Failure 422 {object} errors.ErrorResponse
// @Router /messages [get]
func (h *MessageHandler) List(c echo.Context) error {
	box := repository.Mailbox(c.QueryParam("box"))
	switch box {
	case "":
		box = repository.MailboxInbox
	case repository.MailboxInbox, repository.MailboxSent, repository.MailboxAll:
	default:
		return apperrors.NewValidationError("box", "the selected box is invalid")
	}
	return h.list(c, box)
}

// Inbox godoc
// @Summary Messages received by the current user
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Only unread (or only read) messages"
// @Success 200 {object} ListResponse{data=[]model.Message}
// @Router /messages/inbox [get]
func (h *MessageHandler) Inbox(c echo.Context) error {
	return h.list(c, repository.MailboxInbox)
}

func (h *MessageHandler) list(c echo.Context, box repository.Mailbox) error {
	unread, err := queryBool(c, "unread")
	if err != nil {
		return err
	}
	page := h.pager.Page(c)
	items, total, err := h.svc.List(c.Request().Context(), actor(c), repository.MessageFilter{
		Box:      box,
		Type:     c.QueryParam("type"),
		Priority: c.QueryParam("priority"),
		Unread:   unread,
		Search:   c.QueryParam("search"),
	}, page)
	if err != nil {
		return err
	}
	return respondList(c, items, total, page)
}

// Get godoc
// @Summary Get a message
// @Description Opening an unread message as its recipient marks it read.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 200 {object} DataResponse{data=model.Message}
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /messages/{id} [get]
func (h *MessageHandler) Get(c echo.Context) error {
	id, err := idParam(c, "id", "message")
	if err != nil {
		return err
	}
	msg, err := h.svc.Get(c.Request().Context(), actor(c), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, msg)
}

// Send godoc
// @Summary Send a personal or ministry message
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param message body service.MessageInput true "Message"
// @Success 201 {object} DataResponse{data=service.Delivery}
// @Failure 403 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /messages [post]
func (h *MessageHandler) Send(c echo.Context) error {
	var req service.MessageInput
	if err := bind(c, &req); err != nil {
		return err
	}
	delivery, err := h.svc.Send(c.Request().Context(), actor(c), req)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusCreated, "message sent successfully", delivery)
}

// Update godoc
// @Summary Edit a sent message
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Param message body service.MessageUpdateInput true "Fields to change"
// @Success 200 {object} DataResponse{data=model.Message}
// @Failure 403 {object} errors.ErrorResponse
// @Router /messages/{id} [put]
func (h *MessageHandler) Update(c echo.Context) error {
	id, err := idParam(c, "id", "message")
	if err != nil {
		return err
	}
	var req service.MessageUpdateInput
	if err := bind(c, &req); err != nil {
		return err
	}
	msg, err := h.svc.Update(c.Request().Context(), actor(c), id, req)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "message updated successfully", msg)
}

// Delete godoc
// @Summary Delete a sent message
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 200 {object} DataResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /messages/{id} [delete]
func (h *MessageHandler) Delete(c echo.Context) error {
	id, err := idParam(c, "id", "message")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), actor(c), id); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "message deleted successfully", nil)
}

// MarkRead godoc
// @Summary Mark a received message read
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 200 {object} DataResponse{data=model.Message}
// @Failure 403 {object} errors.ErrorResponse
// @Router /messages/{id}/read [post]
func (h *MessageHandler) MarkRead(c echo.Context) error {
	id, err := idParam(c, "id", "message")
	if err != nil {
		return err
	}
	msg, err := h.svc.MarkRead(c.Request().Context(), actor(c), id)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "message marked as read", msg)
}

// MarkUnread godoc
// @Summary Mark a received message unread
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 200 {object} DataResponse{data=model.Message}
// @Failure 403 {object} errors.ErrorResponse
// @Router /messages/{id}/unread [post]
func (h *MessageHandler) MarkUnread(c echo.Context) error {
	id, err := idParam(c, "id", "message")
	if err != nil {
		return err
	}
	msg, err := h.svc.MarkUnread(c.Request().Context(), actor(c), id)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "message marked as unread", msg)
}

// Reply godoc
// @Summary Reply to a message
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Param reply body service.ReplyInput true "Reply"
// @Success 201 {object} DataResponse{data=model.Message}
// @Failure 403 {object} errors.ErrorResponse
// @Router /messages/{id}/reply [post]
func (h *MessageHandler) Reply(c echo.Context) error {
	id, err := idParam(c, "id", "message")
	if err != nil {
		return err
	}
	var req service.ReplyInput
	if err := bind(c, &req); err != nil {
		return err
	}
	msg, err := h.svc.Reply(c.Request().Context(), actor(c), id, req)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusCreated, "reply sent successfully", msg)
}

// Broadcast godoc
// @Summary Send a message to every active member
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param message body service.BroadcastInput true "Message"
// @Success 201 {object} DataResponse{data=service.Delivery}
// @Failure 403 {object} errors.ErrorResponse
// @Router /messages/broadcast [post]
func (h *MessageHandler) Broadcast(c echo.Context) error {
	var req service.BroadcastInput
	if err := bind(c, &req); err != nil {
		return err
	}
	delivery, err := h.svc.Broadcast(c.Request().Context(), actor(c), req)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusCreated, "broadcast sent successfully", delivery)
}
