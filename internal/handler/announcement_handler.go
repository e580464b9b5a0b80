package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"churchadmin/internal/repository"
	"churchadmin/internal/service"
)

// AnnouncementHandler serves /announcements.
type AnnouncementHandler struct {
	svc   service.AnnouncementService
	pager Pager
}

func NewAnnouncementHandler(svc service.AnnouncementService, pager Pager) *AnnouncementHandler {
	return &AnnouncementHandler{svc: svc, pager: pager}
}

// List godoc
// @Summary List announcements
// @Description Only administrators see unpublished or expired announcements.
// @Tags announcements
// @Produce json
// @Security BearerAuth
// @Param type query string false "Announcement type"
// @Param priority query string false "Priority"
// @Param published query bool false "Published flag (administrators)"
// @Param search query string false "Title or content"
// @Success 200 {object} ListResponse{data=[]model.Announcement}
// @Router /announcements [get]
func (h *AnnouncementHandler) List(c echo.Context) error {
	published, err := queryBool(c, "published")
	if err != nil {
		return err
	}
	page := h.pager.Page(c)
	items, total, err := h.svc.List(c.Request().Context(), actor(c), repository.AnnouncementFilter{
		Published: published,
		Type:      c.QueryParam("type"),
		Priority:  c.QueryParam("priority"),
		Search:    c.QueryParam("search"),
	}, page)
	if err != nil {
		return err
	}
	return respondList(c, items, total, page)
}

// Get godoc
// @Summary Get announcement
// @Tags announcements
// @Produce json
// @Security BearerAuth
// @Param id path int true "Announcement ID"
// @Success 200 {object} DataResponse{data=model.Announcement}
// @Failure 404 {object} errors.ErrorResponse
// @Router /announcements/{id} [get]
func (h *AnnouncementHandler) Get(c echo.Context) error {
	id, err := idParam(c, "id", "announcement")
	if err != nil {
		return err
	}
	a, err := h.svc.Get(c.Request().Context(), actor(c), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, a)
}

// Create godoc
// @Summary Create announcement
// @Tags announcements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param announcement body service.AnnouncementInput true "Announcement"
// @Success 201 {object} DataResponse{data=model.Announcement}
// @Failure 403 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /announcements [post]
func (h *AnnouncementHandler) Create(c echo.Context) error {
	var req service.AnnouncementInput
	if err := bind(c, &req); err != nil {
		return err
	}
	a, err := h.svc.Create(c.Request().Context(), actor(c), req)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusCreated, "announcement created successfully", a)
}

// Update godoc
// @Summary Update announcement
// @Tags announcements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Announcement ID"
// @Param announcement body service.AnnouncementInput true "Announcement"
// @Success 200 {object} DataResponse{data=model.Announcement}
// @Failure 403 {object} errors.ErrorResponse
// @Router /announcements/{id} [put]
func (h *AnnouncementHandler) Update(c echo.Context) error {
	id, err := idParam(c, "id", "announcement")
	if err != nil {
		return err
	}
	var req service.AnnouncementInput
	if err := bind(c, &req); err != nil {
		return err
	}
	a, err := h.svc.Update(c.Request().Context(), actor(c), id, req)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "announcement updated successfully", a)
}

// Delete godoc
// @Summary Delete announcement
// @Tags announcements
// @Produce json
// @Security BearerAuth
// @Param id path int true "Announcement ID"
// @Success 200 {object} DataResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c echo.Context) error {
	id, err := idParam(c, "id", "announcement")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), actor(c), id); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "announcement deleted successfully", nil)
}

// Publish godoc
// @Summary Publish announcement
// @Tags announcements
// @Produce json
// @Security BearerAuth
// @Param id path int true "Announcement ID"
// @Success 200 {object} DataResponse{data=model.Announcement}
// @Router /announcements/{id}/publish [post]
func (h *AnnouncementHandler) Publish(c echo.Context) error {
	id, err := idParam(c, "id", "announcement")
	if err != nil {
		return err
	}
	a, err := h.svc.Publish(c.Request().Context(), actor(c), id)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "announcement published successfully", a)
}

// Unpublish godoc
// @Summary Unpublish announcement
// @Tags announcements
// @Produce json
// @Security BearerAuth
// @Param id path int true "Announcement ID"
// @Success 200 {object} DataResponse{data=model.Announcement}
// @Router /announcements/{id}/unpublish [post]
func (h *AnnouncementHandler) Unpublish(c echo.Context) error {
	id, err := idParam(c, "id", "announcement")
	if err != nil {
		return err
	}
	a, err := h.svc.Unpublish(c.Request().Context(), actor(c), id)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "announcement unpublished successfully", a)
}
