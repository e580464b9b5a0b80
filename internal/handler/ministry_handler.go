package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"churchadmin/internal/ledger"
	"churchadmin/internal/repository"
	"churchadmin/internal/service"
)

// MinistryHandler serves /ministries.
type MinistryHandler struct {
	svc     service.MinistryService
	finance service.FinanceService
	pager   Pager
}

func NewMinistryHandler(svc service.MinistryService, finance service.FinanceService, pager Pager) *MinistryHandler {
	return &MinistryHandler{svc: svc, finance: finance, pager: pager}
}

// List godoc
// @Summary List ministries
// @Tags ministries
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name or description"
// @Param is_active query bool false "Active flag"
// @Param leader_id query int false "Leader user ID"
// @Success 200 {object} ListResponse{data=[]model.Ministry}
// @Router /ministries [get]
func (h *MinistryHandler) List(c echo.Context) error {
	active, err := queryBool(c, "is_active")
	if err != nil {
		return err
	}
	leader, err := queryUint(c, "leader_id")
	if err != nil {
		return err
	}
	page := h.pager.Page(c)
	items, total, err := h.svc.List(c.Request().Context(), repository.MinistryFilter{
		Search:   c.QueryParam("search"),
		IsActive: active,
		LeaderID: leader,
	}, page)
	if err != nil {
		return err
	}
	return respondList(c, items, total, page)
}

// Get godoc
// @Summary Get ministry
// @Tags ministries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Ministry ID"
// @Success 200 {object} DataResponse{data=model.Ministry}
// @Failure 404 {object} errors.ErrorResponse
// @Router /ministries/{id} [get]
func (h *MinistryHandler) Get(c echo.Context) error {
	id, err := idParam(c, "id", "ministry")
	if err != nil {
		return err
	}
	ministry, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, ministry)
}

// Create godoc
// @Summary Create ministry
// @Tags ministries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param ministry body service.MinistryInput true "Ministry"
// @Success 201 {object} DataResponse{data=model.Ministry}
// @Failure 409 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /ministries [post]
func (h *MinistryHandler) Create(c echo.Context) error {
	var req service.MinistryInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ministry, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusCreated, "ministry created successfully", ministry)
}

// Update godoc
// @Summary Update ministry
// @Tags ministries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Ministry ID"
// @Param ministry body service.MinistryInput true "Ministry"
// @Success 200 {object} DataResponse{data=model.Ministry}
// @Failure 404 {object} errors.ErrorResponse
// @Router /ministries/{id} [put]
func (h *MinistryHandler) Update(c echo.Context) error {
	id, err := idParam(c, "id", "ministry")
	if err != nil {
		return err
	}
	var req service.MinistryInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ministry, err := h.svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "ministry updated successfully", ministry)
}

// Delete godoc
// @Summary Delete ministry
// @Tags ministries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Ministry ID"
// @Success 200 {object} DataResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /ministries/{id} [delete]
func (h *MinistryHandler) Delete(c echo.Context) error {
	id, err := idParam(c, "id", "ministry")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "ministry deleted successfully", nil)
}

// Members godoc
// @Summary Members of a ministry
// @Tags ministries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Ministry ID"
// @Success 200 {object} DataResponse{data=[]model.MinistryMember}
// @Router /ministries/{id}/members [get]
func (h *MinistryHandler) Members(c echo.Context) error {
	id, err := idParam(c, "id", "ministry")
	if err != nil {
		return err
	}
	members, err := h.svc.Members(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, members)
}

// AddMember godoc
// @Summary Add a member to a ministry
// @Tags ministries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Ministry ID"
// @Param member body service.AddMemberInput true "Member"
// @Success 201 {object} DataResponse{data=model.MinistryMember}
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /ministries/{id}/members [post]
func (h *MinistryHandler) AddMember(c echo.Context) error {
	id, err := idParam(c, "id", "ministry")
	if err != nil {
		return err
	}
	var req service.AddMemberInput
	if err := bind(c, &req); err != nil {
		return err
	}
	member, err := h.svc.AddMember(c.Request().Context(), actor(c), id, req)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusCreated, "member added successfully", member)
}

// RemoveMember godoc
// @Summary Remove a member from a ministry
// @Tags ministries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Ministry ID"
// @Param user_id path int true "User ID"
// @Success 200 {object} DataResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /ministries/{id}/members/{user_id} [delete]
func (h *MinistryHandler) RemoveMember(c echo.Context) error {
	id, err := idParam(c, "id", "ministry")
	if err != nil {
		return err
	}
	userID, err := idParam(c, "user_id", "member")
	if err != nil {
		return err
	}
	if err := h.svc.RemoveMember(c.Request().Context(), actor(c), id, userID); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "member removed successfully", nil)
}

// Contributions godoc
// @Summary Contributions designated to a ministry
// @Tags ministries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Ministry ID"
// @Success 200 {object} ListResponse{data=[]model.Contribution}
// @Router /ministries/{id}/contributions [get]
func (h *MinistryHandler) Contributions(c echo.Context) error {
	id, err := idParam(c, "id", "ministry")
	if err != nil {
		return err
	}
	filter, err := ledger.ParseFilter(c.QueryParams())
	if err != nil {
		return err
	}
	page := h.pager.Page(c)
	items, total, err := h.finance.MinistryContributions(c.Request().Context(), id, filter, page)
	if err != nil {
		return err
	}
	return respondList(c, items, total, page)
}
