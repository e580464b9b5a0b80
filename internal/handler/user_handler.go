package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"churchadmin/internal/ledger"
	"churchadmin/internal/repository"
	"churchadmin/internal/service"
)

// UserHandler serves the member administration and profile endpoints.
type UserHandler struct {
	svc     service.UserService
	finance service.FinanceService
	pager   Pager
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService, finance service.FinanceService, pager Pager) *UserHandler {
	return &UserHandler{svc: svc, finance: finance, pager: pager}
}

// List godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name or email"
// @Param is_active query bool false "Active flag"
// @Param role query string false "Role name"
// @Param page query int false "Page"
// @Param per_page query int false "Page size"
// @Success 200 {object} ListResponse{data=[]model.User}
// @Failure 403 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) List(c echo.Context) error {
	active, err := queryBool(c, "is_active")
	if err != nil {
		return err
	}
	filter := repository.UserFilter{
		Search:   c.QueryParam("search"),
		IsActive: active,
		Role:     c.QueryParam("role"),
	}
	page := h.pager.Page(c)
	users, total, err := h.svc.List(c.Request().Context(), filter, page)
	if err != nil {
		return err
	}
	return respondList(c, users, total, page)
}

// Get godoc
// @Summary Get user by id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} DataResponse{data=model.User}
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := idParam(c, "id", "user")
	if err != nil {
		return err
	}
	user, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user)
}

// Create godoc
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user body service.CreateUserInput true "User payload"
// @Success 201 {object} DataResponse{data=model.User}
// @Failure 409 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req service.CreateUserInput
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusCreated, "user created successfully", user)
}

// Update godoc
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param user body service.UpdateUserInput true "Fields to change"
// @Success 200 {object} DataResponse{data=model.User}
// @Failure 404 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	id, err := idParam(c, "id", "user")
	if err != nil {
		return err
	}
	var req service.UpdateUserInput
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "user updated successfully", user)
}

// Delete godoc
// @Summary Delete user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} DataResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := idParam(c, "id", "user")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), actor(c), id); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "user deleted successfully", nil)
}

// AssignRole godoc
// @Summary Assign a role to a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param role body service.RoleInput true "Role"
// @Success 200 {object} DataResponse{data=model.User}
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users/{id}/roles [post]
func (h *UserHandler) AssignRole(c echo.Context) error {
	id, err := idParam(c, "id", "user")
	if err != nil {
		return err
	}
	var req service.RoleInput
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.svc.AssignRole(c.Request().Context(), id, req.Role)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "role assigned successfully", user)
}

// RemoveRole godoc
// @Summary Remove a role from a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param role path string true "Role name"
// @Success 200 {object} DataResponse{data=model.User}
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users/{id}/roles/{role} [delete]
func (h *UserHandler) RemoveRole(c echo.Context) error {
	id, err := idParam(c, "id", "user")
	if err != nil {
		return err
	}
	user, err := h.svc.RemoveRole(c.Request().Context(), id, c.Param("role"))
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "role removed successfully", user)
}

// Ministries godoc
// @Summary Ministries a user belongs to
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} DataResponse{data=[]model.MinistryMember}
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id}/ministries [get]
func (h *UserHandler) Ministries(c echo.Context) error {
	id, err := idParam(c, "id", "user")
	if err != nil {
		return err
	}
	memberships, err := h.svc.Ministries(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, memberships)
}

// Contributions godoc
// @Summary Contributions recorded for a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} ListResponse{data=[]model.Contribution}
// @Failure 403 {object} errors.ErrorResponse
// @Router /users/{id}/contributions [get]
func (h *UserHandler) Contributions(c echo.Context) error {
	id, err := idParam(c, "id", "user")
	if err != nil {
		return err
	}
	filter, err := ledger.ParseFilter(c.QueryParams())
	if err != nil {
		return err
	}
	page := h.pager.Page(c)
	items, total, err := h.finance.UserContributions(c.Request().Context(), actor(c), id, filter, page)
	if err != nil {
		return err
	}
	return respondList(c, items, total, page)
}

// Donations godoc
// @Summary Donations recorded for a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} ListResponse{data=[]model.Donation}
// @Failure 403 {object} errors.ErrorResponse
// @Router /users/{id}/donations [get]
func (h *UserHandler) Donations(c echo.Context) error {
	id, err := idParam(c, "id", "user")
	if err != nil {
		return err
	}
	filter, err := ledger.ParseFilter(c.QueryParams())
	if err != nil {
		return err
	}
	page := h.pager.Page(c)
	items, total, err := h.finance.UserDonations(c.Request().Context(), actor(c), id, filter, page)
	if err != nil {
		return err
	}
	return respondList(c, items, total, page)
}

// FinancialHistory godoc
// @Summary Giving history of a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Success 200 {object} DataResponse{data=ledger.UserHistory}
// @Failure 403 {object} errors.ErrorResponse
// @Router /users/{id}/financial-history [get]
func (h *UserHandler) FinancialHistory(c echo.Context) error {
	id, err := idParam(c, "id", "user")
	if err != nil {
		return err
	}
	return h.history(c, id)
}

// MyFinancialHistory godoc
// @Summary Giving history of the current user
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Success 200 {object} DataResponse{data=ledger.UserHistory}
// @Router /me/financial-history [get]
func (h *UserHandler) MyFinancialHistory(c echo.Context) error {
	who, err := requireActor(c)
	if err != nil {
		return err
	}
	return h.history(c, who.UserID)
}

func (h *UserHandler) history(c echo.Context, userID uint) error {
	filter, err := ledger.ParseFilter(c.QueryParams())
	if err != nil {
		return err
	}
	window := filter.Window()
	history, err := h.finance.History(c.Request().Context(), actor(c), userID, &window)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, history)
}

// Profile godoc
// @Summary Current user's profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DataResponse{data=model.User}
// @Router /profile [get]
func (h *UserHandler) Profile(c echo.Context) error {
	who, err := requireActor(c)
	if err != nil {
		return err
	}
	user, err := h.svc.Get(c.Request().Context(), who.UserID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user)
}

// UpdateProfile godoc
// @Summary Update the current user's profile
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body service.ProfileInput true "Fields to change"
// @Success 200 {object} DataResponse{data=model.User}
// @Failure 409 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /profile [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	who, err := requireActor(c)
	if err != nil {
		return err
	}
	var req service.ProfileInput
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.svc.UpdateProfile(c.Request().Context(), who.UserID, req)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "profile updated successfully", user)
}
