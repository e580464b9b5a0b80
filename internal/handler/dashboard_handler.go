package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"churchadmin/internal/service"
)

// DashboardHandler serves the per-role dashboards.
type DashboardHandler struct {
	svc service.DashboardService
}

func NewDashboardHandler(svc service.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Admin godoc
// @Summary Administrator dashboard
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DataResponse{data=service.AdminDashboard}
// @Failure 403 {object} errors.ErrorResponse
// @Router /dashboard/admin [get]
func (h *DashboardHandler) Admin(c echo.Context) error {
	d, err := h.svc.Admin(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, d)
}

// Pastor godoc
// @Summary Pastor dashboard
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DataResponse{data=service.PastorDashboard}
// @Failure 403 {object} errors.ErrorResponse
// @Router /dashboard/pastor [get]
func (h *DashboardHandler) Pastor(c echo.Context) error {
	d, err := h.svc.Pastor(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, d)
}

// Finance godoc
// @Summary Finance committee dashboard
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DataResponse{data=service.FinanceDashboard}
// @Failure 403 {object} errors.ErrorResponse
// @Router /dashboard/finance [get]
func (h *DashboardHandler) Finance(c echo.Context) error {
	d, err := h.svc.Finance(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, d)
}

// Member godoc
// @Summary Member dashboard
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DataResponse{data=service.MemberDashboard}
// @Router /dashboard/member [get]
func (h *DashboardHandler) Member(c echo.Context) error {
	d, err := h.svc.Member(c.Request().Context(), actor(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, d)
}
