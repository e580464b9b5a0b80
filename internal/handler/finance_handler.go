package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"churchadmin/internal/ledger"
	"churchadmin/internal/service"
)

// FinanceHandler serves contributions, donations and the financial reports.
type FinanceHandler struct {
	svc   service.FinanceService
	pager Pager
}

func NewFinanceHandler(svc service.FinanceService, pager Pager) *FinanceHandler {
	return &FinanceHandler{svc: svc, pager: pager}
}

// ListContributions godoc
// @Summary List contributions
// @Tags contributions
// @Produce json
// @Security BearerAuth
// @Param type query string false "Contribution type"
// @Param status query string false "pending, confirmed or cancelled"
// @Param payment_method query string false "Payment method"
// @Param user_id query int false "Contributor"
// @Param ministry_id query int false "Designated ministry"
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Success 200 {object} ListResponse{data=[]model.Contribution}
// @Failure 422 {object} errors.ErrorResponse
// @Router /contributions [get]
func (h *FinanceHandler) ListContributions(c echo.Context) error {
	filter, err := ledger.ParseFilter(c.QueryParams())
	if err != nil {
		return err
	}
	page := h.pager.Page(c)
	items, total, err := h.svc.ListContributions(c.Request().Context(), filter, page)
	if err != nil {
		return err
	}
	return respondList(c, items, total, page)
}

// GetContribution godoc
// @Summary Get contribution
// @Tags contributions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contribution ID"
// @Success 200 {object} DataResponse{data=model.Contribution}
// @Failure 404 {object} errors.ErrorResponse
// @Router /contributions/{id} [get]
func (h *FinanceHandler) GetContribution(c echo.Context) error {
	id, err := idParam(c, "id", "contribution")
	if err != nil {
		return err
	}
	item, err := h.svc.GetContribution(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, item)
}

// CreateContribution godoc
// @Summary Record a contribution
// @Tags contributions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param contribution body service.ContributionInput true "Contribution"
// @Success 201 {object} DataResponse{data=model.Contribution}
// @Failure 422 {object} errors.ErrorResponse
// @Router /contributions [post]
func (h *FinanceHandler) CreateContribution(c echo.Context) error {
	var req service.ContributionInput
	if err := bind(c, &req); err != nil {
		return err
	}
	item, err := h.svc.CreateContribution(c.Request().Context(), actor(c), req)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusCreated, "contribution recorded successfully", item)
}

// UpdateContribution godoc
// @Summary Update a contribution
// @Tags contributions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contribution ID"
// @Param contribution body service.ContributionUpdateInput true "Fields to change"
// @Success 200 {object} DataResponse{data=model.Contribution}
// @Failure 409 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /contributions/{id} [put]
func (h *FinanceHandler) UpdateContribution(c echo.Context) error {
	id, err := idParam(c, "id", "contribution")
	if err != nil {
		return err
	}
	var req service.ContributionUpdateInput
	if err := bind(c, &req); err != nil {
		return err
	}
	item, err := h.svc.UpdateContribution(c.Request().Context(), actor(c), id, req)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "contribution updated successfully", item)
}

// DeleteContribution godoc
// @Summary Delete a contribution
// @Tags contributions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contribution ID"
// @Success 200 {object} DataResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /contributions/{id} [delete]
func (h *FinanceHandler) DeleteContribution(c echo.Context) error {
	id, err := idParam(c, "id", "contribution")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteContribution(c.Request().Context(), id); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "contribution deleted successfully", nil)
}

// ContributionStatus godoc
// @Summary Change a contribution's status
// @Tags contributions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contribution ID"
// @Param status body service.StatusInput true "New status"
// @Success 200 {object} DataResponse{data=model.Contribution}
// @Failure 409 {object} errors.ErrorResponse
// @Router /contributions/{id}/status [patch]
func (h *FinanceHandler) ContributionStatus(c echo.Context) error {
	id, err := idParam(c, "id", "contribution")
	if err != nil {
		return err
	}
	var req service.StatusInput
	if err := bind(c, &req); err != nil {
		return err
	}
	item, err := h.svc.SetContributionStatus(c.Request().Context(), actor(c), id, req.Status)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "contribution status updated", item)
}

// ListDonations godoc
// @Summary List donations
// @Description Donor details of anonymous donations are redacted for viewers without edit rights.
// @Tags donations
// @Produce json
// @Security BearerAuth
// @Param type query string false "Donation type"
// @Param status query string false "pending, confirmed or cancelled"
// @Param anonymous query bool false "Anonymous flag"
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Success 200 {object} ListResponse{data=[]model.Donation}
// @Router /donations [get]
func (h *FinanceHandler) ListDonations(c echo.Context) error {
	filter, err := ledger.ParseFilter(c.QueryParams())
	if err != nil {
		return err
	}
	page := h.pager.Page(c)
	items, total, err := h.svc.ListDonations(c.Request().Context(), actor(c), filter, page)
	if err != nil {
		return err
	}
	return respondList(c, items, total, page)
}

// GetDonation godoc
// @Summary Get donation
// @Tags donations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Donation ID"
// @Success 200 {object} DataResponse{data=model.Donation}
// @Failure 404 {object} errors.ErrorResponse
// @Router /donations/{id} [get]
func (h *FinanceHandler) GetDonation(c echo.Context) error {
	id, err := idParam(c, "id", "donation")
	if err != nil {
		return err
	}
	item, err := h.svc.GetDonation(c.Request().Context(), actor(c), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, item)
}

// CreateDonation godoc
// @Summary Record a donation
// @Tags donations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param donation body service.DonationInput true "Donation"
// @Success 201 {object} DataResponse{data=model.Donation}
// @Failure 422 {object} errors.ErrorResponse
// @Router /donations [post]
func (h *FinanceHandler) CreateDonation(c echo.Context) error {
	var req service.DonationInput
	if err := bind(c, &req); err != nil {
		return err
	}
	item, err := h.svc.CreateDonation(c.Request().Context(), actor(c), req)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusCreated, "donation recorded successfully", item)
}

// UpdateDonation godoc
// @Summary Update a donation
// @Tags donations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Donation ID"
// @Param donation body service.DonationUpdateInput true "Fields to change"
// @Success 200 {object} DataResponse{data=model.Donation}
// @Failure 409 {object} errors.ErrorResponse
// @Router /donations/{id} [put]
func (h *FinanceHandler) UpdateDonation(c echo.Context) error {
	id, err := idParam(c, "id", "donation")
	if err != nil {
		return err
	}
	var req service.DonationUpdateInput
	if err := bind(c, &req); err != nil {
		return err
	}
	item, err := h.svc.UpdateDonation(c.Request().Context(), actor(c), id, req)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "donation updated successfully", item)
}

// DeleteDonation godoc
// @Summary Delete a donation
// @Tags donations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Donation ID"
// @Success 200 {object} DataResponse
// @Router /donations/{id} [delete]
func (h *FinanceHandler) DeleteDonation(c echo.Context) error {
	id, err := idParam(c, "id", "donation")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDonation(c.Request().Context(), id); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "donation deleted successfully", nil)
}

// DonationStatus godoc
// @Summary Change a donation's status
// @Tags donations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Donation ID"
// @Param status body service.StatusInput true "New status"
// @Success 200 {object} DataResponse{data=model.Donation}
// @Failure 409 {object} errors.ErrorResponse
// @Router /donations/{id}/status [patch]
func (h *FinanceHandler) DonationStatus(c echo.Context) error {
	id, err := idParam(c, "id", "donation")
	if err != nil {
		return err
	}
	var req service.StatusInput
	if err := bind(c, &req); err != nil {
		return err
	}
	item, err := h.svc.SetDonationStatus(c.Request().Context(), actor(c), id, req.Status)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "donation status updated", item)
}

// Summary godoc
// @Summary Combined contribution and donation summary
// @Description Defaults to the current calendar month. Only confirmed records count.
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Success 200 {object} DataResponse{data=ledger.CombinedSummary}
// @Failure 422 {object} errors.ErrorResponse
// @Router /contributions/reports/summary [get]
func (h *FinanceHandler) Summary(c echo.Context) error {
	r, err := h.window(c)
	if err != nil {
		return err
	}
	summary, err := h.svc.Summary(c.Request().Context(), r)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, summary)
}

// ReportByType godoc
// @Summary Contributions grouped by type
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param status query string false "Defaults to confirmed"
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Success 200 {object} DataResponse{data=service.GroupReport}
// @Failure 422 {object} errors.ErrorResponse
// @Router /contributions/reports/by-type [get]
func (h *FinanceHandler) ReportByType(c echo.Context) error {
	filter, err := ledger.ParseFilter(c.QueryParams())
	if err != nil {
		return err
	}
	report, err := h.svc.ReportByType(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, report)
}

// ReportByMinistry godoc
// @Summary Contributions grouped by designated ministry
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param status query string false "Defaults to confirmed"
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Success 200 {object} DataResponse{data=service.GroupReport}
// @Failure 422 {object} errors.ErrorResponse
// @Router /contributions/reports/by-ministry [get]
func (h *FinanceHandler) ReportByMinistry(c echo.Context) error {
	filter, err := ledger.ParseFilter(c.QueryParams())
	if err != nil {
		return err
	}
	report, err := h.svc.ReportByMinistry(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, report)
}

// ReportByDateRange godoc
// @Summary Contributions within a date range with total and count
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param start_date query string true "YYYY-MM-DD"
// @Param end_date query string true "YYYY-MM-DD"
// @Success 200 {object} DataResponse{data=service.RangeReport}
// @Failure 422 {object} errors.ErrorResponse
// @Router /contributions/reports/by-date-range [get]
func (h *FinanceHandler) ReportByDateRange(c echo.Context) error {
	filter, err := ledger.ParseFilter(c.QueryParams())
	if err != nil {
		return err
	}
	report, err := h.svc.ReportByDateRange(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, report)
}

// Archive godoc
// @Summary Archive the combined summary to object storage
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Success 201 {object} DataResponse{data=service.ArchiveResult}
// @Failure 503 {object} errors.ErrorResponse
// @Router /contributions/reports/archive [post]
func (h *FinanceHandler) Archive(c echo.Context) error {
	r, err := h.window(c)
	if err != nil {
		return err
	}
	result, err := h.svc.Archive(c.Request().Context(), actor(c), r)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusCreated, "report archived", result)
}

// window reads optional start_date and end_date bounds. Whichever end is
// missing is left zero for the service to default.
func (h *FinanceHandler) window(c echo.Context) (ledger.DateRange, error) {
	filter, err := ledger.ParseFilter(c.QueryParams())
	if err != nil {
		return ledger.DateRange{}, err
	}
	if err := filter.Validate(ledger.KindContribution); err != nil {
		return ledger.DateRange{}, err
	}
	return filter.Window(), nil
}
