package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"churchadmin/internal/repository"
	"churchadmin/internal/service"
)

// EventHandler serves /events.
type EventHandler struct {
	svc   service.EventService
	pager Pager
}

func NewEventHandler(svc service.EventService, pager Pager) *EventHandler {
	return &EventHandler{svc: svc, pager: pager}
}

// List godoc
// @Summary List events
// @Description Members only see published events.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param type query string false "Event type"
// @Param published query bool false "Published flag"
// @Param upcoming query bool false "Only events starting from now"
// @Param search query string false "Title, description or location"
// @Param start_date query string false "Starts on or after, YYYY-MM-DD"
// @Param end_date query string false "Starts on or before, YYYY-MM-DD"
// @Success 200 {object} ListResponse{data=[]model.Event}
// @Failure 422 {object} errors.ErrorResponse
// @Router /events [get]
func (h *EventHandler) List(c echo.Context) error {
	published, err := queryBool(c, "published")
	if err != nil {
		return err
	}
	upcoming, err := queryBool(c, "upcoming")
	if err != nil {
		return err
	}
	from, err := queryDate(c, "start_date")
	if err != nil {
		return err
	}
	to, err := queryDate(c, "end_date")
	if err != nil {
		return err
	}
	filter := repository.EventFilter{
		Type:      c.QueryParam("type"),
		Published: published,
		Upcoming:  upcoming != nil && *upcoming,
		Search:    c.QueryParam("search"),
		From:      from,
		To:        to,
	}
	page := h.pager.Page(c)
	events, total, err := h.svc.List(c.Request().Context(), actor(c), filter, page)
	if err != nil {
		return err
	}
	return respondList(c, events, total, page)
}

// Get godoc
// @Summary Get event with attendee counts
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 200 {object} DataResponse{data=model.Event}
// @Failure 404 {object} errors.ErrorResponse
// @Router /events/{id} [get]
func (h *EventHandler) Get(c echo.Context) error {
	id, err := idParam(c, "id", "event")
	if err != nil {
		return err
	}
	event, err := h.svc.Get(c.Request().Context(), actor(c), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, event)
}

// Create godoc
// @Summary Create event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body service.EventInput true "Event"
// @Success 201 {object} DataResponse{data=model.Event}
// @Failure 403 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /events [post]
func (h *EventHandler) Create(c echo.Context) error {
	var req service.EventInput
	if err := bind(c, &req); err != nil {
		return err
	}
	event, err := h.svc.Create(c.Request().Context(), actor(c), req)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusCreated, "event created successfully", event)
}

// Update godoc
// @Summary Update event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Param event body service.EventInput true "Event"
// @Success 200 {object} DataResponse{data=model.Event}
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /events/{id} [put]
func (h *EventHandler) Update(c echo.Context) error {
	id, err := idParam(c, "id", "event")
	if err != nil {
		return err
	}
	var req service.EventInput
	if err := bind(c, &req); err != nil {
		return err
	}
	event, err := h.svc.Update(c.Request().Context(), actor(c), id, req)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "event updated successfully", event)
}

// Delete godoc
// @Summary Delete event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 200 {object} DataResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c echo.Context) error {
	id, err := idParam(c, "id", "event")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), actor(c), id); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "event deleted successfully", nil)
}

// Publish godoc
// @Summary Publish event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 200 {object} DataResponse{data=model.Event}
// @Router /events/{id}/publish [post]
func (h *EventHandler) Publish(c echo.Context) error {
	id, err := idParam(c, "id", "event")
	if err != nil {
		return err
	}
	event, err := h.svc.Publish(c.Request().Context(), actor(c), id)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "event published successfully", event)
}

// Register godoc
// @Summary Register the current user for an event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Param registration body service.RegistrationInput false "Notes"
// @Success 201 {object} DataResponse{data=model.EventAttendee}
// @Failure 409 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /events/{id}/register [post]
func (h *EventHandler) Register(c echo.Context) error {
	id, err := idParam(c, "id", "event")
	if err != nil {
		return err
	}
	var req service.RegistrationInput
	if c.Request().ContentLength > 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}
	attendee, err := h.svc.Register(c.Request().Context(), actor(c), id, req)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusCreated, "successfully registered for event", attendee)
}

// Unregister godoc
// @Summary Cancel the current user's registration
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 200 {object} DataResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /events/{id}/unregister [delete]
func (h *EventHandler) Unregister(c echo.Context) error {
	id, err := idParam(c, "id", "event")
	if err != nil {
		return err
	}
	if err := h.svc.Unregister(c.Request().Context(), actor(c), id); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "successfully unregistered from event", nil)
}

// MarkAttendance godoc
// @Summary Record attendance for a user
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Param attendance body service.AttendanceInput true "Attendance"
// @Success 200 {object} DataResponse{data=model.EventAttendee}
// @Failure 403 {object} errors.ErrorResponse
// @Router /events/{id}/attendance [post]
func (h *EventHandler) MarkAttendance(c echo.Context) error {
	id, err := idParam(c, "id", "event")
	if err != nil {
		return err
	}
	var req service.AttendanceInput
	if err := bind(c, &req); err != nil {
		return err
	}
	attendee, err := h.svc.MarkAttendance(c.Request().Context(), actor(c), id, req)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "attendance recorded", attendee)
}

// Attendees godoc
// @Summary Attendees of an event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 200 {object} DataResponse{data=[]model.EventAttendee}
// @Router /events/{id}/attendees [get]
func (h *EventHandler) Attendees(c echo.Context) error {
	id, err := idParam(c, "id", "event")
	if err != nil {
		return err
	}
	attendees, err := h.svc.Attendees(c.Request().Context(), actor(c), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, attendees)
}
