package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"churchadmin/internal/access"
	apperrors "churchadmin/internal/errors"
	"churchadmin/internal/model"
	"churchadmin/internal/notify"
	"churchadmin/internal/repository"
)

// EventInput creates or replaces an event. Times are RFC 3339.
type EventInput struct {
	Title                string     `json:"title" validate:"required,max=255"`
	Description          string     `json:"description"`
	StartDate            time.Time  `json:"start_date" validate:"required"`
	EndDate              *time.Time `json:"end_date"`
	Location             string     `json:"location" validate:"omitempty,max=255"`
	Type                 string     `json:"type" validate:"omitempty,oneof=service meeting celebration outreach ministry other"`
	IsPublished          bool       `json:"is_published"`
	MaxAttendees         *int       `json:"max_attendees" validate:"omitempty,min=1"`
	RequiresRegistration bool       `json:"requires_registration"`
}

// RegistrationInput carries optional notes for a registration.
type RegistrationInput struct {
	Notes string `json:"notes"`
}

// AttendanceInput records attendance for one user.
type AttendanceInput struct {
	UserID uint   `json:"user_id" validate:"required"`
	Status string `json:"status" validate:"required,oneof=attended cancelled registered"`
	Notes  string `json:"notes"`
}

var (
	ErrEventFull              = apperrors.NewValidationError("event", "event is full")
	ErrAlreadyRegistered      = apperrors.Conflict("you are already registered for this event")
	ErrRegistrationNotOpen    = apperrors.NewValidationError("event", "registration is not open for this event")
	ErrRegistrationNotAllowed = apperrors.NewValidationError("event", "this event does not require registration")
)

// EventService manages events and their registrations.
type EventService interface {
	List(ctx context.Context, actor *access.Identity, filter repository.EventFilter, page repository.Pagination) ([]model.Event, int64, error)
	Get(ctx context.Context, actor *access.Identity, id uint) (*model.Event, error)
	Create(ctx context.Context, actor *access.Identity, in EventInput) (*model.Event, error)
	Update(ctx context.Context, actor *access.Identity, id uint, in EventInput) (*model.Event, error)
	Delete(ctx context.Context, actor *access.Identity, id uint) error
	Publish(ctx context.Context, actor *access.Identity, id uint) (*model.Event, error)
	Register(ctx context.Context, actor *access.Identity, id uint, in RegistrationInput) (*model.EventAttendee, error)
	Unregister(ctx context.Context, actor *access.Identity, id uint) error
	MarkAttendance(ctx context.Context, actor *access.Identity, id uint, in AttendanceInput) (*model.EventAttendee, error)
	Attendees(ctx context.Context, actor *access.Identity, id uint) ([]model.EventAttendee, error)
}

type eventService struct {
	events    repository.EventRepository
	users     repository.UserRepository
	publisher notify.Publisher
	now       Clock
}

// NewEventService creates a new event service.
func NewEventService(events repository.EventRepository, users repository.UserRepository, publisher notify.Publisher, now Clock) EventService {
	return &eventService{events: events, users: users, publisher: publisher, now: now}
}

// List returns events ordered by start time. Only staff see drafts.
func (s *eventService) List(ctx context.Context, actor *access.Identity, filter repository.EventFilter, page repository.Pagination) ([]model.Event, int64, error) {
	if !isStaff(actor) && !actor.HasPermission(access.PermCreateEvents) {
		published := true
		filter.Published = &published
	}
	filter.Now = s.now()
	return s.events.List(ctx, filter, page)
}

func (s *eventService) Get(ctx context.Context, actor *access.Identity, id uint) (*model.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "event")
	}
	if !event.IsPublished && !access.Authorize(actor, s.manageReq(event)) && !actor.HasPermission(access.PermCreateEvents) {
		return nil, apperrors.NotFound("event")
	}
	if event.RegisteredCount, err = s.events.CountActiveAttendees(ctx, id); err != nil {
		return nil, err
	}
	if event.AttendedCount, err = s.events.CountByStatus(ctx, id, model.AttendeeAttended); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *eventService) Create(ctx context.Context, actor *access.Identity, in EventInput) (*model.Event, error) {
	if err := access.Check(actor, access.AnyOf(
		access.AnyRole(access.RolePastor, access.RoleAdministrator),
		access.Permission(access.PermCreateEvents),
	)); err != nil {
		return nil, err
	}
	if err := validateEventInput(in); err != nil {
		return nil, err
	}
	event := &model.Event{OrganizerID: actor.UserID}
	applyEvent(event, in)
	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, event.ID)
}

func (s *eventService) Update(ctx context.Context, actor *access.Identity, id uint, in EventInput) (*model.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "event")
	}
	if err := access.Check(actor, s.manageReq(event)); err != nil {
		return nil, err
	}
	if err := validateEventInput(in); err != nil {
		return nil, err
	}
	if in.MaxAttendees != nil {
		active, err := s.events.CountActiveAttendees(ctx, id)
		if err != nil {
			return nil, err
		}
		if int64(*in.MaxAttendees) < active {
			return nil, apperrors.NewValidationError("max_attendees", "max attendees cannot be lower than the current number of registrations")
		}
	}
	applyEvent(event, in)
	event.Organizer = nil
	if err := s.events.Update(ctx, event); err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, id)
}

func (s *eventService) Delete(ctx context.Context, actor *access.Identity, id uint) error {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "event")
	}
	if err := access.Check(actor, s.manageReq(event)); err != nil {
		return err
	}
	return notFound(s.events.Delete(ctx, id), "event")
}

func (s *eventService) Publish(ctx context.Context, actor *access.Identity, id uint) (*model.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "event")
	}
	if err := access.Check(actor, s.manageReq(event)); err != nil {
		return nil, err
	}
	if !event.IsPublished {
		event.IsPublished = true
		event.Organizer = nil
		if err := s.events.Update(ctx, event); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, actor, id)
}

// Register signs the actor up for an event. The capacity check and the insert
// run in one transaction holding a lock on the event row, so concurrent
// registrations for the last seat cannot both succeed.
func (s *eventService) Register(ctx context.Context, actor *access.Identity, id uint, in RegistrationInput) (*model.EventAttendee, error) {
	if err := access.Check(actor, access.Authenticated()); err != nil {
		return nil, err
	}

	var attendee *model.EventAttendee
	err := s.events.WithTransaction(ctx, func(ctx context.Context, repo repository.EventRepository) error {
		event, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err, "event")
		}
		if !event.IsPublished {
			return ErrRegistrationNotOpen
		}
		if !event.RequiresRegistration {
			return ErrRegistrationNotAllowed
		}

		existing, err := repo.FindAttendee(ctx, id, actor.UserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if existing != nil && existing.Status != model.AttendeeCancelled {
			return ErrAlreadyRegistered
		}

		if event.MaxAttendees != nil {
			active, err := repo.CountActiveAttendees(ctx, id)
			if err != nil {
				return err
			}
			if active >= int64(*event.MaxAttendees) {
				return ErrEventFull
			}
		}

		if existing != nil {
			existing.Status = model.AttendeeRegistered
			existing.Notes = in.Notes
			attendee = existing
			return repo.UpdateAttendee(ctx, existing)
		}
		attendee = &model.EventAttendee{
			EventID: id,
			UserID:  actor.UserID,
			Status:  model.AttendeeRegistered,
			Notes:   in.Notes,
		}
		if err := repo.CreateAttendee(ctx, attendee); err != nil {
			return conflictOnDuplicate(err, ErrAlreadyRegistered.Error())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, notify.New(notify.EventRegisteredForEvent, actor.UserID, map[string]interface{}{
		"event_id": id,
		"user_id":  actor.UserID,
	}))
	return attendee, nil
}

// Unregister cancels the actor's registration. The row is kept so a later
// registration re-activates it.
func (s *eventService) Unregister(ctx context.Context, actor *access.Identity, id uint) error {
	if err := access.Check(actor, access.Authenticated()); err != nil {
		return err
	}
	if _, err := s.events.FindByID(ctx, id); err != nil {
		return notFound(err, "event")
	}
	attendee, err := s.events.FindAttendee(ctx, id, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("registration")
		}
		return err
	}
	if attendee.Status == model.AttendeeCancelled {
		return apperrors.NotFound("registration")
	}
	attendee.Status = model.AttendeeCancelled
	return s.events.UpdateAttendee(ctx, attendee)
}

// MarkAttendance sets a user's attendance status. Walk-ins without a
// registration are recorded directly.
func (s *eventService) MarkAttendance(ctx context.Context, actor *access.Identity, id uint, in AttendanceInput) (*model.EventAttendee, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "event")
	}
	if err := access.Check(actor, access.AnyOf(
		access.OwnedBy(event.OrganizerID),
		access.Permission(access.PermManageEventAttendance),
	)); err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, in.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewValidationError("user_id", "the selected user does not exist")
		}
		return nil, err
	}

	status := model.AttendeeStatus(in.Status)
	attendee, err := s.events.FindAttendee(ctx, id, in.UserID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if status == model.AttendeeCancelled {
			return nil, apperrors.NotFound("registration")
		}
		attendee = &model.EventAttendee{EventID: id, UserID: in.UserID, Status: status, Notes: in.Notes}
		if err := s.events.CreateAttendee(ctx, attendee); err != nil {
			return nil, conflictOnDuplicate(err, "attendance already recorded")
		}
		return attendee, nil
	case err != nil:
		return nil, err
	}

	attendee.Status = status
	if in.Notes != "" {
		attendee.Notes = in.Notes
	}
	if err := s.events.UpdateAttendee(ctx, attendee); err != nil {
		return nil, err
	}
	return attendee, nil
}

func (s *eventService) Attendees(ctx context.Context, actor *access.Identity, id uint) ([]model.EventAttendee, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "event")
	}
	if err := access.Check(actor, access.AnyOf(
		access.OwnedBy(event.OrganizerID),
		access.Permission(access.PermManageEventAttendance),
		access.AnyRole(access.RoleAdministrator),
	)); err != nil {
		return nil, err
	}
	return s.events.Attendees(ctx, id)
}

func (s *eventService) manageReq(event *model.Event) access.Requirement {
	return access.AnyOf(
		access.OwnedBy(event.OrganizerID),
		access.AnyRole(access.RoleAdministrator),
	)
}

func validateEventInput(in EventInput) error {
	verr := &apperrors.ValidationError{}
	if strings.TrimSpace(in.Title) == "" {
		verr.Add("title", "the title field is required")
	}
	if in.StartDate.IsZero() {
		verr.Add("start_date", "the start date field is required")
	}
	if in.EndDate != nil && !in.EndDate.After(in.StartDate) {
		verr.Add("end_date", "the end date must be after the start date")
	}
	if in.MaxAttendees != nil && *in.MaxAttendees < 1 {
		verr.Add("max_attendees", "max attendees must be at least 1")
	}
	return verr.OrNil()
}

func applyEvent(event *model.Event, in EventInput) {
	event.Title = strings.TrimSpace(in.Title)
	event.Description = in.Description
	event.StartDate = in.StartDate
	event.EndDate = in.EndDate
	event.Location = in.Location
	event.Type = model.EventType(in.Type)
	if event.Type == "" {
		event.Type = model.EventTypeOther
	}
	event.IsPublished = in.IsPublished
	event.MaxAttendees = in.MaxAttendees
	event.RequiresRegistration = in.RequiresRegistration
}
