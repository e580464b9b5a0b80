package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"churchadmin/internal/access"
	apperrors "churchadmin/internal/errors"
	"churchadmin/internal/model"
	"churchadmin/internal/notify"
	"churchadmin/internal/repository"
)

// memEventRepository keeps events in memory. WithTransaction serialises
// callers the way a row lock on the event does.
type memEventRepository struct {
	txMu      sync.Mutex
	mu        sync.Mutex
	nextID    uint
	events    map[uint]model.Event
	attendees []model.EventAttendee
}

func newMemEventRepository(events ...model.Event) *memEventRepository {
	r := &memEventRepository{events: make(map[uint]model.Event)}
	for _, e := range events {
		r.events[e.ID] = e
	}
	return r
}

func (r *memEventRepository) Create(_ context.Context, event *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	event.ID = 1000 + r.nextID
	r.events[event.ID] = *event
	return nil
}

func (r *memEventRepository) Update(_ context.Context, event *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event.ID] = *event
	return nil
}

func (r *memEventRepository) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *memEventRepository) FindByID(_ context.Context, id uint) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &e, nil
}

func (r *memEventRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Event, error) {
	return r.FindByID(ctx, id)
}

func (r *memEventRepository) List(context.Context, repository.EventFilter, repository.Pagination) ([]model.Event, int64, error) {
	return nil, 0, nil
}

func (r *memEventRepository) FindAttendee(_ context.Context, eventID, userID uint) (*model.EventAttendee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attendees {
		if a.EventID == eventID && a.UserID == userID {
			found := a
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memEventRepository) CreateAttendee(_ context.Context, attendee *model.EventAttendee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attendees {
		if a.EventID == attendee.EventID && a.UserID == attendee.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	attendee.ID = uint(len(r.attendees) + 1)
	r.attendees = append(r.attendees, *attendee)
	return nil
}

func (r *memEventRepository) UpdateAttendee(_ context.Context, attendee *model.EventAttendee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.attendees {
		if a.ID == attendee.ID {
			r.attendees[i] = *attendee
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memEventRepository) Attendees(_ context.Context, eventID uint) ([]model.EventAttendee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.EventAttendee
	for _, a := range r.attendees {
		if a.EventID == eventID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memEventRepository) CountActiveAttendees(_ context.Context, eventID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.attendees {
		if a.EventID == eventID && a.Status != model.AttendeeCancelled {
			n++
		}
	}
	return n, nil
}

func (r *memEventRepository) CountByStatus(_ context.Context, eventID uint, status model.AttendeeStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.attendees {
		if a.EventID == eventID && a.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *memEventRepository) CountUpcoming(context.Context, time.Time, bool) (int64, error) {
	return 0, nil
}

func (r *memEventRepository) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.events)), nil
}

func (r *memEventRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.EventRepository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	return fn(ctx, r)
}

func intPtr(v int) *int { return &v }

var eventNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestEventService(events ...model.Event) (EventService, *memEventRepository, *MockUserRepository, *recordingPublisher) {
	repo := newMemEventRepository(events...)
	users := new(MockUserRepository)
	pub := &recordingPublisher{}
	return NewEventService(repo, users, pub, fixedClock(eventNow)), repo, users, pub
}

func retreat(max *int) model.Event {
	return model.Event{
		ID:                   1,
		Title:                "Retreat",
		StartDate:            eventNow.Add(72 * time.Hour),
		IsPublished:          true,
		RequiresRegistration: true,
		MaxAttendees:         max,
		OrganizerID:          50,
	}
}

func TestEventService_RegisterFullEvent(t *testing.T) {
	svc, repo, _, pub := newTestEventService(retreat(intPtr(2)))
	ctx := context.Background()

	_, err := svc.Register(ctx, identity(1, access.RoleMember), 1, RegistrationInput{})
	require.NoError(t, err)
	_, err = svc.Register(ctx, identity(2, access.RoleMember), 1, RegistrationInput{})
	require.NoError(t, err)

	_, err = svc.Register(ctx, identity(3, access.RoleMember), 1, RegistrationInput{})
	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "event is full", verr.Error())

	n, _ := repo.CountActiveAttendees(ctx, 1)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []string{notify.EventRegisteredForEvent, notify.EventRegisteredForEvent}, pub.types())
}

func TestEventService_ConcurrentDuplicateRegistration(t *testing.T) {
	svc, repo, _, _ := newTestEventService(retreat(intPtr(10)))
	ctx := context.Background()
	actor := identity(8, access.RoleMember)

	const attempts = 2
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(ctx, actor, 1, RegistrationInput{})
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperrors.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)
	attendees, _ := repo.Attendees(ctx, 1)
	assert.Len(t, attendees, 1)
}

func TestEventService_RegisterRules(t *testing.T) {
	draft := retreat(nil)
	draft.IsPublished = false
	open := retreat(nil)
	open.ID = 2
	open.RequiresRegistration = false

	svc, _, _, _ := newTestEventService(draft, open)
	ctx := context.Background()
	actor := identity(4, access.RoleMember)

	_, err := svc.Register(ctx, actor, 1, RegistrationInput{})
	assert.ErrorIs(t, err, ErrRegistrationNotOpen)

	_, err = svc.Register(ctx, actor, 2, RegistrationInput{})
	assert.ErrorIs(t, err, ErrRegistrationNotAllowed)

	_, err = svc.Register(ctx, actor, 99, RegistrationInput{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Register(ctx, nil, 1, RegistrationInput{})
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestEventService_ReRegisterAfterCancel(t *testing.T) {
	svc, repo, _, _ := newTestEventService(retreat(intPtr(1)))
	ctx := context.Background()
	actor := identity(6, access.RoleMember)

	first, err := svc.Register(ctx, actor, 1, RegistrationInput{})
	require.NoError(t, err)
	require.NoError(t, svc.Unregister(ctx, actor, 1))
	assert.ErrorIs(t, svc.Unregister(ctx, actor, 1), apperrors.ErrNotFound)

	// the freed seat can be taken again and the same row is reused
	again, err := svc.Register(ctx, actor, 1, RegistrationInput{Notes: "back"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, model.AttendeeRegistered, again.Status)

	attendees, _ := repo.Attendees(ctx, 1)
	assert.Len(t, attendees, 1)
}

func TestEventService_MarkAttendance(t *testing.T) {
	svc, repo, users, _ := newTestEventService(retreat(nil))
	ctx := context.Background()
	users.On("FindByID", mock.Anything, uint(12)).Return(&model.User{ID: 12}, nil)

	_, err := svc.MarkAttendance(ctx, identity(12, access.RoleMember), 1, AttendanceInput{UserID: 12, Status: "attended"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	organizer := identity(50, access.RoleMember)
	_, err = svc.MarkAttendance(ctx, organizer, 1, AttendanceInput{UserID: 12, Status: "cancelled"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	walkIn, err := svc.MarkAttendance(ctx, organizer, 1, AttendanceInput{UserID: 12, Status: "attended"})
	require.NoError(t, err)
	assert.Equal(t, model.AttendeeAttended, walkIn.Status)

	n, _ := repo.CountByStatus(ctx, 1, model.AttendeeAttended)
	assert.Equal(t, int64(1), n)

	pastor := identity(60, access.RolePastor)
	updated, err := svc.MarkAttendance(ctx, pastor, 1, AttendanceInput{UserID: 12, Status: "cancelled", Notes: "left early"})
	require.NoError(t, err)
	assert.Equal(t, walkIn.ID, updated.ID)
	assert.Equal(t, "left early", updated.Notes)
}

func TestEventService_CreateAndManage(t *testing.T) {
	svc, _, _, _ := newTestEventService()
	ctx := context.Background()

	in := EventInput{Title: "Choir practice", StartDate: eventNow.Add(time.Hour), Type: "meeting"}
	_, err := svc.Create(ctx, identity(1, access.RoleMember), in)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	bad := in
	end := in.StartDate.Add(-time.Minute)
	bad.EndDate = &end
	_, err = svc.Create(ctx, identity(2, access.RolePastor), bad)
	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "end_date")

	event, err := svc.Create(ctx, identity(2, access.RolePastor), in)
	require.NoError(t, err)
	assert.Equal(t, uint(2), event.OrganizerID)
	assert.Equal(t, model.EventTypeMeeting, event.Type)

	// drafts are hidden from members
	_, err = svc.Get(ctx, identity(3, access.RoleMember), event.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Update(ctx, identity(3, access.RolePastor), event.ID, in)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	published, err := svc.Publish(ctx, identity(9, access.RoleAdministrator), event.ID)
	require.NoError(t, err)
	assert.True(t, published.IsPublished)

	got, err := svc.Get(ctx, identity(3, access.RoleMember), event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Choir practice", got.Title)

	require.NoError(t, svc.Delete(ctx, identity(2, access.RolePastor), event.ID))
}
