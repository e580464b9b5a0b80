package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"churchadmin/internal/model"
)

// EventFilter restricts an event listing.
type EventFilter struct {
	Type      string
	Published *bool
	Upcoming  bool
	Search    string
	From      *time.Time
	To        *time.Time
	Now       time.Time
}

// EventRepository defines event and attendance persistence operations.
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	Update(ctx context.Context, event *model.Event) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Event, error)
	// FindByIDForUpdate locks the event row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uint) (*model.Event, error)
	List(ctx context.Context, filter EventFilter, page Pagination) ([]model.Event, int64, error)
	FindAttendee(ctx context.Context, eventID, userID uint) (*model.EventAttendee, error)
	CreateAttendee(ctx context.Context, attendee *model.EventAttendee) error
	UpdateAttendee(ctx context.Context, attendee *model.EventAttendee) error
	Attendees(ctx context.Context, eventID uint) ([]model.EventAttendee, error)
	// CountActiveAttendees counts registrations that are not cancelled.
	CountActiveAttendees(ctx context.Context, eventID uint) (int64, error)
	CountByStatus(ctx context.Context, eventID uint, status model.AttendeeStatus) (int64, error)
	CountUpcoming(ctx context.Context, now time.Time, publishedOnly bool) (int64, error)
	Count(ctx context.Context) (int64, error)
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo EventRepository) error) error
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Omit("Organizer", "Attendees").Create(event).Error
}

func (r *eventRepository) Update(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Omit("Organizer", "Attendees").Save(event).Error
}

func (r *eventRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&model.EventAttendee{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Event{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *eventRepository) FindByID(ctx context.Context, id uint) (*model.Event, error) {
	var event model.Event
	if err := r.db.WithContext(ctx).Preload("Organizer").First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Event, error) {
	var event model.Event
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) List(ctx context.Context, filter EventFilter, page Pagination) ([]model.Event, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Type != "" {
			db = db.Where("type = ?", filter.Type)
		}
		if filter.Published != nil {
			db = db.Where("is_published = ?", *filter.Published)
		}
		if filter.Upcoming {
			db = db.Where("start_date >= ?", filter.Now)
		}
		if filter.Search != "" {
			p := likePattern(filter.Search)
			db = db.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(location) LIKE ?", p, p, p)
		}
		if filter.From != nil {
			db = db.Where("start_date >= ?", *filter.From)
		}
		if filter.To != nil {
			db = db.Where("start_date < ?", filter.To.AddDate(0, 0, 1))
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Event{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var events []model.Event
	if err := r.db.WithContext(ctx).Scopes(scope, page.scope).
		Preload("Organizer").
		Order("start_date ASC, id ASC").
		Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) FindAttendee(ctx context.Context, eventID, userID uint) (*model.EventAttendee, error) {
	var attendee model.EventAttendee
	if err := r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&attendee).Error; err != nil {
		return nil, err
	}
	return &attendee, nil
}

func (r *eventRepository) CreateAttendee(ctx context.Context, attendee *model.EventAttendee) error {
	return r.db.WithContext(ctx).Omit("User", "Event").Create(attendee).Error
}

func (r *eventRepository) UpdateAttendee(ctx context.Context, attendee *model.EventAttendee) error {
	return r.db.WithContext(ctx).Omit("User", "Event").Save(attendee).Error
}

func (r *eventRepository) Attendees(ctx context.Context, eventID uint) ([]model.EventAttendee, error) {
	var attendees []model.EventAttendee
	if err := r.db.WithContext(ctx).Preload("User").
		Where("event_id = ?", eventID).
		Order("created_at ASC, id ASC").
		Find(&attendees).Error; err != nil {
		return nil, err
	}
	return attendees, nil
}

func (r *eventRepository) CountActiveAttendees(ctx context.Context, eventID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.EventAttendee{}).
		Where("event_id = ? AND status <> ?", eventID, model.AttendeeCancelled).
		Count(&n).Error
	return n, err
}

func (r *eventRepository) CountByStatus(ctx context.Context, eventID uint, status model.AttendeeStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.EventAttendee{}).
		Where("event_id = ? AND status = ?", eventID, status).
		Count(&n).Error
	return n, err
}

func (r *eventRepository) CountUpcoming(ctx context.Context, now time.Time, publishedOnly bool) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Event{}).Where("start_date >= ?", now)
	if publishedOnly {
		q = q.Where("is_published = ?", true)
	}
	var n int64
	return n, q.Count(&n).Error
}

func (r *eventRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	return n, r.db.WithContext(ctx).Model(&model.Event{}).Count(&n).Error
}

// WithTransaction executes fn against a repository bound to a single transaction.
func (r *eventRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo EventRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &eventRepository{db: tx})
	})
}
