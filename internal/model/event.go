package model

import "time"

// EventType classifies events.
type EventType string

const (
	EventTypeService     EventType = "service"
	EventTypeMeeting     EventType = "meeting"
	EventTypeCelebration EventType = "celebration"
	EventTypeOutreach    EventType = "outreach"
	EventTypeMinistry    EventType = "ministry"
	EventTypeOther       EventType = "other"
)

// AttendeeStatus is the state of one registration.
type AttendeeStatus string

const (
	AttendeeRegistered AttendeeStatus = "registered"
	AttendeeAttended   AttendeeStatus = "attended"
	AttendeeCancelled  AttendeeStatus = "cancelled"
)

// Event is a scheduled church activity.
type Event struct {
	ID                   uint       `json:"id" gorm:"primaryKey"`
	Title                string     `json:"title" gorm:"size:255;not null"`
	Description          string     `json:"description,omitempty" gorm:"type:text"`
	StartDate            time.Time  `json:"start_date" gorm:"not null;index"`
	EndDate              *time.Time `json:"end_date,omitempty"`
	Location             string     `json:"location,omitempty" gorm:"size:255"`
	Type                 EventType  `json:"type" gorm:"type:varchar(20);not null;default:other;index"`
	IsPublished          bool       `json:"is_published" gorm:"default:false;index"`
	MaxAttendees         *int       `json:"max_attendees,omitempty"`
	RequiresRegistration bool       `json:"requires_registration" gorm:"default:false"`
	OrganizerID          uint       `json:"organizer_id" gorm:"not null;index"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	Organizer *User           `json:"organizer,omitempty" gorm:"foreignKey:OrganizerID;constraint:OnDelete:CASCADE"`
	Attendees []EventAttendee `json:"attendees,omitempty" gorm:"foreignKey:EventID"`

	RegisteredCount int64 `json:"registered_count" gorm:"-"`
	AttendedCount   int64 `json:"attended_count" gorm:"-"`
}

// EventAttendee is a registration of a user for an event.
type EventAttendee struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	EventID   uint           `json:"event_id" gorm:"not null;uniqueIndex:idx_event_attendee"`
	UserID    uint           `json:"user_id" gorm:"not null;uniqueIndex:idx_event_attendee;index"`
	Status    AttendeeStatus `json:"status" gorm:"type:varchar(20);not null;default:registered"`
	Notes     string         `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	User  *User  `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Event *Event `json:"-" gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
}
