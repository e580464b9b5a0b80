package model

import "time"

type AnnouncementType string

const (
	AnnouncementGeneral   AnnouncementType = "general"
	AnnouncementEvent     AnnouncementType = "event"
	AnnouncementMinistry  AnnouncementType = "ministry"
	AnnouncementFinancial AnnouncementType = "financial"
	AnnouncementPrayer    AnnouncementType = "prayer"
)

type AnnouncementPriority string

const (
	AnnouncementLow    AnnouncementPriority = "low"
	AnnouncementMedium AnnouncementPriority = "medium"
	AnnouncementHigh   AnnouncementPriority = "high"
	AnnouncementUrgent AnnouncementPriority = "urgent"
)

// Announcement is a notice published to members.
type Announcement struct {
	ID          uint                 `json:"id" gorm:"primaryKey"`
	Title       string               `json:"title" gorm:"size:255;not null"`
	Content     string               `json:"content" gorm:"type:text;not null"`
	Type        AnnouncementType     `json:"type" gorm:"type:varchar(20);not null;default:general;index"`
	Priority    AnnouncementPriority `json:"priority" gorm:"type:varchar(20);not null;default:medium;index"`
	IsPublished bool                 `json:"is_published" gorm:"default:false;index"`
	PublishedAt *time.Time           `json:"published_at,omitempty"`
	ExpiresAt   *time.Time           `json:"expires_at,omitempty" gorm:"index"`
	AuthorID    uint                 `json:"author_id" gorm:"not null;index"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`

	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}

// IsActive reports whether the announcement is published and not expired at now.
func (a *Announcement) IsActive(now time.Time) bool {
	return a.IsPublished && (a.ExpiresAt == nil || a.ExpiresAt.After(now))
}
