package model

import (
	"time"

	"gorm.io/gorm"
)

// Ministry is a named group within the church. Deletes are soft so ledger
// rows keep their ministry reference.
type Ministry struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Name         string         `json:"name" gorm:"uniqueIndex;size:150;not null"`
	Description  string         `json:"description,omitempty" gorm:"type:text"`
	LeaderID     *uint          `json:"leader_id,omitempty" gorm:"index"`
	ContactEmail string         `json:"contact_email,omitempty" gorm:"size:255"`
	ContactPhone string         `json:"contact_phone,omitempty" gorm:"size:30"`
	IsActive     bool           `json:"is_active" gorm:"default:true;index"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	Leader  *User            `json:"leader,omitempty" gorm:"foreignKey:LeaderID;constraint:OnDelete:SET NULL"`
	Members []MinistryMember `json:"members,omitempty" gorm:"foreignKey:MinistryID"`

	MemberCount int64 `json:"member_count,omitempty" gorm:"-"`
}

// MinistryMember is the membership pivot between users and ministries.
type MinistryMember struct {
	MinistryID uint      `json:"ministry_id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"primaryKey;index"`
	Role       string    `json:"role" gorm:"size:50;default:member"`
	JoinedDate time.Time `json:"joined_date" gorm:"type:date"`
	IsActive   bool      `json:"is_active" gorm:"default:true"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	User     *User     `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Ministry *Ministry `json:"ministry,omitempty" gorm:"foreignKey:MinistryID;constraint:OnDelete:CASCADE"`
}

// TableName pins the pivot table name.
func (MinistryMember) TableName() string { return "ministry_members" }
