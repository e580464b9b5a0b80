package model

import (
	"strings"
	"time"
)

// User is a church member or staff account.
type User struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	FirstName      string     `json:"first_name" gorm:"size:100;not null"`
	LastName       string     `json:"last_name" gorm:"size:100;not null"`
	Email          string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash   string     `json:"-" gorm:"size:255;not null"`
	Phone          string     `json:"phone,omitempty" gorm:"size:30"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty" gorm:"type:date"`
	Gender         string     `json:"gender,omitempty" gorm:"size:10"`
	Address        string     `json:"address,omitempty" gorm:"size:255"`
	City           string     `json:"city,omitempty" gorm:"size:100"`
	State          string     `json:"state,omitempty" gorm:"size:100"`
	ZipCode        string     `json:"zip_code,omitempty" gorm:"size:20"`
	Country        string     `json:"country,omitempty" gorm:"size:100"`
	MembershipDate *time.Time `json:"membership_date,omitempty" gorm:"type:date"`
	IsActive       bool       `json:"is_active" gorm:"default:true;index"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Roles      []Role           `json:"roles,omitempty" gorm:"many2many:user_roles;constraint:OnDelete:CASCADE"`
	Ministries []MinistryMember `json:"ministries,omitempty" gorm:"foreignKey:UserID"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// RoleNames lists the names of the loaded roles.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}
