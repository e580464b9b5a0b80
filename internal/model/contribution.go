package model

import (
	"time"

	"churchadmin/internal/ledger"
)

// Contribution is a payment tied to a registered member.
type Contribution struct {
	ID               uint          `json:"id" gorm:"primaryKey"`
	UserID           uint          `json:"user_id" gorm:"not null;index"`
	RecordedBy       uint          `json:"recorded_by" gorm:"not null;index"`
	MinistryID       *uint         `json:"ministry_id,omitempty" gorm:"index"`
	Type             string        `json:"type" gorm:"type:varchar(20);not null;index"`
	Amount           Money         `json:"amount" gorm:"type:decimal(12,2);not null"`
	Currency         string        `json:"currency" gorm:"size:3;not null;default:USD"`
	PaymentMethod    string        `json:"payment_method" gorm:"type:varchar(20);not null;index"`
	ReferenceNumber  string        `json:"reference_number,omitempty" gorm:"size:100"`
	Description      string        `json:"description,omitempty" gorm:"type:text"`
	Notes            string        `json:"notes,omitempty" gorm:"type:text"`
	ContributionDate time.Time     `json:"contribution_date" gorm:"type:date;not null;index"`
	Status           ledger.Status `json:"status" gorm:"type:varchar(20);not null;default:pending;index"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`

	User     *User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recorder *User `json:"recorded_by_user,omitempty" gorm:"foreignKey:RecordedBy"`

	// resolved by the service; ministry_id carries no foreign key
	MinistryName string `json:"ministry_name,omitempty" gorm:"-"`
}

// Entry converts the record into the aggregator's view.
func (c *Contribution) Entry() ledger.Entry {
	userID := c.UserID
	return ledger.Entry{
		Kind:          ledger.KindContribution,
		Type:          c.Type,
		PaymentMethod: c.PaymentMethod,
		Status:        c.Status,
		Amount:        c.Amount.Decimal,
		Date:          c.ContributionDate,
		UserID:        &userID,
		MinistryID:    c.MinistryID,
	}
}
