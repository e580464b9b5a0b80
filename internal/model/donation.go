package model

import (
	"time"

	"churchadmin/internal/ledger"
)

// Donation is a payment whose donor may not be a registered member.
type Donation struct {
	ID              uint          `json:"id" gorm:"primaryKey"`
	UserID          *uint         `json:"user_id,omitempty" gorm:"index"`
	DonorName       string        `json:"donor_name,omitempty" gorm:"size:255"`
	DonorEmail      string        `json:"donor_email,omitempty" gorm:"size:255"`
	DonorPhone      string        `json:"donor_phone,omitempty" gorm:"size:30"`
	Type            string        `json:"type" gorm:"type:varchar(20);not null;index"`
	Amount          Money         `json:"amount" gorm:"type:decimal(12,2);not null"`
	Currency        string        `json:"currency" gorm:"size:3;not null;default:USD"`
	PaymentMethod   string        `json:"payment_method" gorm:"type:varchar(20);not null;index"`
	ReferenceNumber string        `json:"reference_number,omitempty" gorm:"size:100"`
	Description     string        `json:"description,omitempty" gorm:"type:text"`
	Notes           string        `json:"notes,omitempty" gorm:"type:text"`
	DonationDate    time.Time     `json:"donation_date" gorm:"type:date;not null;index"`
	Status          ledger.Status `json:"status" gorm:"type:varchar(20);not null;default:pending;index"`
	IsAnonymous     bool          `json:"is_anonymous" gorm:"default:false"`
	RecordedBy      uint          `json:"recorded_by" gorm:"not null;index"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	User     *User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
	Recorder *User `json:"recorded_by_user,omitempty" gorm:"foreignKey:RecordedBy"`
}

// Entry converts the record into the aggregator's view.
func (d *Donation) Entry() ledger.Entry {
	return ledger.Entry{
		Kind:          ledger.KindDonation,
		Type:          d.Type,
		PaymentMethod: d.PaymentMethod,
		Status:        d.Status,
		Amount:        d.Amount.Decimal,
		Date:          d.DonationDate,
		UserID:        d.UserID,
	}
}

// Redact hides donor details of anonymous donations.
func (d *Donation) Redact() {
	if !d.IsAnonymous {
		return
	}
	d.DonorName = "Anonymous"
	d.DonorEmail = ""
	d.DonorPhone = ""
	d.UserID = nil
	d.User = nil
}
