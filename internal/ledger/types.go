// Package ledger aggregates contribution and donation records into the
// figures shown on the finance dashboards.
//
// Only confirmed records count toward totals. All arithmetic is done on
// decimal.Decimal and amounts are rendered with exactly two fraction digits.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind distinguishes the two ledgers.
type Kind string

const (
	KindContribution Kind = "contribution"
	KindDonation     Kind = "donation"
)

// Status is the lifecycle state of a ledger record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a record may move from s to next.
// Staying in the same status is allowed and is a no-op for callers.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCancelled
	}
	return false
}

var contributionTypes = []string{"tithe", "offering", "donation", "special", "building_fund", "mission", "other"}

var donationTypes = []string{"general", "building_fund", "mission", "special_project", "memorial", "other"}

var paymentMethods = []string{"cash", "check", "card", "bank_transfer", "online", "mobile_money", "other"}

// Types returns the record types accepted for kind.
func Types(kind Kind) []string {
	if kind == KindDonation {
		return donationTypes
	}
	return contributionTypes
}

// PaymentMethods returns the accepted payment methods.
func PaymentMethods() []string { return paymentMethods }

// IsValidType reports whether t is a known type for kind.
func IsValidType(kind Kind, t string) bool { return contains(Types(kind), t) }

// IsValidPaymentMethod reports whether m is a known payment method.
func IsValidPaymentMethod(m string) bool { return contains(paymentMethods, m) }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Entry is the aggregator's view of a single contribution or donation.
type Entry struct {
	Kind          Kind
	Type          string
	PaymentMethod string
	Status        Status
	Amount        decimal.Decimal
	Date          time.Time
	UserID        *uint
	MinistryID    *uint
}

// Counts reports whether the entry contributes to official totals.
func (e Entry) Counts() bool { return e.Status == StatusConfirmed }

// ValidateAmount checks that amount is positive with at most two fraction digits.
func ValidateAmount(amount decimal.Decimal) string {
	if amount.LessThan(MinAmount) {
		return "amount must be at least 0.01"
	}
	if !amount.Equal(amount.Round(2)) {
		return "amount may have at most 2 decimal places"
	}
	if amount.GreaterThan(MaxAmount) {
		return "amount is too large"
	}
	return ""
}

var (
	// MinAmount is the smallest amount a record may carry.
	MinAmount = decimal.New(1, -2)
	// MaxAmount fits decimal(12,2).
	MaxAmount = decimal.RequireFromString("9999999999.99")
)

// money renders d with exactly two fraction digits.
func money(d decimal.Decimal) string { return d.StringFixed(2) }
