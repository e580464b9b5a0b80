package ledger

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "churchadmin/internal/errors"
)

// Filter restricts a ledger listing. Unset fields do not restrict.
type Filter struct {
	Type          string
	Status        string
	PaymentMethod string
	UserID        *uint
	MinistryID    *uint
	Search        string
	Anonymous     *bool
	From          *time.Time
	To            *time.Time
}

// Range returns the filter's date bounds as a DateRange when both ends are set.
func (f Filter) Range() (DateRange, bool) {
	if f.From == nil || f.To == nil {
		return DateRange{}, false
	}
	return DateRange{From: *f.From, To: *f.To}, true
}

// Window returns whichever date bounds are set. Missing ends stay zero for
// DateRange.Resolve to fill.
func (f Filter) Window() DateRange {
	var r DateRange
	if f.From != nil {
		r.From = *f.From
	}
	if f.To != nil {
		r.To = *f.To
	}
	return r
}

// WithRange returns a copy of f bounded by r.
func (f Filter) WithRange(r DateRange) Filter {
	from, to := r.From, r.To
	f.From, f.To = &from, &to
	return f
}

// Validate rejects unknown enum values for kind and inverted date ranges.
func (f Filter) Validate(kind Kind) error {
	verr := &apperrors.ValidationError{}
	if f.Type != "" && !IsValidType(kind, f.Type) {
		verr.Add("type", "the selected type is invalid")
	}
	if f.Status != "" && !Status(f.Status).IsValid() {
		verr.Add("status", "the selected status is invalid")
	}
	if f.PaymentMethod != "" && !IsValidPaymentMethod(f.PaymentMethod) {
		verr.Add("payment_method", "the selected payment method is invalid")
	}
	if f.From != nil && f.To != nil && dateKey(*f.To) < dateKey(*f.From) {
		verr.Add("end_date", "end date must be on or after start date")
	}
	return verr.OrNil()
}

// ParseFilter reads a filter from query parameters. Both start_date/end_date
// and date_from/date_to are accepted for the date bounds.
func ParseFilter(q url.Values) (Filter, error) {
	var f Filter
	verr := &apperrors.ValidationError{}

	f.Type = strings.TrimSpace(q.Get("type"))
	f.Status = strings.TrimSpace(q.Get("status"))
	f.PaymentMethod = strings.TrimSpace(q.Get("payment_method"))
	f.Search = strings.TrimSpace(q.Get("search"))

	if v := q.Get("user_id"); v != "" {
		id, err := parseID(v)
		if err != nil {
			verr.Add("user_id", "user_id must be a positive integer")
		} else {
			f.UserID = &id
		}
	}
	if v := q.Get("ministry_id"); v != "" {
		id, err := parseID(v)
		if err != nil {
			verr.Add("ministry_id", "ministry_id must be a positive integer")
		} else {
			f.MinistryID = &id
		}
	}
	if v := q.Get("anonymous"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			verr.Add("anonymous", "anonymous must be true or false")
		} else {
			f.Anonymous = &b
		}
	}

	if v := firstOf(q, "start_date", "date_from"); v != "" {
		t, err := ParseDate(v)
		if err != nil {
			verr.Add("start_date", "start date must be a date in YYYY-MM-DD format")
		} else {
			f.From = &t
		}
	}
	if v := firstOf(q, "end_date", "date_to"); v != "" {
		t, err := ParseDate(v)
		if err != nil {
			verr.Add("end_date", "end date must be a date in YYYY-MM-DD format")
		} else {
			f.To = &t
		}
	}

	if err := verr.OrNil(); err != nil {
		return Filter{}, err
	}
	return f, nil
}

// ParseRange reads a required start_date/end_date pair.
func ParseRange(q url.Values) (DateRange, error) {
	verr := &apperrors.ValidationError{}
	from, err := ParseDate(firstOf(q, "start_date", "date_from"))
	if err != nil {
		verr.Add("start_date", "start date is required in YYYY-MM-DD format")
	}
	to, err := ParseDate(firstOf(q, "end_date", "date_to"))
	if err != nil {
		verr.Add("end_date", "end date is required in YYYY-MM-DD format")
	}
	if err := verr.OrNil(); err != nil {
		return DateRange{}, err
	}
	return NewDateRange(from, to)
}

func firstOf(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			return v
		}
	}
	return ""
}

func parseID(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, strconv.ErrSyntax
	}
	return uint(n), nil
}
