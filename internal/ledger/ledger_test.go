package ledger

import (
	"encoding/json"
	"errors"
	"math/rand"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "churchadmin/internal/errors"
)

func date(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func uintPtr(v uint) *uint { return &v }

func TestSummarize_ConfirmedOnly(t *testing.T) {
	entries := []Entry{
		{Kind: KindContribution, Type: "tithe", PaymentMethod: "cash", Status: StatusConfirmed, Amount: dec("100.00"), Date: date("2024-03-05")},
		{Kind: KindContribution, Type: "offering", PaymentMethod: "card", Status: StatusConfirmed, Amount: dec("50.00"), Date: date("2024-03-10")},
		{Kind: KindContribution, Type: "tithe", PaymentMethod: "cash", Status: StatusPending, Amount: dec("75.00"), Date: date("2024-03-12")},
	}
	r, err := NewDateRange(date("2024-03-01"), date("2024-03-31"))
	require.NoError(t, err)

	s := Summarize(entries, r)

	assert.Equal(t, "150.00", s.Total.StringFixed(2))
	assert.Len(t, s.ByType, 2)
	assert.Equal(t, "100.00", s.ByType["tithe"].StringFixed(2))
	assert.Equal(t, "50.00", s.ByType["offering"].StringFixed(2))
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, "100.00", s.ByPaymentMethod["cash"].StringFixed(2))

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"start_date": "2024-03-01",
		"end_date": "2024-03-31",
		"total": "150.00",
		"by_type": {"tithe": "100.00", "offering": "50.00"},
		"by_payment_method": {"cash": "100.00", "card": "50.00"},
		"count": 2
	}`, string(raw))
}

func TestSummarize_RangeIsInclusiveOnDates(t *testing.T) {
	entries := []Entry{
		{Type: "tithe", Status: StatusConfirmed, Amount: dec("1.00"), Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)},
		{Type: "tithe", Status: StatusConfirmed, Amount: dec("2.00"), Date: time.Date(2024, 3, 31, 23, 59, 0, 0, time.Local)},
		{Type: "tithe", Status: StatusConfirmed, Amount: dec("4.00"), Date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.Local)},
		{Type: "tithe", Status: StatusConfirmed, Amount: dec("8.00"), Date: time.Date(2024, 2, 29, 12, 0, 0, 0, time.Local)},
	}
	s := Summarize(entries, MonthOf(time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local)))
	assert.Equal(t, "3.00", s.Total.StringFixed(2))
	assert.Equal(t, 2, s.Count)
}

// grand_total must equal the sum of by_type subtotals to the cent, for each
// ledger and for the combined view.
func TestSummarize_TotalsReconcile(t *testing.T) {
	rng := rand.New(rand.NewSource(20240305))
	statuses := []Status{StatusPending, StatusConfirmed, StatusCancelled}
	r := MonthOf(time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local))

	gen := func(kind Kind, n int) []Entry {
		types := Types(kind)
		out := make([]Entry, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, Entry{
				Kind:          kind,
				Type:          types[rng.Intn(len(types))],
				PaymentMethod: paymentMethods[rng.Intn(len(paymentMethods))],
				Status:        statuses[rng.Intn(len(statuses))],
				Amount:        decimal.New(rng.Int63n(1_000_000)+1, -2),
				Date:          time.Date(2024, time.Month(2+rng.Intn(3)), 1+rng.Intn(28), 0, 0, 0, 0, time.Local),
			})
		}
		return out
	}

	sum := func(m map[string]decimal.Decimal) decimal.Decimal {
		total := decimal.Zero
		for _, v := range m {
			total = total.Add(v)
		}
		return total
	}

	for i := 0; i < 200; i++ {
		c := Summarize(gen(KindContribution, rng.Intn(60)), r)
		d := Summarize(gen(KindDonation, rng.Intn(60)), r)
		combined := Combine(c, d, r)

		assert.True(t, c.Total.Equal(sum(c.ByType)), "contributions: %s != %s", c.Total, sum(c.ByType))
		assert.True(t, c.Total.Equal(sum(c.ByPaymentMethod)))
		assert.True(t, d.Total.Equal(sum(d.ByType)), "donations: %s != %s", d.Total, sum(d.ByType))
		assert.True(t, combined.GrandTotal.Equal(sum(combined.ByType())), "combined: %s != %s", combined.GrandTotal, sum(combined.ByType()))
		assert.Equal(t, c.Count+d.Count, combined.Count())
	}
}

func TestGroupByMinistry_DeletedMinistryIsUnknown(t *testing.T) {
	entries := []Entry{
		{Type: "tithe", Status: StatusConfirmed, Amount: dec("20.00"), MinistryID: uintPtr(1)},
		{Type: "tithe", Status: StatusConfirmed, Amount: dec("30.00"), MinistryID: uintPtr(2)},
		{Type: "offering", Status: StatusConfirmed, Amount: dec("5.50"), MinistryID: uintPtr(2)},
		{Type: "offering", Status: StatusConfirmed, Amount: dec("99.00")},
	}
	// ministry 2 was deleted, only 1 still resolves
	groups := GroupByMinistry(entries, map[uint]string{1: "Youth"})

	require.Len(t, groups, 2)
	assert.Equal(t, "2", groups[0].Key)
	assert.Equal(t, UnknownMinistry, groups[0].Label)
	assert.Equal(t, "35.50", groups[0].Total.StringFixed(2))
	assert.Equal(t, 2, groups[0].Count)
	assert.Equal(t, "Youth", groups[1].Label)

	raw, err := json.Marshal(groups[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"1","label":"Youth","total":"20.00","count":1}`, string(raw))
}

func TestGroupByType_DeterministicOrder(t *testing.T) {
	entries := []Entry{
		{Type: "offering", Amount: dec("10.00")},
		{Type: "tithe", Amount: dec("10.00")},
		{Type: "mission", Amount: dec("40.00")},
		{Type: "offering", Amount: dec("0.01")},
	}
	groups := GroupByType(entries)
	require.Len(t, groups, 3)
	assert.Equal(t, []string{"mission", "offering", "tithe"}, []string{groups[0].Key, groups[1].Key, groups[2].Key})
	assert.Equal(t, "10.01", groups[1].Total.StringFixed(2))

	total, count := Totals(entries)
	assert.Equal(t, "60.01", total.StringFixed(2))
	assert.Equal(t, 4, count)
}

func TestHistory(t *testing.T) {
	r := YearOf(time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local))
	contrib := []Entry{
		{Type: "tithe", Status: StatusConfirmed, Amount: dec("10.10"), Date: date("2024-01-02")},
		{Type: "tithe", Status: StatusCancelled, Amount: dec("99.00"), Date: date("2024-01-03")},
		{Type: "tithe", Status: StatusConfirmed, Amount: dec("1.00"), Date: date("2023-12-31")},
	}
	don := []Entry{
		{Type: "general", Status: StatusConfirmed, Amount: dec("0.20"), Date: date("2024-12-31")},
	}
	h := History(contrib, don, r)
	assert.Equal(t, "10.10", h.TotalContributions.StringFixed(2))
	assert.Equal(t, "0.20", h.TotalDonations.StringFixed(2))
	assert.Equal(t, "10.30", h.GrandTotal.StringFixed(2))
	assert.Equal(t, 1, h.ContributionCount)
	assert.Equal(t, 1, h.DonationCount)
}

func TestNewDateRange_RejectsInverted(t *testing.T) {
	_, err := NewDateRange(date("2024-03-31"), date("2024-03-01"))
	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "end_date")

	r, err := NewDateRange(date("2024-03-01"), date("2024-03-01"))
	require.NoError(t, err)
	assert.True(t, r.Contains(time.Date(2024, 3, 1, 18, 0, 0, 0, time.Local)))
}

func TestFilter_Validate(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		filter  Filter
		wantErr string
	}{
		{"empty filter", KindContribution, Filter{}, ""},
		{"known contribution type", KindContribution, Filter{Type: "tithe"}, ""},
		{"donation type on contributions", KindContribution, Filter{Type: "memorial"}, "type"},
		{"known donation type", KindDonation, Filter{Type: "memorial"}, ""},
		{"unknown status", KindDonation, Filter{Status: "refunded"}, "status"},
		{"unknown payment method", KindContribution, Filter{PaymentMethod: "bitcoin"}, "payment_method"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate(tt.kind)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var verr *apperrors.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, tt.wantErr)
		})
	}
}

func TestParseFilter(t *testing.T) {
	q := url.Values{}
	q.Set("type", "tithe")
	q.Set("user_id", "12")
	q.Set("date_from", "2024-01-01")
	q.Set("end_date", "2024-01-31")
	q.Set("anonymous", "true")

	f, err := ParseFilter(q)
	require.NoError(t, err)
	assert.Equal(t, "tithe", f.Type)
	require.NotNil(t, f.UserID)
	assert.Equal(t, uint(12), *f.UserID)
	require.NotNil(t, f.Anonymous)
	assert.True(t, *f.Anonymous)
	r, ok := f.Range()
	require.True(t, ok)
	from, to := r.Bounds()
	assert.Equal(t, "2024-01-01", from)
	assert.Equal(t, "2024-01-31", to)

	bad := url.Values{}
	bad.Set("user_id", "abc")
	bad.Set("start_date", "03/01/2024")
	_, err = ParseFilter(bad)
	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "user_id")
	assert.Contains(t, verr.Fields, "start_date")

	inverted := url.Values{}
	inverted.Set("start_date", "2024-02-01")
	inverted.Set("end_date", "2024-01-01")
	f, err = ParseFilter(inverted)
	require.NoError(t, err)
	assert.Error(t, f.Validate(KindContribution))

	_, err = ParseRange(url.Values{})
	assert.Error(t, err)
}

func TestValidateAmount(t *testing.T) {
	assert.NotEmpty(t, ValidateAmount(dec("0.00")))
	assert.NotEmpty(t, ValidateAmount(dec("-5.00")))
	assert.Empty(t, ValidateAmount(dec("0.01")))
	assert.NotEmpty(t, ValidateAmount(dec("1.005")))
	assert.NotEmpty(t, ValidateAmount(dec("10000000000.00")))
}

func TestStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusConfirmed))
	assert.True(t, StatusPending.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusConfirmed))
	assert.False(t, StatusConfirmed.CanTransitionTo(StatusPending))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusConfirmed))
}

func TestDateRange_Resolve(t *testing.T) {
	month := MonthOf(time.Date(2024, 3, 20, 0, 0, 0, 0, time.Local))
	tests := []struct {
		name     string
		given    DateRange
		wantFrom string
		wantTo   string
		wantErr  bool
	}{
		{name: "unset takes the default", given: DateRange{}, wantFrom: "2024-03-01", wantTo: "2024-03-31"},
		{name: "start only", given: DateRange{From: date("2024-01-01")}, wantFrom: "2024-01-01", wantTo: "2024-03-31"},
		{name: "end only", given: DateRange{To: date("2024-03-10")}, wantFrom: "2024-03-01", wantTo: "2024-03-10"},
		{name: "both kept", given: DateRange{From: date("2023-01-01"), To: date("2023-12-31")}, wantFrom: "2023-01-01", wantTo: "2023-12-31"},
		{name: "inverted", given: DateRange{From: date("2024-03-31"), To: date("2024-03-01")}, wantErr: true},
		{name: "start after default end", given: DateRange{From: date("2024-05-01")}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.given.Resolve(month)
			if tt.wantErr {
				var verr *apperrors.ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Contains(t, verr.Fields, "end_date")
				return
			}
			require.NoError(t, err)
			from, to := r.Bounds()
			assert.Equal(t, tt.wantFrom, from)
			assert.Equal(t, tt.wantTo, to)
		})
	}
}

func TestFilter_Window(t *testing.T) {
	q := url.Values{}
	q.Set("date_from", "2024-02-01")
	f, err := ParseFilter(q)
	require.NoError(t, err)

	_, ok := f.Range()
	assert.False(t, ok)
	w := f.Window()
	assert.Equal(t, "2024-02-01", w.From.Format(DateLayout))
	assert.True(t, w.To.IsZero())
}
