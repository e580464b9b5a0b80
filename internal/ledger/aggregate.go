package ledger

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// UnknownMinistry labels groups whose ministry no longer resolves.
const UnknownMinistry = "Unknown"

// Summary aggregates confirmed entries of one ledger over a date range.
type Summary struct {
	Range           DateRange
	Total           decimal.Decimal
	ByType          map[string]decimal.Decimal
	ByPaymentMethod map[string]decimal.Decimal
	Count           int
}

// Summarize totals the confirmed entries that fall inside r.
func Summarize(entries []Entry, r DateRange) Summary {
	s := Summary{
		Range:           r,
		Total:           decimal.Zero,
		ByType:          make(map[string]decimal.Decimal),
		ByPaymentMethod: make(map[string]decimal.Decimal),
	}
	for _, e := range entries {
		if !e.Counts() || !r.Contains(e.Date) {
			continue
		}
		s.Total = s.Total.Add(e.Amount)
		s.ByType[e.Type] = s.ByType[e.Type].Add(e.Amount)
		s.ByPaymentMethod[e.PaymentMethod] = s.ByPaymentMethod[e.PaymentMethod].Add(e.Amount)
		s.Count++
	}
	return s
}

// MarshalJSON renders every amount with two fraction digits.
func (s Summary) MarshalJSON() ([]byte, error) {
	out := struct {
		StartDate       string            `json:"start_date,omitempty"`
		EndDate         string            `json:"end_date,omitempty"`
		Total           string            `json:"total"`
		ByType          map[string]string `json:"by_type"`
		ByPaymentMethod map[string]string `json:"by_payment_method"`
		Count           int               `json:"count"`
	}{
		Total:           money(s.Total),
		ByType:          moneyMap(s.ByType),
		ByPaymentMethod: moneyMap(s.ByPaymentMethod),
		Count:           s.Count,
	}
	if !s.Range.IsZero() {
		out.StartDate, out.EndDate = s.Range.Bounds()
	}
	return json.Marshal(out)
}

// CombinedSummary joins the contribution and donation summaries.
type CombinedSummary struct {
	Range         DateRange
	Contributions Summary
	Donations     Summary
	GrandTotal    decimal.Decimal
}

// Combine adds the two ledger summaries into a grand total.
func Combine(contributions, donations Summary, r DateRange) CombinedSummary {
	return CombinedSummary{
		Range:         r,
		Contributions: contributions,
		Donations:     donations,
		GrandTotal:    contributions.Total.Add(donations.Total),
	}
}

// ByType merges both ledgers' per-type subtotals. Types present in both
// ledgers are added together.
func (c CombinedSummary) ByType() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(c.Contributions.ByType)+len(c.Donations.ByType))
	for k, v := range c.Contributions.ByType {
		out[k] = out[k].Add(v)
	}
	for k, v := range c.Donations.ByType {
		out[k] = out[k].Add(v)
	}
	return out
}

// Count is the number of confirmed records across both ledgers.
func (c CombinedSummary) Count() int { return c.Contributions.Count + c.Donations.Count }

func (c CombinedSummary) MarshalJSON() ([]byte, error) {
	out := struct {
		StartDate     string            `json:"start_date,omitempty"`
		EndDate       string            `json:"end_date,omitempty"`
		Contributions Summary           `json:"contributions"`
		Donations     Summary           `json:"donations"`
		ByType        map[string]string `json:"by_type"`
		GrandTotal    string            `json:"grand_total"`
		Count         int               `json:"count"`
	}{
		Contributions: c.Contributions,
		Donations:     c.Donations,
		ByType:        moneyMap(c.ByType()),
		GrandTotal:    money(c.GrandTotal),
		Count:         c.Count(),
	}
	if !c.Range.IsZero() {
		out.StartDate, out.EndDate = c.Range.Bounds()
	}
	return json.Marshal(out)
}

// Group is one row of a grouped report.
type Group struct {
	Key   string
	Label string
	Total decimal.Decimal
	Count int
}

func (g Group) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key   string `json:"key"`
		Label string `json:"label"`
		Total string `json:"total"`
		Count int    `json:"count"`
	}{g.Key, g.Label, money(g.Total), g.Count})
}

// GroupByType groups entries by record type. Callers pass the entries they
// want counted; no status filtering is applied here.
func GroupByType(entries []Entry) []Group {
	acc := make(map[string]*Group)
	for _, e := range entries {
		g, ok := acc[e.Type]
		if !ok {
			g = &Group{Key: e.Type, Label: e.Type, Total: decimal.Zero}
			acc[e.Type] = g
		}
		g.Total = g.Total.Add(e.Amount)
		g.Count++
	}
	return sortGroups(acc)
}

// GroupByMinistry groups entries that reference a ministry. names resolves
// ministry ids to display names; ids missing from names are labelled
// UnknownMinistry. Entries without a ministry are skipped.
func GroupByMinistry(entries []Entry, names map[uint]string) []Group {
	acc := make(map[string]*Group)
	for _, e := range entries {
		if e.MinistryID == nil {
			continue
		}
		key := strconv.FormatUint(uint64(*e.MinistryID), 10)
		g, ok := acc[key]
		if !ok {
			label, found := names[*e.MinistryID]
			if !found || label == "" {
				label = UnknownMinistry
			}
			g = &Group{Key: key, Label: label, Total: decimal.Zero}
			acc[key] = g
		}
		g.Total = g.Total.Add(e.Amount)
		g.Count++
	}
	return sortGroups(acc)
}

// sortGroups orders by total descending, then key ascending.
func sortGroups(acc map[string]*Group) []Group {
	out := make([]Group, 0, len(acc))
	for _, g := range acc {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Totals sums every entry given, regardless of status.
func Totals(entries []Entry) (decimal.Decimal, int) {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total, len(entries)
}

// UserHistory is one member's confirmed giving over a window.
type UserHistory struct {
	Range              DateRange
	TotalContributions decimal.Decimal
	TotalDonations     decimal.Decimal
	GrandTotal         decimal.Decimal
	ContributionCount  int
	DonationCount      int
}

// History totals a user's confirmed contributions and donations inside r.
func History(contributions, donations []Entry, r DateRange) UserHistory {
	c := Summarize(contributions, r)
	d := Summarize(donations, r)
	return UserHistory{
		Range:              r,
		TotalContributions: c.Total,
		TotalDonations:     d.Total,
		GrandTotal:         c.Total.Add(d.Total),
		ContributionCount:  c.Count,
		DonationCount:      d.Count,
	}
}

func (h UserHistory) MarshalJSON() ([]byte, error) {
	out := struct {
		StartDate          string `json:"start_date,omitempty"`
		EndDate            string `json:"end_date,omitempty"`
		TotalContributions string `json:"total_contributions"`
		TotalDonations     string `json:"total_donations"`
		GrandTotal         string `json:"grand_total"`
		ContributionCount  int    `json:"contribution_count"`
		DonationCount      int    `json:"donation_count"`
	}{
		TotalContributions: money(h.TotalContributions),
		TotalDonations:     money(h.TotalDonations),
		GrandTotal:         money(h.GrandTotal),
		ContributionCount:  h.ContributionCount,
		DonationCount:      h.DonationCount,
	}
	if !h.Range.IsZero() {
		out.StartDate, out.EndDate = h.Range.Bounds()
	}
	return json.Marshal(out)
}

func moneyMap(m map[string]decimal.Decimal) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = money(v)
	}
	return out
}
