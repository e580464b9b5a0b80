package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"churchadmin/internal/access"
	"churchadmin/internal/archive"
	apperrors "churchadmin/internal/errors"
	"churchadmin/internal/ledger"
	"churchadmin/internal/model"
	"churchadmin/internal/notify"
	"churchadmin/internal/repository"
)

// ContributionInput records a contribution.
type ContributionInput struct {
	UserID           uint            `json:"user_id" validate:"required"`
	MinistryID       *uint           `json:"ministry_id"`
	Type             string          `json:"type" validate:"required"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency" validate:"omitempty,len=3,alpha"`
	PaymentMethod    string          `json:"payment_method" validate:"required"`
	ReferenceNumber  string          `json:"reference_number" validate:"omitempty,max=100"`
	Description      string          `json:"description"`
	Notes            string          `json:"notes"`
	ContributionDate string          `json:"contribution_date" validate:"required"`
	Status           string          `json:"status"`
}

// ContributionUpdateInput changes a contribution. Nil fields are left untouched.
type ContributionUpdateInput struct {
	MinistryID       *uint            `json:"ministry_id"`
	Type             *string          `json:"type"`
	Amount           *decimal.Decimal `json:"amount"`
	Currency         *string          `json:"currency" validate:"omitempty,len=3,alpha"`
	PaymentMethod    *string          `json:"payment_method"`
	ReferenceNumber  *string          `json:"reference_number" validate:"omitempty,max=100"`
	Description      *string          `json:"description"`
	Notes            *string          `json:"notes"`
	ContributionDate *string          `json:"contribution_date"`
	Status           *string          `json:"status"`
}

// DonationInput records a donation.
type DonationInput struct {
	UserID          *uint           `json:"user_id"`
	DonorName       string          `json:"donor_name" validate:"omitempty,max=255"`
	DonorEmail      string          `json:"donor_email" validate:"omitempty,email,max=255"`
	DonorPhone      string          `json:"donor_phone" validate:"omitempty,max=30"`
	Type            string          `json:"type" validate:"required"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency" validate:"omitempty,len=3,alpha"`
	PaymentMethod   string          `json:"payment_method" validate:"required"`
	ReferenceNumber string          `json:"reference_number" validate:"omitempty,max=100"`
	Description     string          `json:"description"`
	Notes           string          `json:"notes"`
	DonationDate    string          `json:"donation_date" validate:"required"`
	Status          string          `json:"status"`
	IsAnonymous     bool            `json:"is_anonymous"`
}

// DonationUpdateInput changes a donation. Nil fields are left untouched.
type DonationUpdateInput struct {
	DonorName       *string          `json:"donor_name" validate:"omitempty,max=255"`
	DonorEmail      *string          `json:"donor_email" validate:"omitempty,email,max=255"`
	DonorPhone      *string          `json:"donor_phone" validate:"omitempty,max=30"`
	Type            *string          `json:"type"`
	Amount          *decimal.Decimal `json:"amount"`
	Currency        *string          `json:"currency" validate:"omitempty,len=3,alpha"`
	PaymentMethod   *string          `json:"payment_method"`
	ReferenceNumber *string          `json:"reference_number" validate:"omitempty,max=100"`
	Description     *string          `json:"description"`
	Notes           *string          `json:"notes"`
	DonationDate    *string          `json:"donation_date"`
	Status          *string          `json:"status"`
	IsAnonymous     *bool            `json:"is_anonymous"`
}

// StatusInput moves a record to a new status.
type StatusInput struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled"`
}

// GroupReport is a grouped ledger report over a window.
type GroupReport struct {
	Range  ledger.DateRange
	Groups []ledger.Group
	Total  decimal.Decimal
	Count  int
}

func (g GroupReport) MarshalJSON() ([]byte, error) {
	out := struct {
		StartDate string         `json:"start_date,omitempty"`
		EndDate   string         `json:"end_date,omitempty"`
		Groups    []ledger.Group `json:"groups"`
		Total     string         `json:"total"`
		Count     int            `json:"count"`
	}{Groups: g.Groups, Total: g.Total.StringFixed(2), Count: g.Count}
	if out.Groups == nil {
		out.Groups = []ledger.Group{}
	}
	if !g.Range.IsZero() {
		out.StartDate, out.EndDate = g.Range.Bounds()
	}
	return json.Marshal(out)
}

// RangeReport lists the records of a window with their total.
type RangeReport struct {
	Range         ledger.DateRange
	Contributions []model.Contribution
	Total         decimal.Decimal
	Count         int
}

func (r RangeReport) MarshalJSON() ([]byte, error) {
	from, to := r.Range.Bounds()
	items := r.Contributions
	if items == nil {
		items = []model.Contribution{}
	}
	return json.Marshal(struct {
		StartDate     string               `json:"start_date"`
		EndDate       string               `json:"end_date"`
		Contributions []model.Contribution `json:"contributions"`
		Total         string               `json:"total"`
		Count         int                  `json:"count"`
	}{from, to, items, r.Total.StringFixed(2), r.Count})
}

// ArchiveResult names the stored report.
type ArchiveResult struct {
	Location string                 `json:"location"`
	Summary  ledger.CombinedSummary `json:"summary"`
}

// FinanceService records contributions and donations and reports over them.
type FinanceService interface {
	ListContributions(ctx context.Context, filter ledger.Filter, page repository.Pagination) ([]model.Contribution, int64, error)
	GetContribution(ctx context.Context, id uint) (*model.Contribution, error)
	CreateContribution(ctx context.Context, actor *access.Identity, in ContributionInput) (*model.Contribution, error)
	UpdateContribution(ctx context.Context, actor *access.Identity, id uint, in ContributionUpdateInput) (*model.Contribution, error)
	DeleteContribution(ctx context.Context, id uint) error
	SetContributionStatus(ctx context.Context, actor *access.Identity, id uint, status string) (*model.Contribution, error)

	ListDonations(ctx context.Context, actor *access.Identity, filter ledger.Filter, page repository.Pagination) ([]model.Donation, int64, error)
	GetDonation(ctx context.Context, actor *access.Identity, id uint) (*model.Donation, error)
	CreateDonation(ctx context.Context, actor *access.Identity, in DonationInput) (*model.Donation, error)
	UpdateDonation(ctx context.Context, actor *access.Identity, id uint, in DonationUpdateInput) (*model.Donation, error)
	DeleteDonation(ctx context.Context, id uint) error
	SetDonationStatus(ctx context.Context, actor *access.Identity, id uint, status string) (*model.Donation, error)

	Summary(ctx context.Context, r ledger.DateRange) (ledger.CombinedSummary, error)
	ReportByType(ctx context.Context, filter ledger.Filter) (*GroupReport, error)
	ReportByMinistry(ctx context.Context, filter ledger.Filter) (*GroupReport, error)
	ReportByDateRange(ctx context.Context, filter ledger.Filter) (*RangeReport, error)
	History(ctx context.Context, actor *access.Identity, userID uint, r *ledger.DateRange) (ledger.UserHistory, error)
	UserContributions(ctx context.Context, actor *access.Identity, userID uint, filter ledger.Filter, page repository.Pagination) ([]model.Contribution, int64, error)
	UserDonations(ctx context.Context, actor *access.Identity, userID uint, filter ledger.Filter, page repository.Pagination) ([]model.Donation, int64, error)
	MinistryContributions(ctx context.Context, ministryID uint, filter ledger.Filter, page repository.Pagination) ([]model.Contribution, int64, error)
	Archive(ctx context.Context, actor *access.Identity, r ledger.DateRange) (*ArchiveResult, error)
}

// FinanceOptions tunes the finance service.
type FinanceOptions struct {
	// AllowConfirmedEdits permits changing amount, type or date of a
	// confirmed record.
	AllowConfirmedEdits bool
}

type financeService struct {
	contributions repository.ContributionRepository
	donations     repository.DonationRepository
	users         repository.UserRepository
	ministries    repository.MinistryRepository
	publisher     notify.Publisher
	archiver      archive.Uploader
	opts          FinanceOptions
	now           Clock
}

// NewFinanceService creates a new finance service.
func NewFinanceService(
	contributions repository.ContributionRepository,
	donations repository.DonationRepository,
	users repository.UserRepository,
	ministries repository.MinistryRepository,
	publisher notify.Publisher,
	archiver archive.Uploader,
	opts FinanceOptions,
	now Clock,
) FinanceService {
	return &financeService{
		contributions: contributions,
		donations:     donations,
		users:         users,
		ministries:    ministries,
		publisher:     publisher,
		archiver:      archiver,
		opts:          opts,
		now:           now,
	}
}

// ErrConfirmedLocked is returned when a confirmed record's amount, type or
// date would change.
var ErrConfirmedLocked = apperrors.Conflict("confirmed records cannot change amount, type or date")

var financeStaff = access.AnyRole(access.RoleFinanceCommittee, access.RoleAdministrator)

// contributions

func (s *financeService) ListContributions(ctx context.Context, filter ledger.Filter, page repository.Pagination) ([]model.Contribution, int64, error) {
	if err := filter.Validate(ledger.KindContribution); err != nil {
		return nil, 0, err
	}
	items, total, err := s.contributions.List(ctx, filter, page)
	if err != nil {
		return nil, 0, err
	}
	if err := s.resolveMinistryNames(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *financeService) GetContribution(ctx context.Context, id uint) (*model.Contribution, error) {
	c, err := s.contributions.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "contribution")
	}
	items := []model.Contribution{*c}
	if err := s.resolveMinistryNames(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (s *financeService) CreateContribution(ctx context.Context, actor *access.Identity, in ContributionInput) (*model.Contribution, error) {
	verr := &apperrors.ValidationError{}
	checkType(verr, ledger.KindContribution, in.Type)
	checkPaymentMethod(verr, in.PaymentMethod)
	checkAmount(verr, in.Amount)
	status := checkInitialStatus(verr, in.Status)
	date := requireDate(verr, "contribution_date", in.ContributionDate)
	s.checkUserExists(ctx, verr, in.UserID)
	if err := s.checkMinistry(ctx, verr, in.MinistryID); err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	c := &model.Contribution{
		UserID:           in.UserID,
		RecordedBy:       actor.UserID,
		MinistryID:       in.MinistryID,
		Type:             in.Type,
		Amount:           model.NewMoney(in.Amount),
		Currency:         currency(in.Currency),
		PaymentMethod:    in.PaymentMethod,
		ReferenceNumber:  in.ReferenceNumber,
		Description:      in.Description,
		Notes:            in.Notes,
		ContributionDate: date,
		Status:           status,
	}
	err := s.contributions.WithTransaction(ctx, func(ctx context.Context, repo repository.ContributionRepository) error {
		return repo.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return s.GetContribution(ctx, c.ID)
}

func (s *financeService) UpdateContribution(ctx context.Context, actor *access.Identity, id uint, in ContributionUpdateInput) (*model.Contribution, error) {
	var previous ledger.Status
	var updated *model.Contribution
	err := s.contributions.WithTransaction(ctx, func(ctx context.Context, repo repository.ContributionRepository) error {
		c, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err, "contribution")
		}
		previous = c.Status

		verr := &apperrors.ValidationError{}
		locked := false
		if in.Type != nil && *in.Type != c.Type {
			checkType(verr, ledger.KindContribution, *in.Type)
			c.Type = *in.Type
			locked = true
		}
		if in.Amount != nil && !in.Amount.Equal(c.Amount.Decimal) {
			checkAmount(verr, *in.Amount)
			c.Amount = model.NewMoney(*in.Amount)
			locked = true
		}
		if in.ContributionDate != nil {
			d := requireDate(verr, "contribution_date", *in.ContributionDate)
			if !sameDate(d, c.ContributionDate) {
				c.ContributionDate = d
				locked = true
			}
		}
		if in.PaymentMethod != nil {
			checkPaymentMethod(verr, *in.PaymentMethod)
			c.PaymentMethod = *in.PaymentMethod
		}
		if in.MinistryID != nil {
			if err := s.checkMinistry(ctx, verr, in.MinistryID); err != nil {
				return err
			}
			c.MinistryID = in.MinistryID
		}
		if in.Currency != nil {
			c.Currency = currency(*in.Currency)
		}
		setString(&c.ReferenceNumber, in.ReferenceNumber)
		setString(&c.Description, in.Description)
		setString(&c.Notes, in.Notes)
		if in.Status != nil {
			c.Status = checkTransition(verr, c.Status, *in.Status)
		}
		if err := verr.OrNil(); err != nil {
			return err
		}
		if locked && previous == ledger.StatusConfirmed && !s.opts.AllowConfirmedEdits {
			return ErrConfirmedLocked
		}
		if !previous.CanTransitionTo(c.Status) {
			return transitionConflict(previous, c.Status)
		}
		c.User, c.Recorder = nil, nil
		updated = c
		return repo.Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	s.publishStatusChange(ctx, notify.EventContributionStatusChanged, actor, id, previous, updated.Status)
	return s.GetContribution(ctx, id)
}

func (s *financeService) DeleteContribution(ctx context.Context, id uint) error {
	return notFound(s.contributions.Delete(ctx, id), "contribution")
}

func (s *financeService) SetContributionStatus(ctx context.Context, actor *access.Identity, id uint, status string) (*model.Contribution, error) {
	return s.UpdateContribution(ctx, actor, id, ContributionUpdateInput{Status: &status})
}

// donations

// ListDonations lists donations. Donor details of anonymous gifts are hidden
// from viewers who cannot edit donations.
func (s *financeService) ListDonations(ctx context.Context, actor *access.Identity, filter ledger.Filter, page repository.Pagination) ([]model.Donation, int64, error) {
	if err := filter.Validate(ledger.KindDonation); err != nil {
		return nil, 0, err
	}
	items, total, err := s.donations.List(ctx, filter, page)
	if err != nil {
		return nil, 0, err
	}
	if !canSeeDonors(actor) {
		for i := range items {
			items[i].Redact()
		}
	}
	return items, total, nil
}

func (s *financeService) GetDonation(ctx context.Context, actor *access.Identity, id uint) (*model.Donation, error) {
	d, err := s.donations.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "donation")
	}
	if !canSeeDonors(actor) {
		d.Redact()
	}
	return d, nil
}

func (s *financeService) CreateDonation(ctx context.Context, actor *access.Identity, in DonationInput) (*model.Donation, error) {
	verr := &apperrors.ValidationError{}
	checkType(verr, ledger.KindDonation, in.Type)
	checkPaymentMethod(verr, in.PaymentMethod)
	checkAmount(verr, in.Amount)
	status := checkInitialStatus(verr, in.Status)
	date := requireDate(verr, "donation_date", in.DonationDate)
	if in.UserID != nil {
		s.checkUserExists(ctx, verr, *in.UserID)
	} else if !in.IsAnonymous && strings.TrimSpace(in.DonorName) == "" {
		verr.Add("donor_name", "a donor name is required when no member is linked")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	d := &model.Donation{
		UserID:          in.UserID,
		DonorName:       strings.TrimSpace(in.DonorName),
		DonorEmail:      in.DonorEmail,
		DonorPhone:      in.DonorPhone,
		Type:            in.Type,
		Amount:          model.NewMoney(in.Amount),
		Currency:        currency(in.Currency),
		PaymentMethod:   in.PaymentMethod,
		ReferenceNumber: in.ReferenceNumber,
		Description:     in.Description,
		Notes:           in.Notes,
		DonationDate:    date,
		Status:          status,
		IsAnonymous:     in.IsAnonymous,
		RecordedBy:      actor.UserID,
	}
	err := s.donations.WithTransaction(ctx, func(ctx context.Context, repo repository.DonationRepository) error {
		return repo.Create(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	return s.GetDonation(ctx, actor, d.ID)
}

func (s *financeService) UpdateDonation(ctx context.Context, actor *access.Identity, id uint, in DonationUpdateInput) (*model.Donation, error) {
	var previous ledger.Status
	var updated *model.Donation
	err := s.donations.WithTransaction(ctx, func(ctx context.Context, repo repository.DonationRepository) error {
		d, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err, "donation")
		}
		previous = d.Status

		verr := &apperrors.ValidationError{}
		locked := false
		if in.Type != nil && *in.Type != d.Type {
			checkType(verr, ledger.KindDonation, *in.Type)
			d.Type = *in.Type
			locked = true
		}
		if in.Amount != nil && !in.Amount.Equal(d.Amount.Decimal) {
			checkAmount(verr, *in.Amount)
			d.Amount = model.NewMoney(*in.Amount)
			locked = true
		}
		if in.DonationDate != nil {
			date := requireDate(verr, "donation_date", *in.DonationDate)
			if !sameDate(date, d.DonationDate) {
				d.DonationDate = date
				locked = true
			}
		}
		if in.PaymentMethod != nil {
			checkPaymentMethod(verr, *in.PaymentMethod)
			d.PaymentMethod = *in.PaymentMethod
		}
		if in.Currency != nil {
			d.Currency = currency(*in.Currency)
		}
		setString(&d.DonorName, in.DonorName)
		setString(&d.DonorEmail, in.DonorEmail)
		setString(&d.DonorPhone, in.DonorPhone)
		setString(&d.ReferenceNumber, in.ReferenceNumber)
		setString(&d.Description, in.Description)
		setString(&d.Notes, in.Notes)
		if in.IsAnonymous != nil {
			d.IsAnonymous = *in.IsAnonymous
		}
		if in.Status != nil {
			d.Status = checkTransition(verr, d.Status, *in.Status)
		}
		if err := verr.OrNil(); err != nil {
			return err
		}
		if locked && previous == ledger.StatusConfirmed && !s.opts.AllowConfirmedEdits {
			return ErrConfirmedLocked
		}
		if !previous.CanTransitionTo(d.Status) {
			return transitionConflict(previous, d.Status)
		}
		d.User, d.Recorder = nil, nil
		updated = d
		return repo.Update(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	s.publishStatusChange(ctx, notify.EventDonationStatusChanged, actor, id, previous, updated.Status)
	return s.GetDonation(ctx, actor, id)
}

func (s *financeService) DeleteDonation(ctx context.Context, id uint) error {
	return notFound(s.donations.Delete(ctx, id), "donation")
}

func (s *financeService) SetDonationStatus(ctx context.Context, actor *access.Identity, id uint, status string) (*model.Donation, error) {
	return s.UpdateDonation(ctx, actor, id, DonationUpdateInput{Status: &status})
}

// reports

// Summary totals confirmed contributions and donations inside r. Unset ends
// of r default to the current calendar month.
func (s *financeService) Summary(ctx context.Context, r ledger.DateRange) (ledger.CombinedSummary, error) {
	r, err := r.Resolve(ledger.MonthOf(s.now()))
	if err != nil {
		return ledger.CombinedSummary{}, err
	}
	filter := ledger.Filter{Status: string(ledger.StatusConfirmed)}.WithRange(r)

	contributions, err := s.contributions.Find(ctx, filter)
	if err != nil {
		return ledger.CombinedSummary{}, err
	}
	donations, err := s.donations.Find(ctx, filter)
	if err != nil {
		return ledger.CombinedSummary{}, err
	}
	return ledger.Combine(
		ledger.Summarize(contributionEntries(contributions), r),
		ledger.Summarize(donationEntries(donations), r),
		r,
	), nil
}

func (s *financeService) ReportByType(ctx context.Context, filter ledger.Filter) (*GroupReport, error) {
	entries, r, err := s.reportEntries(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, count := ledger.Totals(entries)
	return &GroupReport{Range: r, Groups: ledger.GroupByType(entries), Total: total, Count: count}, nil
}

// ReportByMinistry groups contributions by ministry. Records without a
// ministry are left out; deleted ministries are labelled Unknown.
func (s *financeService) ReportByMinistry(ctx context.Context, filter ledger.Filter) (*GroupReport, error) {
	entries, r, err := s.reportEntries(ctx, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0)
	seen := make(map[uint]bool)
	withMinistry := make([]ledger.Entry, 0, len(entries))
	for _, e := range entries {
		if e.MinistryID == nil {
			continue
		}
		withMinistry = append(withMinistry, e)
		if !seen[*e.MinistryID] {
			seen[*e.MinistryID] = true
			ids = append(ids, *e.MinistryID)
		}
	}
	names, err := s.ministries.Names(ctx, ids)
	if err != nil {
		return nil, err
	}
	total, count := ledger.Totals(withMinistry)
	return &GroupReport{Range: r, Groups: ledger.GroupByMinistry(withMinistry, names), Total: total, Count: count}, nil
}

// ReportByDateRange lists contributions in a required window.
func (s *financeService) ReportByDateRange(ctx context.Context, filter ledger.Filter) (*RangeReport, error) {
	r, ok := filter.Range()
	if !ok {
		verr := &apperrors.ValidationError{}
		if filter.From == nil {
			verr.Add("start_date", "the start date field is required")
		}
		if filter.To == nil {
			verr.Add("end_date", "the end date field is required")
		}
		return nil, verr
	}
	if filter.Status == "" {
		filter.Status = string(ledger.StatusConfirmed)
	}
	if err := filter.Validate(ledger.KindContribution); err != nil {
		return nil, err
	}
	items, err := s.contributions.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := s.resolveMinistryNames(ctx, items); err != nil {
		return nil, err
	}
	total, count := ledger.Totals(contributionEntries(items))
	return &RangeReport{Range: r, Contributions: items, Total: total, Count: count}, nil
}

// History totals a member's confirmed giving. Unset ends of r default to the
// last twelve months.
func (s *financeService) History(ctx context.Context, actor *access.Identity, userID uint, r *ledger.DateRange) (ledger.UserHistory, error) {
	if err := s.checkUserLedger(actor, userID); err != nil {
		return ledger.UserHistory{}, err
	}
	window := ledger.LastMonths(s.now(), 12)
	if r != nil {
		resolved, err := r.Resolve(window)
		if err != nil {
			return ledger.UserHistory{}, err
		}
		window = resolved
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return ledger.UserHistory{}, notFound(err, "user")
	}
	filter := ledger.Filter{UserID: &userID, Status: string(ledger.StatusConfirmed)}.WithRange(window)
	contributions, err := s.contributions.Find(ctx, filter)
	if err != nil {
		return ledger.UserHistory{}, err
	}
	donations, err := s.donations.Find(ctx, filter)
	if err != nil {
		return ledger.UserHistory{}, err
	}
	return ledger.History(contributionEntries(contributions), donationEntries(donations), window), nil
}

func (s *financeService) UserContributions(ctx context.Context, actor *access.Identity, userID uint, filter ledger.Filter, page repository.Pagination) ([]model.Contribution, int64, error) {
	if err := s.checkUserLedger(actor, userID); err != nil {
		return nil, 0, err
	}
	filter.UserID = &userID
	return s.ListContributions(ctx, filter, page)
}

func (s *financeService) UserDonations(ctx context.Context, actor *access.Identity, userID uint, filter ledger.Filter, page repository.Pagination) ([]model.Donation, int64, error) {
	if err := s.checkUserLedger(actor, userID); err != nil {
		return nil, 0, err
	}
	filter.UserID = &userID
	return s.ListDonations(ctx, actor, filter, page)
}

func (s *financeService) MinistryContributions(ctx context.Context, ministryID uint, filter ledger.Filter, page repository.Pagination) ([]model.Contribution, int64, error) {
	if _, err := s.ministries.FindByID(ctx, ministryID); err != nil {
		return nil, 0, notFound(err, "ministry")
	}
	filter.MinistryID = &ministryID
	return s.ListContributions(ctx, filter, page)
}

// Archive stores the combined summary for r as JSON in the report bucket.
func (s *financeService) Archive(ctx context.Context, actor *access.Identity, r ledger.DateRange) (*ArchiveResult, error) {
	summary, err := s.Summary(ctx, r)
	if err != nil {
		return nil, err
	}
	body, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	from, to := summary.Range.Bounds()
	name := fmt.Sprintf("summary-%s-%s-%d.json", from, to, s.now().Unix())
	location, err := s.archiver.Upload(ctx, name, body, "application/json")
	if err != nil {
		if errors.Is(err, archive.ErrDisabled) {
			return nil, apperrors.Unavailable(err.Error())
		}
		return nil, fmt.Errorf("archive summary: %w", err)
	}
	return &ArchiveResult{Location: location, Summary: summary}, nil
}

// reportEntries loads contributions for a grouped report. Without an
// explicit status only confirmed records count.
func (s *financeService) reportEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, ledger.DateRange, error) {
	if filter.Status == "" {
		filter.Status = string(ledger.StatusConfirmed)
	}
	if err := filter.Validate(ledger.KindContribution); err != nil {
		return nil, ledger.DateRange{}, err
	}
	r, _ := filter.Range()
	items, err := s.contributions.Find(ctx, filter)
	if err != nil {
		return nil, ledger.DateRange{}, err
	}
	return contributionEntries(items), r, nil
}

func (s *financeService) checkUserLedger(actor *access.Identity, userID uint) error {
	return access.Check(actor, access.AnyOf(access.OwnedBy(userID), financeStaff))
}

func (s *financeService) resolveMinistryNames(ctx context.Context, items []model.Contribution) error {
	ids := make([]uint, 0)
	for _, c := range items {
		if c.MinistryID != nil {
			ids = append(ids, *c.MinistryID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	names, err := s.ministries.Names(ctx, ids)
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].MinistryID == nil {
			continue
		}
		if name, ok := names[*items[i].MinistryID]; ok {
			items[i].MinistryName = name
		} else {
			items[i].MinistryName = ledger.UnknownMinistry
		}
	}
	return nil
}

func (s *financeService) checkUserExists(ctx context.Context, verr *apperrors.ValidationError, userID uint) {
	if userID == 0 {
		verr.Add("user_id", "the user id field is required")
		return
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		verr.Add("user_id", "the selected user does not exist")
	}
}

func (s *financeService) checkMinistry(ctx context.Context, verr *apperrors.ValidationError, ministryID *uint) error {
	if ministryID == nil {
		return nil
	}
	if _, err := s.ministries.FindByID(ctx, *ministryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			verr.Add("ministry_id", "the selected ministry does not exist")
			return nil
		}
		return err
	}
	return nil
}

func (s *financeService) publishStatusChange(ctx context.Context, typ string, actor *access.Identity, id uint, from, to ledger.Status) {
	if from == to {
		return
	}
	var actorID uint
	if actor != nil {
		actorID = actor.UserID
	}
	s.publisher.Publish(ctx, notify.New(typ, actorID, map[string]interface{}{
		"id":   strconv.FormatUint(uint64(id), 10),
		"from": string(from),
		"to":   string(to),
	}))
}

func canSeeDonors(actor *access.Identity) bool {
	return actor.HasRole(access.RoleAdministrator) || actor.HasPermission(access.PermEditDonations)
}

func checkType(verr *apperrors.ValidationError, kind ledger.Kind, t string) {
	if !ledger.IsValidType(kind, t) {
		verr.Add("type", "the selected type is invalid")
	}
}

func checkPaymentMethod(verr *apperrors.ValidationError, m string) {
	if !ledger.IsValidPaymentMethod(m) {
		verr.Add("payment_method", "the selected payment method is invalid")
	}
}

func checkAmount(verr *apperrors.ValidationError, amount decimal.Decimal) {
	if msg := ledger.ValidateAmount(amount); msg != "" {
		verr.Add("amount", msg)
	}
}

func checkInitialStatus(verr *apperrors.ValidationError, status string) ledger.Status {
	if status == "" {
		return ledger.StatusPending
	}
	st := ledger.Status(status)
	if !st.IsValid() {
		verr.Add("status", "the selected status is invalid")
	}
	return st
}

// checkTransition validates the requested status value. Whether the move is
// allowed is decided by the caller.
func checkTransition(verr *apperrors.ValidationError, current ledger.Status, next string) ledger.Status {
	st := ledger.Status(next)
	if !st.IsValid() {
		verr.Add("status", "the selected status is invalid")
		return current
	}
	return st
}

func transitionConflict(from, to ledger.Status) error {
	return apperrors.Conflict("cannot change status from %s to %s", from, to)
}

func requireDate(verr *apperrors.ValidationError, field, value string) (t time.Time) {
	d := parseOptionalDate(verr, field, value)
	if d == nil {
		verr.Add(field, "the "+strings.ReplaceAll(field, "_", " ")+" field is required")
		return t
	}
	return *d
}

func sameDate(a, b time.Time) bool {
	return a.Format(ledger.DateLayout) == b.Format(ledger.DateLayout)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func currency(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return "USD"
	}
	return c
}

func contributionEntries(items []model.Contribution) []ledger.Entry {
	out := make([]ledger.Entry, 0, len(items))
	for i := range items {
		out = append(out, items[i].Entry())
	}
	return out
}

func donationEntries(items []model.Donation) []ledger.Entry {
	out := make([]ledger.Entry, 0, len(items))
	for i := range items {
		out = append(out, items[i].Entry())
	}
	return out
}
