package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"churchadmin/internal/ledger"
	"churchadmin/internal/model"
)

// ledgerScope applies a ledger filter. dateColumn is the record's domain date.
func ledgerScope(f ledger.Filter, dateColumn string, search func(db *gorm.DB, pattern string) *gorm.DB) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Type != "" {
			db = db.Where("type = ?", f.Type)
		}
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if f.PaymentMethod != "" {
			db = db.Where("payment_method = ?", f.PaymentMethod)
		}
		if f.UserID != nil {
			db = db.Where("user_id = ?", *f.UserID)
		}
		if f.From != nil {
			db = db.Where(dateColumn+" >= ?", f.From.Format(ledger.DateLayout))
		}
		if f.To != nil {
			db = db.Where(dateColumn+" <= ?", f.To.Format(ledger.DateLayout))
		}
		if f.Search != "" {
			db = search(db, likePattern(f.Search))
		}
		return db
	}
}

// ContributionRepository defines contribution persistence operations.
type ContributionRepository interface {
	Create(ctx context.Context, c *model.Contribution) error
	Update(ctx context.Context, c *model.Contribution) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Contribution, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*model.Contribution, error)
	List(ctx context.Context, filter ledger.Filter, page Pagination) ([]model.Contribution, int64, error)
	// Find returns every record matching filter, without relations, for aggregation.
	Find(ctx context.Context, filter ledger.Filter) ([]model.Contribution, error)
	CountContributors(ctx context.Context, r ledger.DateRange) (int64, error)
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo ContributionRepository) error) error
}

type contributionRepository struct {
	db *gorm.DB
}

// NewContributionRepository creates a new contribution repository.
func NewContributionRepository(db *gorm.DB) ContributionRepository {
	return &contributionRepository{db: db}
}

func (r *contributionRepository) scope(f ledger.Filter) func(*gorm.DB) *gorm.DB {
	base := ledgerScope(f, "contribution_date", func(db *gorm.DB, p string) *gorm.DB {
		return db.Where("LOWER(notes) LIKE ? OR LOWER(description) LIKE ? OR user_id IN (?)", p, p,
			r.db.Model(&model.User{}).Select("id").
				Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", p, p, p))
	})
	return func(db *gorm.DB) *gorm.DB {
		db = base(db)
		if f.MinistryID != nil {
			db = db.Where("ministry_id = ?", *f.MinistryID)
		}
		return db
	}
}

func (r *contributionRepository) Create(ctx context.Context, c *model.Contribution) error {
	return r.db.WithContext(ctx).Omit("User", "Recorder").Create(c).Error
}

func (r *contributionRepository) Update(ctx context.Context, c *model.Contribution) error {
	return r.db.WithContext(ctx).Omit("User", "Recorder").Save(c).Error
}

func (r *contributionRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Contribution{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *contributionRepository) FindByID(ctx context.Context, id uint) (*model.Contribution, error) {
	var c model.Contribution
	if err := r.db.WithContext(ctx).Preload("User").Preload("Recorder").First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contributionRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Contribution, error) {
	var c model.Contribution
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contributionRepository) List(ctx context.Context, filter ledger.Filter, page Pagination) ([]model.Contribution, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Contribution{}).Scopes(r.scope(filter)).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []model.Contribution
	if err := r.db.WithContext(ctx).Scopes(r.scope(filter), page.scope).
		Preload("User").Preload("Recorder").
		Order("contribution_date DESC, id DESC").
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *contributionRepository) Find(ctx context.Context, filter ledger.Filter) ([]model.Contribution, error) {
	var items []model.Contribution
	if err := r.db.WithContext(ctx).Scopes(r.scope(filter)).
		Order("contribution_date DESC, id DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *contributionRepository) CountContributors(ctx context.Context, dr ledger.DateRange) (int64, error) {
	from, to := dr.Bounds()
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Contribution{}).
		Where("status = ? AND contribution_date BETWEEN ? AND ?", ledger.StatusConfirmed, from, to).
		Distinct("user_id").
		Count(&n).Error
	return n, err
}

// WithTransaction executes fn against a repository bound to a single transaction.
func (r *contributionRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo ContributionRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &contributionRepository{db: tx})
	})
}

// DonationRepository defines donation persistence operations.
type DonationRepository interface {
	Create(ctx context.Context, d *model.Donation) error
	Update(ctx context.Context, d *model.Donation) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Donation, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*model.Donation, error)
	List(ctx context.Context, filter ledger.Filter, page Pagination) ([]model.Donation, int64, error)
	Find(ctx context.Context, filter ledger.Filter) ([]model.Donation, error)
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo DonationRepository) error) error
}

type donationRepository struct {
	db *gorm.DB
}

// NewDonationRepository creates a new donation repository.
func NewDonationRepository(db *gorm.DB) DonationRepository {
	return &donationRepository{db: db}
}

func (r *donationRepository) scope(f ledger.Filter) func(*gorm.DB) *gorm.DB {
	base := ledgerScope(f, "donation_date", func(db *gorm.DB, p string) *gorm.DB {
		return db.Where("LOWER(donor_name) LIKE ? OR LOWER(donor_email) LIKE ? OR LOWER(notes) LIKE ?", p, p, p)
	})
	return func(db *gorm.DB) *gorm.DB {
		db = base(db)
		if f.Anonymous != nil {
			db = db.Where("is_anonymous = ?", *f.Anonymous)
		}
		return db
	}
}

func (r *donationRepository) Create(ctx context.Context, d *model.Donation) error {
	return r.db.WithContext(ctx).Omit("User", "Recorder").Create(d).Error
}

func (r *donationRepository) Update(ctx context.Context, d *model.Donation) error {
	return r.db.WithContext(ctx).Omit("User", "Recorder").Save(d).Error
}

func (r *donationRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Donation{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *donationRepository) FindByID(ctx context.Context, id uint) (*model.Donation, error) {
	var d model.Donation
	if err := r.db.WithContext(ctx).Preload("User").Preload("Recorder").First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *donationRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Donation, error) {
	var d model.Donation
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *donationRepository) List(ctx context.Context, filter ledger.Filter, page Pagination) ([]model.Donation, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Donation{}).Scopes(r.scope(filter)).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []model.Donation
	if err := r.db.WithContext(ctx).Scopes(r.scope(filter), page.scope).
		Preload("User").Preload("Recorder").
		Order("donation_date DESC, id DESC").
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *donationRepository) Find(ctx context.Context, filter ledger.Filter) ([]model.Donation, error) {
	var items []model.Donation
	if err := r.db.WithContext(ctx).Scopes(r.scope(filter)).
		Order("donation_date DESC, id DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// WithTransaction executes fn against a repository bound to a single transaction.
func (r *donationRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo DonationRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &donationRepository{db: tx})
	})
}
