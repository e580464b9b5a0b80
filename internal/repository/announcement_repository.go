package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"churchadmin/internal/model"
)

// AnnouncementFilter restricts an announcement listing. ActiveOnly limits the
// listing to published, unexpired announcements as of Now.
type AnnouncementFilter struct {
	ActiveOnly bool
	Published  *bool
	Type       string
	Priority   string
	Search     string
	Now        time.Time
}

// AnnouncementRepository defines announcement persistence operations.
type AnnouncementRepository interface {
	Create(ctx context.Context, a *model.Announcement) error
	Update(ctx context.Context, a *model.Announcement) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Announcement, error)
	List(ctx context.Context, filter AnnouncementFilter, page Pagination) ([]model.Announcement, int64, error)
	CountActive(ctx context.Context, now time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type announcementRepository struct {
	db *gorm.DB
}

// NewAnnouncementRepository creates a new announcement repository.
func NewAnnouncementRepository(db *gorm.DB) AnnouncementRepository {
	return &announcementRepository{db: db}
}

func activeAnnouncements(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("is_published = ?", true).
			Where("expires_at IS NULL OR expires_at > ?", now)
	}
}

func (r *announcementRepository) Create(ctx context.Context, a *model.Announcement) error {
	return r.db.WithContext(ctx).Omit("Author").Create(a).Error
}

func (r *announcementRepository) Update(ctx context.Context, a *model.Announcement) error {
	return r.db.WithContext(ctx).Omit("Author").Save(a).Error
}

func (r *announcementRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Announcement{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *announcementRepository) FindByID(ctx context.Context, id uint) (*model.Announcement, error) {
	var a model.Announcement
	if err := r.db.WithContext(ctx).Preload("Author").First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *announcementRepository) List(ctx context.Context, filter AnnouncementFilter, page Pagination) ([]model.Announcement, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.ActiveOnly {
			db = db.Scopes(activeAnnouncements(filter.Now))
		} else if filter.Published != nil {
			db = db.Where("is_published = ?", *filter.Published)
		}
		if filter.Type != "" {
			db = db.Where("type = ?", filter.Type)
		}
		if filter.Priority != "" {
			db = db.Where("priority = ?", filter.Priority)
		}
		if filter.Search != "" {
			p := likePattern(filter.Search)
			db = db.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", p, p)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Announcement{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []model.Announcement
	if err := r.db.WithContext(ctx).Scopes(scope, page.scope).
		Preload("Author").
		Order("created_at DESC, id DESC").
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *announcementRepository) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Announcement{}).Scopes(activeAnnouncements(now)).Count(&n).Error
	return n, err
}

func (r *announcementRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	return n, r.db.WithContext(ctx).Model(&model.Announcement{}).Count(&n).Error
}
