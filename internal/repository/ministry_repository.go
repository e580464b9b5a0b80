package repository

import (
	"context"

	"gorm.io/gorm"

	"churchadmin/internal/model"
)

// MinistryFilter restricts a ministry listing.
type MinistryFilter struct {
	Search   string
	IsActive *bool
	LeaderID *uint
}

// MinistryRepository defines ministry and membership persistence operations.
type MinistryRepository interface {
	Create(ctx context.Context, ministry *model.Ministry) error
	Update(ctx context.Context, ministry *model.Ministry) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Ministry, error)
	List(ctx context.Context, filter MinistryFilter, page Pagination) ([]model.Ministry, int64, error)
	// Names resolves display names for ids. Deleted ministries are absent from the result.
	Names(ctx context.Context, ids []uint) (map[uint]string, error)
	Members(ctx context.Context, ministryID uint) ([]model.MinistryMember, error)
	FindMember(ctx context.Context, ministryID, userID uint) (*model.MinistryMember, error)
	AddMember(ctx context.Context, member *model.MinistryMember) error
	RemoveMember(ctx context.Context, ministryID, userID uint) error
	ActiveMemberIDs(ctx context.Context, ministryID uint) ([]uint, error)
	ForUser(ctx context.Context, userID uint) ([]model.MinistryMember, error)
	Count(ctx context.Context, activeOnly bool) (int64, error)
}

type ministryRepository struct {
	db *gorm.DB
}

// NewMinistryRepository creates a new ministry repository.
func NewMinistryRepository(db *gorm.DB) MinistryRepository {
	return &ministryRepository{db: db}
}

func (r *ministryRepository) Create(ctx context.Context, ministry *model.Ministry) error {
	return r.db.WithContext(ctx).Create(ministry).Error
}

func (r *ministryRepository) Update(ctx context.Context, ministry *model.Ministry) error {
	return r.db.WithContext(ctx).Omit("Leader", "Members").Save(ministry).Error
}

// Delete soft-deletes the ministry and drops its memberships.
func (r *ministryRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ministry_id = ?", id).Delete(&model.MinistryMember{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Ministry{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *ministryRepository) FindByID(ctx context.Context, id uint) (*model.Ministry, error) {
	var ministry model.Ministry
	if err := r.db.WithContext(ctx).Preload("Leader").First(&ministry, id).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&model.MinistryMember{}).
		Where("ministry_id = ? AND is_active = ?", id, true).
		Count(&ministry.MemberCount).Error; err != nil {
		return nil, err
	}
	return &ministry, nil
}

func (r *ministryRepository) List(ctx context.Context, filter MinistryFilter, page Pagination) ([]model.Ministry, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Search != "" {
			p := likePattern(filter.Search)
			db = db.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", p, p)
		}
		if filter.IsActive != nil {
			db = db.Where("is_active = ?", *filter.IsActive)
		}
		if filter.LeaderID != nil {
			db = db.Where("leader_id = ?", *filter.LeaderID)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Ministry{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var ministries []model.Ministry
	if err := r.db.WithContext(ctx).Scopes(scope, page.scope).
		Preload("Leader").
		Order("name ASC").
		Find(&ministries).Error; err != nil {
		return nil, 0, err
	}
	return ministries, total, nil
}

func (r *ministryRepository) Names(ctx context.Context, ids []uint) (map[uint]string, error) {
	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var rows []model.Ministry
	if err := r.db.WithContext(ctx).Select("id", "name").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, m := range rows {
		names[m.ID] = m.Name
	}
	return names, nil
}

func (r *ministryRepository) Members(ctx context.Context, ministryID uint) ([]model.MinistryMember, error) {
	var members []model.MinistryMember
	if err := r.db.WithContext(ctx).Preload("User").
		Where("ministry_id = ?", ministryID).
		Order("joined_date ASC, user_id ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *ministryRepository) FindMember(ctx context.Context, ministryID, userID uint) (*model.MinistryMember, error) {
	var member model.MinistryMember
	if err := r.db.WithContext(ctx).
		Where("ministry_id = ? AND user_id = ?", ministryID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *ministryRepository) AddMember(ctx context.Context, member *model.MinistryMember) error {
	return r.db.WithContext(ctx).Omit("User", "Ministry").Create(member).Error
}

func (r *ministryRepository) RemoveMember(ctx context.Context, ministryID, userID uint) error {
	res := r.db.WithContext(ctx).
		Where("ministry_id = ? AND user_id = ?", ministryID, userID).
		Delete(&model.MinistryMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ministryRepository) ActiveMemberIDs(ctx context.Context, ministryID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.MinistryMember{}).
		Joins("JOIN users ON users.id = ministry_members.user_id").
		Where("ministry_members.ministry_id = ? AND ministry_members.is_active = ? AND users.is_active = ?", ministryID, true, true).
		Order("ministry_members.user_id ASC").
		Pluck("ministry_members.user_id", &ids).Error
	return ids, err
}

func (r *ministryRepository) ForUser(ctx context.Context, userID uint) ([]model.MinistryMember, error) {
	var members []model.MinistryMember
	if err := r.db.WithContext(ctx).Preload("Ministry").
		Where("user_id = ?", userID).
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *ministryRepository) Count(ctx context.Context, activeOnly bool) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Ministry{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var n int64
	return n, q.Count(&n).Error
}
