package repository

import (
	"context"

	"gorm.io/gorm"

	"churchadmin/internal/model"
)

// UserFilter restricts a user listing.
type UserFilter struct {
	Search   string
	IsActive *bool
	Role     string
}

// RoleCount is the number of users holding a role.
type RoleCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// FindWithGraph loads the user with roles and their permissions in one go.
	FindWithGraph(ctx context.Context, id uint) (*model.User, error)
	List(ctx context.Context, filter UserFilter, page Pagination) ([]model.User, int64, error)
	AttachRole(ctx context.Context, userID uint, role *model.Role) error
	DetachRole(ctx context.Context, userID uint, role *model.Role) error
	ActiveIDs(ctx context.Context) ([]uint, error)
	Count(ctx context.Context, activeOnly bool) (int64, error)
	RoleDistribution(ctx context.Context) ([]RoleCount, error)
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo UserRepository) error) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Omit("Roles", "Ministries").Save(user).Error
}

// Delete removes the user after detaching roles, memberships and registrations.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := &model.User{ID: id}
		if err := tx.Model(user).Association("Roles").Clear(); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.MinistryMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.EventAttendee{}).Error; err != nil {
			return err
		}
		res := tx.Delete(user)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Preload("Roles").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Preload("Roles").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindWithGraph(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Preload("Roles.Permissions").
		Preload("Ministries.Ministry").
		First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter, page Pagination) ([]model.User, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Search != "" {
			p := likePattern(filter.Search)
			db = db.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", p, p, p)
		}
		if filter.IsActive != nil {
			db = db.Where("is_active = ?", *filter.IsActive)
		}
		if filter.Role != "" {
			db = db.Where("id IN (?)", r.db.Table("user_roles").
				Select("user_roles.user_id").
				Joins("JOIN roles ON roles.id = user_roles.role_id").
				Where("roles.name = ?", filter.Role))
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	if err := r.db.WithContext(ctx).Scopes(scope, page.scope).
		Preload("Roles").
		Order("last_name ASC, first_name ASC, id ASC").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) AttachRole(ctx context.Context, userID uint, role *model.Role) error {
	return r.db.WithContext(ctx).Model(&model.User{ID: userID}).Association("Roles").Append(role)
}

func (r *userRepository) DetachRole(ctx context.Context, userID uint, role *model.Role) error {
	return r.db.WithContext(ctx).Model(&model.User{ID: userID}).Association("Roles").Delete(role)
}

func (r *userRepository) ActiveIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("is_active = ?", true).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *userRepository) Count(ctx context.Context, activeOnly bool) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.User{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var n int64
	return n, q.Count(&n).Error
}

func (r *userRepository) RoleDistribution(ctx context.Context) ([]RoleCount, error) {
	var out []RoleCount
	err := r.db.WithContext(ctx).Table("roles").
		Select("roles.name AS name, COUNT(user_roles.user_id) AS count").
		Joins("LEFT JOIN user_roles ON user_roles.role_id = roles.id").
		Group("roles.name").
		Order("roles.name ASC").
		Scan(&out).Error
	return out, err
}

// WithTransaction executes fn against a repository bound to a single transaction.
func (r *userRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo UserRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &userRepository{db: tx})
	})
}
