package repository

import (
	"context"

	"gorm.io/gorm"

	"churchadmin/internal/model"
)

// RoleRepository defines role and permission persistence operations.
type RoleRepository interface {
	FindByName(ctx context.Context, name string) (*model.Role, error)
	List(ctx context.Context) ([]model.Role, error)
	EnsurePermission(ctx context.Context, perm *model.Permission) error
	EnsureRole(ctx context.Context, role *model.Role) error
	// SyncPermissions replaces the role's permission set with the named permissions.
	SyncPermissions(ctx context.Context, role *model.Role, names []string) error
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a new role repository.
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) List(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := r.db.WithContext(ctx).Preload("Permissions").Order("id ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) EnsurePermission(ctx context.Context, perm *model.Permission) error {
	return r.db.WithContext(ctx).
		Where(model.Permission{Name: perm.Name}).
		Attrs(model.Permission{DisplayName: perm.DisplayName, Description: perm.Description}).
		FirstOrCreate(perm).Error
}

func (r *roleRepository) EnsureRole(ctx context.Context, role *model.Role) error {
	return r.db.WithContext(ctx).
		Where(model.Role{Name: role.Name}).
		Attrs(model.Role{DisplayName: role.DisplayName, Description: role.Description}).
		FirstOrCreate(role).Error
}

func (r *roleRepository) SyncPermissions(ctx context.Context, role *model.Role, names []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var perms []model.Permission
		if len(names) > 0 {
			if err := tx.Where("name IN ?", names).Find(&perms).Error; err != nil {
				return err
			}
		}
		return tx.Model(role).Association("Permissions").Replace(perms)
	})
}
