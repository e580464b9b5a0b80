package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"churchadmin/internal/access"
	"churchadmin/internal/model"
	"churchadmin/internal/repository"
)

// SeedResult summarises one seeding run.
type SeedResult struct {
	Permissions  int
	Roles        int
	AdminCreated bool
}

// SeedService installs the permission catalogue, the canonical roles and a
// first administrator. Running it twice changes nothing.
type SeedService struct {
	roles      repository.RoleRepository
	users      repository.UserRepository
	bcryptCost int
	log        *logrus.Logger
}

// NewSeedService creates a seeder.
func NewSeedService(roles repository.RoleRepository, users repository.UserRepository, bcryptCost int, log *logrus.Logger) *SeedService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &SeedService{roles: roles, users: users, bcryptCost: bcryptCost, log: log}
}

// Run seeds roles and permissions, then creates the administrator account
// when adminEmail is set and unknown.
func (s *SeedService) Run(ctx context.Context, adminEmail, adminPassword string) (*SeedResult, error) {
	res := &SeedResult{}

	for _, name := range access.AllPermissions {
		perm := &model.Permission{Name: name, DisplayName: displayName(name)}
		if err := s.roles.EnsurePermission(ctx, perm); err != nil {
			return nil, fmt.Errorf("seed permission %s: %w", name, err)
		}
		res.Permissions++
	}

	for _, name := range []string{access.RoleMember, access.RolePastor, access.RoleFinanceCommittee, access.RoleAdministrator} {
		role := &model.Role{Name: name, DisplayName: access.RoleDisplayNames[name]}
		if err := s.roles.EnsureRole(ctx, role); err != nil {
			return nil, fmt.Errorf("seed role %s: %w", name, err)
		}
		if err := s.roles.SyncPermissions(ctx, role, access.DefaultRolePermissions[name]); err != nil {
			return nil, fmt.Errorf("sync permissions for %s: %w", name, err)
		}
		res.Roles++
		s.log.WithFields(logrus.Fields{"role": name, "permissions": len(access.DefaultRolePermissions[name])}).Info("role seeded")
	}

	if adminEmail == "" {
		return res, nil
	}
	email := strings.ToLower(strings.TrimSpace(adminEmail))
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		s.log.WithField("email", email).Info("administrator already exists")
		return res, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("look up administrator: %w", err)
	}
	if len(adminPassword) < 8 {
		return nil, errors.New("administrator password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	role, err := s.roles.FindByName(ctx, access.RoleAdministrator)
	if err != nil {
		return nil, fmt.Errorf("find administrator role: %w", err)
	}
	admin := &model.User{
		FirstName:    "System",
		LastName:     "Administrator",
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	err = s.users.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		if err := repo.Create(ctx, admin); err != nil {
			return err
		}
		return repo.AttachRole(ctx, admin.ID, role)
	})
	if err != nil {
		return nil, fmt.Errorf("create administrator: %w", err)
	}
	res.AdminCreated = true
	s.log.WithField("email", email).Info("administrator created")
	return res, nil
}

// displayName turns view_financial_reports into "View Financial Reports".
func displayName(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
