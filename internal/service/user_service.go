package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"churchadmin/internal/access"
	apperrors "churchadmin/internal/errors"
	"churchadmin/internal/model"
	"churchadmin/internal/repository"
)

// CreateUserInput is the administrator payload for creating an account.
type CreateUserInput struct {
	FirstName      string   `json:"first_name" validate:"required,max=100"`
	LastName       string   `json:"last_name" validate:"required,max=100"`
	Email          string   `json:"email" validate:"required,email,max=255"`
	Password       string   `json:"password" validate:"required,min=8"`
	Phone          string   `json:"phone" validate:"omitempty,max=30"`
	DateOfBirth    string   `json:"date_of_birth"`
	Gender         string   `json:"gender" validate:"omitempty,oneof=male female other"`
	Address        string   `json:"address" validate:"omitempty,max=255"`
	City           string   `json:"city" validate:"omitempty,max=100"`
	State          string   `json:"state" validate:"omitempty,max=100"`
	ZipCode        string   `json:"zip_code" validate:"omitempty,max=20"`
	Country        string   `json:"country" validate:"omitempty,max=100"`
	MembershipDate string   `json:"membership_date"`
	IsActive       *bool    `json:"is_active"`
	Roles          []string `json:"roles"`
}

// ProfileInput holds the fields a user may change about themselves. Nil
// fields are left untouched.
type ProfileInput struct {
	FirstName   *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName    *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Email       *string `json:"email" validate:"omitempty,email,max=255"`
	Password    *string `json:"password" validate:"omitempty,min=8"`
	Phone       *string `json:"phone" validate:"omitempty,max=30"`
	DateOfBirth *string `json:"date_of_birth"`
	Gender      *string `json:"gender" validate:"omitempty,oneof=male female other"`
	Address     *string `json:"address" validate:"omitempty,max=255"`
	City        *string `json:"city" validate:"omitempty,max=100"`
	State       *string `json:"state" validate:"omitempty,max=100"`
	ZipCode     *string `json:"zip_code" validate:"omitempty,max=20"`
	Country     *string `json:"country" validate:"omitempty,max=100"`
}

// UpdateUserInput extends the profile with administrator-only fields.
type UpdateUserInput struct {
	ProfileInput
	MembershipDate *string `json:"membership_date"`
	IsActive       *bool   `json:"is_active"`
}

// RoleInput names one role.
type RoleInput struct {
	Role string `json:"role" validate:"required"`
}

// UserService manages member accounts and their roles.
type UserService interface {
	List(ctx context.Context, filter repository.UserFilter, page repository.Pagination) ([]model.User, int64, error)
	Get(ctx context.Context, id uint) (*model.User, error)
	Create(ctx context.Context, in CreateUserInput) (*model.User, error)
	Update(ctx context.Context, id uint, in UpdateUserInput) (*model.User, error)
	Delete(ctx context.Context, actor *access.Identity, id uint) error
	AssignRole(ctx context.Context, userID uint, role string) (*model.User, error)
	RemoveRole(ctx context.Context, userID uint, role string) (*model.User, error)
	Ministries(ctx context.Context, userID uint) ([]model.MinistryMember, error)
	UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*model.User, error)
}

type userService struct {
	users      repository.UserRepository
	roles      repository.RoleRepository
	ministries repository.MinistryRepository
	identity   IdentityService
	bcryptCost int
}

// NewUserService creates a new user service.
func NewUserService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	ministries repository.MinistryRepository,
	identity IdentityService,
	bcryptCost int,
) UserService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &userService{
		users:      users,
		roles:      roles,
		ministries: ministries,
		identity:   identity,
		bcryptCost: bcryptCost,
	}
}

func (s *userService) List(ctx context.Context, filter repository.UserFilter, page repository.Pagination) ([]model.User, int64, error) {
	if filter.Role != "" {
		filter.Role = access.NormalizeRole(filter.Role)
	}
	return s.users.List(ctx, filter, page)
}

func (s *userService) Get(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.users.FindWithGraph(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

// Create adds an account with the requested roles, or member when none are given.
func (s *userService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	verr := &apperrors.ValidationError{}
	dob := parseOptionalDate(verr, "date_of_birth", in.DateOfBirth)
	joined := parseOptionalDate(verr, "membership_date", in.MembershipDate)

	names := in.Roles
	if len(names) == 0 {
		names = []string{access.RoleMember}
	}
	roles := make([]*model.Role, 0, len(names))
	for _, name := range names {
		role, err := s.findRole(ctx, name)
		if err != nil {
			var v *apperrors.ValidationError
			if errors.As(err, &v) {
				verr.Add("roles", v.Error())
				continue
			}
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Email:          strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash:   string(hash),
		Phone:          in.Phone,
		DateOfBirth:    dob,
		Gender:         in.Gender,
		Address:        in.Address,
		City:           in.City,
		State:          in.State,
		ZipCode:        in.ZipCode,
		Country:        in.Country,
		MembershipDate: joined,
		IsActive:       in.IsActive == nil || *in.IsActive,
	}

	err = s.users.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		if err := repo.Create(ctx, user); err != nil {
			return conflictOnDuplicate(err, ErrEmailTaken.Error())
		}
		// gorm ignores the default tag for a false bool on insert
		if !user.IsActive {
			if err := repo.Update(ctx, user); err != nil {
				return err
			}
		}
		for _, role := range roles {
			if err := repo.AttachRole(ctx, user.ID, role); err != nil {
				return fmt.Errorf("attach role %s: %w", role.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, user.ID)
}

func (s *userService) Update(ctx context.Context, id uint, in UpdateUserInput) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}

	verr := &apperrors.ValidationError{}
	if err := s.applyProfile(user, in.ProfileInput, verr); err != nil {
		return nil, err
	}
	if in.MembershipDate != nil {
		user.MembershipDate = parseOptionalDate(verr, "membership_date", *in.MembershipDate)
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, conflictOnDuplicate(err, ErrEmailTaken.Error())
	}
	s.identity.Invalidate(ctx, id)
	return s.Get(ctx, id)
}

// UpdateProfile applies a self-service change. Roles and the active flag are
// not reachable from here.
func (s *userService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	verr := &apperrors.ValidationError{}
	if err := s.applyProfile(user, in, verr); err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, conflictOnDuplicate(err, ErrEmailTaken.Error())
	}
	s.identity.Invalidate(ctx, userID)
	return s.Get(ctx, userID)
}

// Delete removes a user with their role links, memberships and registrations.
// Users cannot delete themselves.
func (s *userService) Delete(ctx context.Context, actor *access.Identity, id uint) error {
	if actor != nil && actor.UserID == id {
		return apperrors.Conflict("you cannot delete your own account")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return notFound(err, "user")
	}
	s.identity.Invalidate(ctx, id)
	return nil
}

func (s *userService) AssignRole(ctx context.Context, userID uint, name string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	role, err := s.findRole(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, r := range user.Roles {
		if r.ID == role.ID {
			return nil, apperrors.Conflict("user already has the %s role", role.Name)
		}
	}
	if err := s.users.AttachRole(ctx, userID, role); err != nil {
		return nil, fmt.Errorf("attach role: %w", err)
	}
	s.identity.Invalidate(ctx, userID)
	return s.Get(ctx, userID)
}

// RemoveRole detaches a role. Every user keeps at least one role.
func (s *userService) RemoveRole(ctx context.Context, userID uint, name string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	role, err := s.findRole(ctx, name)
	if err != nil {
		return nil, err
	}
	held := false
	for _, r := range user.Roles {
		if r.ID == role.ID {
			held = true
			break
		}
	}
	if !held {
		return nil, apperrors.NotFound("role assignment")
	}
	if len(user.Roles) <= 1 {
		return nil, apperrors.Conflict("a user must keep at least one role")
	}
	if err := s.users.DetachRole(ctx, userID, role); err != nil {
		return nil, fmt.Errorf("detach role: %w", err)
	}
	s.identity.Invalidate(ctx, userID)
	return s.Get(ctx, userID)
}

func (s *userService) Ministries(ctx context.Context, userID uint) ([]model.MinistryMember, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, notFound(err, "user")
	}
	return s.ministries.ForUser(ctx, userID)
}

func (s *userService) findRole(ctx context.Context, name string) (*model.Role, error) {
	name = access.NormalizeRole(name)
	if !access.IsKnownRole(name) {
		return nil, apperrors.NewValidationError("role", "the selected role is invalid")
	}
	role, err := s.roles.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewValidationError("role", "the selected role is invalid")
		}
		return nil, err
	}
	return role, nil
}

func (s *userService) applyProfile(user *model.User, in ProfileInput, verr *apperrors.ValidationError) error {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&user.FirstName, in.FirstName)
	set(&user.LastName, in.LastName)
	set(&user.Phone, in.Phone)
	set(&user.Gender, in.Gender)
	set(&user.Address, in.Address)
	set(&user.City, in.City)
	set(&user.State, in.State)
	set(&user.ZipCode, in.ZipCode)
	set(&user.Country, in.Country)
	if in.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.DateOfBirth != nil {
		user.DateOfBirth = parseOptionalDate(verr, "date_of_birth", *in.DateOfBirth)
	}
	if in.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.bcryptCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	return nil
}
