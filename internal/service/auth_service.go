package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"churchadmin/internal/access"
	"churchadmin/internal/auth"
	apperrors "churchadmin/internal/errors"
	"churchadmin/internal/model"
	"churchadmin/internal/repository"
)

var (
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = apperrors.Unauthenticated("invalid email or password")
	// ErrAccountInactive is returned when a deactivated user tries to sign in.
	ErrAccountInactive = apperrors.Unauthenticated("account is inactive")
	// ErrInvalidRefreshToken is returned when a refresh token is invalid, expired or revoked.
	ErrInvalidRefreshToken = apperrors.Unauthenticated("invalid or expired refresh token")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = apperrors.Conflict("the email has already been taken")
)

// RegisterInput is the self-registration payload.
type RegisterInput struct {
	FirstName            string `json:"first_name" validate:"required,max=100"`
	LastName             string `json:"last_name" validate:"required,max=100"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	Phone                string `json:"phone" validate:"omitempty,max=30"`
	DateOfBirth          string `json:"date_of_birth" validate:"omitempty"`
	Gender               string `json:"gender" validate:"omitempty,oneof=male female other"`
	Address              string `json:"address" validate:"omitempty,max=255"`
	City                 string `json:"city" validate:"omitempty,max=100"`
	State                string `json:"state" validate:"omitempty,max=100"`
	ZipCode              string `json:"zip_code" validate:"omitempty,max=20"`
	Country              string `json:"country" validate:"omitempty,max=100"`
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, *auth.TokenPair, error)
	Login(ctx context.Context, email, password string) (*model.User, *auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	Logout(ctx context.Context, access *auth.Claims, refreshToken string) error
	Me(ctx context.Context, userID uint) (*model.User, error)
}

type authService struct {
	users      repository.UserRepository
	roles      repository.RoleRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	bcryptCost int
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	bcryptCost int,
) AuthService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		users:      users,
		roles:      roles,
		jwtService: jwtService,
		tokenStore: tokenStore,
		bcryptCost: bcryptCost,
	}
}

// Register creates a member account with the default role and signs it in.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, *auth.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	verr := &apperrors.ValidationError{}
	dob := parseOptionalDate(verr, "date_of_birth", in.DateOfBirth)
	if err := verr.OrNil(); err != nil {
		return nil, nil, err
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, nil, ErrEmailTaken
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("check user existence: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		PasswordHash: string(hash),
		Phone:        in.Phone,
		DateOfBirth:  dob,
		Gender:       in.Gender,
		Address:      in.Address,
		City:         in.City,
		State:        in.State,
		ZipCode:      in.ZipCode,
		Country:      in.Country,
		IsActive:     true,
	}

	err = s.users.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		if err := repo.Create(ctx, user); err != nil {
			return conflictOnDuplicate(err, ErrEmailTaken.Error())
		}
		role, err := s.roles.FindByName(ctx, access.RoleMember)
		if err != nil {
			return fmt.Errorf("find default role: %w", err)
		}
		if err := repo.AttachRole(ctx, user.ID, role); err != nil {
			return fmt.Errorf("attach default role: %w", err)
		}
		user.Roles = []model.Role{*role}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Login authenticates a user and returns a fresh token pair.
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, *auth.TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, ErrAccountInactive
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	storedUserID, storedEmail, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	if storedUserID != claims.UserID || storedEmail != claims.Email {
		return nil, ErrInvalidRefreshToken
	}
	if err := s.tokenStore.DeleteRefreshToken(ctx, claims.ID); err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	return s.issue(ctx, user)
}

// Logout revokes the current access token and, when given, the refresh token.
func (s *authService) Logout(ctx context.Context, accessClaims *auth.Claims, refreshToken string) error {
	if accessClaims == nil {
		return apperrors.ErrUnauthenticated
	}
	if err := s.tokenStore.BlacklistAccessToken(ctx, accessClaims.ID, s.jwtService.RemainingTTL(accessClaims)); err != nil {
		return fmt.Errorf("blacklist access token: %w", err)
	}
	if refreshToken == "" {
		return nil
	}

	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil || claims.UserID != accessClaims.UserID {
		return ErrInvalidRefreshToken
	}
	return s.tokenStore.DeleteRefreshToken(ctx, claims.ID)
}

// Me returns the user with roles, permissions and ministries loaded.
func (s *authService) Me(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.users.FindWithGraph(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

func (s *authService) issue(ctx context.Context, user *model.User) (*auth.TokenPair, error) {
	pair, err := s.jwtService.GeneratePair(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}
	if err := s.tokenStore.StoreRefreshToken(ctx, pair.RefreshTokenID, user.ID, user.Email, s.jwtService.RefreshTTL()); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return pair, nil
}
