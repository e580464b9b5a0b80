package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"churchadmin/internal/access"
	"churchadmin/internal/cache"
	apperrors "churchadmin/internal/errors"
	"churchadmin/internal/repository"
)

const (
	identityKeyPrefix  = "identity:"
	defaultIdentityTTL = time.Minute
)

// IdentityService resolves the role/permission graph of an acting user.
type IdentityService interface {
	Load(ctx context.Context, userID uint) (*access.Identity, error)
	Invalidate(ctx context.Context, userID uint)
}

type identityService struct {
	users repository.UserRepository
	cache *cache.Client
	ttl   time.Duration
}

// NewIdentityService creates an identity loader backed by the user repository
// and a short-lived Redis cache.
func NewIdentityService(users repository.UserRepository, cache *cache.Client, ttl time.Duration) IdentityService {
	if ttl <= 0 {
		ttl = defaultIdentityTTL
	}
	return &identityService{users: users, cache: cache, ttl: ttl}
}

type cachedIdentity struct {
	UserID   uint               `json:"user_id"`
	Email    string             `json:"email"`
	IsActive bool               `json:"is_active"`
	Roles    []access.RoleGrant `json:"roles"`
}

func identityKey(userID uint) string {
	return identityKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}

// Load returns the identity for userID. Inactive or deleted users are
// reported as unauthenticated.
func (s *identityService) Load(ctx context.Context, userID uint) (*access.Identity, error) {
	var graph cachedIdentity
	if !s.cache.GetJSON(ctx, identityKey(userID), &graph) {
		user, err := s.users.FindWithGraph(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.Unauthenticated("user no longer exists")
			}
			return nil, fmt.Errorf("load identity: %w", err)
		}
		graph = cachedIdentity{UserID: user.ID, Email: user.Email, IsActive: user.IsActive}
		for _, role := range user.Roles {
			grant := access.RoleGrant{Name: role.Name}
			for _, p := range role.Permissions {
				grant.Permissions = append(grant.Permissions, p.Name)
			}
			graph.Roles = append(graph.Roles, grant)
		}
		_ = s.cache.SetJSON(ctx, identityKey(userID), graph, s.ttl)
	}

	if !graph.IsActive {
		return nil, apperrors.Unauthenticated("account is inactive")
	}
	return access.NewIdentity(graph.UserID, graph.Email, graph.Roles), nil
}

// Invalidate drops the cached graph so the next request reloads it.
func (s *identityService) Invalidate(ctx context.Context, userID uint) {
	_ = s.cache.Delete(ctx, identityKey(userID))
}
