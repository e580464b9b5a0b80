package middleware

import (
	"context"
	"errors"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"churchadmin/internal/access"
	"churchadmin/internal/auth"
	apperrors "churchadmin/internal/errors"
)

// ClaimsKey is the echo context key holding the validated *auth.Claims.
const ClaimsKey = "claims"

var errTokenRevoked = errors.New("token has been revoked")

// IdentityLoader resolves the role/permission graph of a user.
type IdentityLoader interface {
	Load(ctx context.Context, userID uint) (*access.Identity, error)
}

// RevocationChecker reports whether an access token id was revoked on logout.
type RevocationChecker interface {
	IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

// Authenticate validates the bearer access token, rejects revoked tokens and
// attaches the caller's identity to the request context.
func Authenticate(jwtService *auth.JWTService, revocations RevocationChecker, identities IdentityLoader) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		ContextKey: ClaimsKey,
		ParseTokenFunc: func(c echo.Context, raw string) (interface{}, error) {
			claims, err := jwtService.ValidateAccessToken(raw)
			if err != nil {
				return nil, err
			}
			revoked, err := revocations.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID)
			if err != nil {
				return nil, err
			}
			if revoked {
				return nil, errTokenRevoked
			}
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if errors.Is(err, errTokenRevoked) {
				return apperrors.Unauthenticated(errTokenRevoked.Error())
			}
			return apperrors.Unauthenticated("unauthenticated")
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(func(c echo.Context) error {
			claims := Claims(c)
			if claims == nil {
				return apperrors.ErrUnauthenticated
			}
			id, err := identities.Load(c.Request().Context(), claims.UserID)
			if err != nil {
				return err
			}
			ctx := access.WithIdentity(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		})
	}
}

// Claims returns the validated token claims, or nil on public routes.
func Claims(c echo.Context) *auth.Claims {
	claims, _ := c.Get(ClaimsKey).(*auth.Claims)
	return claims
}

// Identity returns the identity attached by Authenticate, or nil.
func Identity(c echo.Context) *access.Identity {
	return access.FromContext(c.Request().Context())
}
