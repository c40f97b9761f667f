package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainerrors "github.com/wekeepgrowing/semo-billing/internal/domain/errors"
	apperrors "github.com/wekeepgrowing/semo-billing/pkg/errors"
)

// AuthUser represents an authenticated caller from JWT
type AuthUser struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

// contextKey is used for storing user in context
type contextKey string

const (
	userContextKey contextKey = "authenticated_user"
)

// DefaultUserClaim is the claim holding the caller's user id
const DefaultUserClaim = "userId"

// JWTConfig holds the configuration for JWT middleware
type JWTConfig struct {
	Secret    string
	UserClaim string
	Logger    *zap.Logger
	SkipPaths []string // Paths to skip JWT validation
}

// JWTMiddleware creates a middleware that verifies HS256 bearer tokens and
// stores the caller's user id in the request context
func JWTMiddleware(config JWTConfig) echo.MiddlewareFunc {
	if config.UserClaim == "" {
		config.UserClaim = DefaultUserClaim
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithJSONNumber(),
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Skip JWT validation for certain paths
			path := c.Request().URL.Path
			for _, skipPath := range config.SkipPaths {
				if strings.HasPrefix(path, skipPath) {
					return next(c)
				}
			}

			// Extract token from Authorization header
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				config.Logger.Warn("Missing authorization header",
					zap.String("path", path),
					zap.String("method", c.Request().Method))
				return apperrors.ToHTTPError(domainerrors.NewAuthenticationError("authorization header required", nil))
			}

			// Check Bearer prefix
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				config.Logger.Warn("Invalid authorization header format",
					zap.String("path", path))
				return apperrors.ToHTTPError(domainerrors.NewAuthenticationError("expected: Bearer <token>", nil))
			}

			// Parse and validate JWT token
			claims := jwt.MapClaims{}
			token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				return []byte(config.Secret), nil
			})
			if err != nil || !token.Valid {
				config.Logger.Warn("JWT validation failed",
					zap.Error(err),
					zap.String("path", path))
				return apperrors.ToHTTPError(domainerrors.NewAuthenticationError("invalid or expired token", nil))
			}

			userID, err := userIDFromClaim(claims[config.UserClaim])
			if err != nil {
				config.Logger.Warn("Invalid JWT claims",
					zap.String("claim", config.UserClaim),
					zap.String("path", path),
					zap.Error(err))
				return apperrors.ToHTTPError(domainerrors.NewAuthenticationError("invalid token claims", nil))
			}

			email, _ := claims["email"].(string)
			authUser := &AuthUser{
				UserID: userID,
				Email:  email,
			}

			// Store user in request context
			ctx := context.WithValue(c.Request().Context(), userContextKey, authUser)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("user_id", userID)

			config.Logger.Debug("User authenticated successfully",
				zap.Int64("user_id", userID),
				zap.String("path", path))

			return next(c)
		}
	}
}

// userIDFromClaim accepts a JSON number or a numeric string
func userIDFromClaim(v interface{}) (int64, error) {
	var id int64
	var err error

	switch claim := v.(type) {
	case json.Number:
		id, err = claim.Int64()
	case string:
		id, err = strconv.ParseInt(claim, 10, 64)
	case nil:
		return 0, errors.New("user id claim missing")
	default:
		return 0, fmt.Errorf("unsupported user id claim type %T", v)
	}
	if err != nil {
		return 0, fmt.Errorf("parse user id claim: %w", err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("user id claim must be positive, got %d", id)
	}
	return id, nil
}

// GetUserFromContext extracts the authenticated user from the request context
func GetUserFromContext(c echo.Context) (*AuthUser, error) {
	user, ok := c.Request().Context().Value(userContextKey).(*AuthUser)
	if !ok || user == nil {
		return nil, fmt.Errorf("no authenticated user found in context")
	}
	return user, nil
}

// RequireAuth returns the caller or a 401 error for the handler to return
func RequireAuth(c echo.Context) (*AuthUser, error) {
	user, err := GetUserFromContext(c)
	if err != nil {
		return nil, apperrors.ToHTTPError(domainerrors.NewAuthenticationError("authentication required", err))
	}
	return user, nil
}

// WithUser returns ctx carrying user. Used where requests bypass the middleware.
func WithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
