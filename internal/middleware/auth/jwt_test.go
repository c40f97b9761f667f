package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	tokenString, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return tokenString
}

func validClaims(userID interface{}) jwt.MapClaims {
	return jwt.MapClaims{
		"userId": userID,
		"email":  "test@example.com",
		"exp":    time.Now().Add(time.Hour).Unix(),
		"iat":    time.Now().Unix(),
	}
}

// serve runs the middleware in front of a handler that echoes the caller
func serve(t *testing.T, config JWTConfig, authHeader string) (*httptest.ResponseRecorder, *AuthUser, error) {
	t.Helper()

	e := echo.New()
	var seen *AuthUser
	handler := JWTMiddleware(config)(func(c echo.Context) error {
		user, err := GetUserFromContext(c)
		require.NoError(t, err)
		seen = user
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	req := httptest.NewRequest(http.MethodGet, "/usage/user", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()

	err := handler(e.NewContext(req, rec))
	return rec, seen, err
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestJWTMiddleware_SuccessfulAuthentication(t *testing.T) {
	config := JWTConfig{Secret: testSecret, Logger: zap.NewNop()}

	t.Run("numeric claim", func(t *testing.T) {
		token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims(7))

		rec, user, err := serve(t, config, "Bearer "+token)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, user)
		assert.Equal(t, int64(7), user.UserID)
		assert.Equal(t, "test@example.com", user.Email)
	})

	t.Run("numeric string claim", func(t *testing.T) {
		token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims("42"))

		_, user, err := serve(t, config, "Bearer "+token)
		require.NoError(t, err)
		assert.Equal(t, int64(42), user.UserID)
	})

	t.Run("custom claim name", func(t *testing.T) {
		claims := jwt.MapClaims{"uid": 9, "exp": time.Now().Add(time.Hour).Unix()}
		token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), claims)

		_, user, err := serve(t, JWTConfig{Secret: testSecret, UserClaim: "uid", Logger: zap.NewNop()}, "Bearer "+token)
		require.NoError(t, err)
		assert.Equal(t, int64(9), user.UserID)
	})
}

func TestJWTMiddleware_Rejections(t *testing.T) {
	config := JWTConfig{Secret: testSecret, Logger: zap.NewNop()}

	expired := validClaims(7)
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	noUser := validClaims(7)
	delete(noUser, "userId")

	tests := []struct {
		name   string
		header func(t *testing.T) string
	}{
		{"missing header", func(t *testing.T) string { return "" }},
		{"not a bearer token", func(t *testing.T) string {
			return "Basic dXNlcjpwYXNz"
		}},
		{"garbage token", func(t *testing.T) string { return "Bearer not-a-jwt" }},
		{"wrong secret", func(t *testing.T) string {
			return "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other-secret"), validClaims(7))
		}},
		{"other HMAC algorithm", func(t *testing.T) string {
			return "Bearer " + signToken(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims(7))
		}},
		{"unsigned token", func(t *testing.T) string {
			return "Bearer " + signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, validClaims(7))
		}},
		{"expired token", func(t *testing.T) string {
			return "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), expired)
		}},
		{"missing user claim", func(t *testing.T) string {
			return "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), noUser)
		}},
		{"non numeric user claim", func(t *testing.T) string {
			return "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims("abc"))
		}},
		{"fractional user claim", func(t *testing.T) string {
			return "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims(1.5))
		}},
		{"zero user claim", func(t *testing.T) string {
			return "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims(0))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, user, err := serve(t, config, tt.header(t))
			assertUnauthorized(t, err)
			assert.Nil(t, user)
			assert.Equal(t, http.StatusOK, rec.Code) // nothing written by the middleware itself
		})
	}
}

func TestJWTMiddleware_SkipPaths(t *testing.T) {
	config := JWTConfig{Secret: testSecret, Logger: zap.NewNop(), SkipPaths: []string{"/health"}}

	e := echo.New()
	handler := JWTMiddleware(config)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/subscription", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	_, err := RequireAuth(c)
	assertUnauthorized(t, err)

	c.SetRequest(req.WithContext(WithUser(req.Context(), &AuthUser{UserID: 7})))
	user, err := RequireAuth(c)
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.UserID)
}
