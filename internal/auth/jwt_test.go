package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/example/farescout/internal/auth"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, role string, expiry time.Duration) string {
	t.Helper()
	claims := auth.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "rider-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func protected(t *testing.T, roles ...string) http.Handler {
	t.Helper()
	return auth.Middleware(testSecret, roles...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, "rider-1", claims.Subject)
		w.WriteHeader(http.StatusOK)
	}))
}

func TestMiddlewareAcceptsValidToken(t *testing.T) {
	h := protected(t, "rider")
	req := httptest.NewRequest(http.MethodPost, "/v1/quotes/compare", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "rider", time.Hour))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	h := protected(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/quotes/compare", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareRejectsBadSignature(t *testing.T) {
	h := protected(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/quotes/compare", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "wrong-secret", "rider", time.Hour))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareRejectsExpiredToken(t *testing.T) {
	h := protected(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/quotes/compare", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "rider", -time.Minute))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareEnforcesRoles(t *testing.T) {
	h := protected(t, "admin")
	req := httptest.NewRequest(http.MethodPost, "/v1/quotes/compare", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "rider", time.Hour))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
