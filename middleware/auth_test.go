package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, sub string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func echoUserHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := r.Context().Value(UserIDKey).(string)
		w.Write([]byte(userID))
	})
}

func TestAuthMiddlewareValidBearerToken(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	req := httptest.NewRequest(http.MethodGet, "/api/mycontacts", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "user-u"))
	rec := httptest.NewRecorder()

	AuthMiddleware(echoUserHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-u", rec.Body.String())
}

func TestAuthMiddlewareQueryTokenFallback(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+signToken(t, testSecret, "user-u"), nil)
	rec := httptest.NewRecorder()

	AuthMiddleware(echoUserHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-u", rec.Body.String())
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	req := httptest.NewRequest(http.MethodGet, "/api/mycontacts", nil)
	rec := httptest.NewRecorder()

	AuthMiddleware(echoUserHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	req := httptest.NewRequest(http.MethodGet, "/api/mycontacts", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", "user-u"))
	rec := httptest.NewRecorder()

	AuthMiddleware(echoUserHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareMissingSubClaim(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/mycontacts", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()

	AuthMiddleware(echoUserHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
