package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func protectedEndpoint(mw *AuthMiddleware, requireAdmin bool) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	if requireAdmin {
		return mw.Authenticate(mw.RequireAdmin(inner))
	}
	return mw.Authenticate(inner)
}

func TestAuthenticate_ValidToken(t *testing.T) {
	mw := NewAuthMiddleware(testSecret)
	token := signToken(t, jwt.MapClaims{
		"user_id": uuid.NewString(),
		"role":    "admin",
		"exp":     float64(time.Now().Add(time.Hour).Unix()),
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	protectedEndpoint(mw, false).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticate_Rejections(t *testing.T) {
	mw := NewAuthMiddleware(testSecret)
	endpoint := protectedEndpoint(mw, false)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"malformed header", "Token abc"},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			endpoint.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	mw := NewAuthMiddleware(testSecret)
	token := signToken(t, jwt.MapClaims{
		"user_id": uuid.NewString(),
		"exp":     float64(time.Now().Add(-time.Hour).Unix()),
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	protectedEndpoint(mw, false).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	mw := NewAuthMiddleware("different-secret")
	token := signToken(t, jwt.MapClaims{
		"user_id": uuid.NewString(),
		"exp":     float64(time.Now().Add(time.Hour).Unix()),
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	protectedEndpoint(mw, false).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	mw := NewAuthMiddleware(testSecret)
	endpoint := protectedEndpoint(mw, true)

	adminToken := signToken(t, jwt.MapClaims{
		"user_id": uuid.NewString(),
		"role":    "admin",
		"exp":     float64(time.Now().Add(time.Hour).Unix()),
	})
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w := httptest.NewRecorder()
	endpoint.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	userToken := signToken(t, jwt.MapClaims{
		"user_id": uuid.NewString(),
		"role":    "support",
		"exp":     float64(time.Now().Add(time.Hour).Unix()),
	})
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	w = httptest.NewRecorder()
	endpoint.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	noRoleToken := signToken(t, jwt.MapClaims{
		"user_id": uuid.NewString(),
		"exp":     float64(time.Now().Add(time.Hour).Unix()),
	})
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+noRoleToken)
	w = httptest.NewRecorder()
	endpoint.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
