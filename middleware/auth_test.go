package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tabroom/models"
)

const secret = "test-secret"

func sign(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func protected() http.Handler {
	auth := NewAuthenticator(secret, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := GetUserIDFromContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return auth.Authenticate(Authorize(models.RoleTabDirector, models.RoleAdmin)(ok))
}

func TestAuthenticateAndAuthorize(t *testing.T) {
	future := time.Now().Add(time.Hour).Unix()
	past := time.Now().Add(-time.Hour).Unix()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"wrong key", "Bearer " + sign(t, "other", jwt.MapClaims{"user_id": 1, "role": "admin", "exp": future}), http.StatusUnauthorized},
		{"expired", "Bearer " + sign(t, secret, jwt.MapClaims{"user_id": 1, "role": "admin", "exp": past}), http.StatusUnauthorized},
		{"observer", "Bearer " + sign(t, secret, jwt.MapClaims{"user_id": 1, "role": "observer", "exp": future}), http.StatusForbidden},
		{"unknown role", "Bearer " + sign(t, secret, jwt.MapClaims{"user_id": 1, "role": "captain", "exp": future}), http.StatusForbidden},
		{"tab director", "Bearer " + sign(t, secret, jwt.MapClaims{"user_id": 3, "role": "tab_director", "exp": future}), http.StatusOK},
		{"admin", "bearer " + sign(t, secret, jwt.MapClaims{"user_id": 4, "role": "admin"}), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/tournaments/1/rounds/1/draw", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected().ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestGetUserIDFromContext(t *testing.T) {
	_, err := GetUserIDFromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoClaims)

	id, err := GetUserIDFromContext(WithClaims(context.Background(), jwt.MapClaims{"user_id": float64(7)}))
	require.NoError(t, err)
	assert.Equal(t, 7, id)

	id, err = GetUserIDFromContext(WithClaims(context.Background(), jwt.MapClaims{"user_id": "12"}))
	require.NoError(t, err)
	assert.Equal(t, 12, id)

	_, err = GetUserIDFromContext(WithClaims(context.Background(), jwt.MapClaims{"user_id": 1.5}))
	assert.Error(t, err)
	_, err = GetUserIDFromContext(WithClaims(context.Background(), jwt.MapClaims{"user_id": float64(-2)}))
	assert.Error(t, err)
}

func TestGetUserRoleFromContext(t *testing.T) {
	role, err := GetUserRoleFromContext(WithClaims(context.Background(), jwt.MapClaims{"role": "tab_director"}))
	require.NoError(t, err)
	assert.Equal(t, models.RoleTabDirector, role)

	_, err = GetUserRoleFromContext(WithClaims(context.Background(), jwt.MapClaims{"role": 3}))
	assert.Error(t, err)
}
