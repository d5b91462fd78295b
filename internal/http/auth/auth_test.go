package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/benefits/internal/http/auth"
	"github.com/MrJamesThe3rd/benefits/internal/transaction"
)

const secret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key any, claims auth.Claims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)

	return token
}

func claims(sub, role string, exp time.Time) auth.Claims {
	return auth.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
}

func TestAuthenticator_Verify(t *testing.T) {
	a := auth.New(secret)
	later := time.Now().Add(time.Hour)

	tests := []struct {
		name    string
		token   string
		want    transaction.Actor
		wantErr error
	}{
		{
			name:  "admin",
			token: sign(t, jwt.SigningMethodHS256, []byte(secret), claims("u-1", "admin", later)),
			want:  transaction.Actor{ID: "u-1", Role: transaction.RoleAdmin},
		},
		{
			name:    "expired",
			token:   sign(t, jwt.SigningMethodHS256, []byte(secret), claims("u-1", "admin", time.Now().Add(-time.Minute))),
			wantErr: auth.ErrExpiredToken,
		},
		{
			name:    "wrong secret",
			token:   sign(t, jwt.SigningMethodHS256, []byte("other"), claims("u-1", "admin", later)),
			wantErr: auth.ErrInvalidToken,
		},
		{
			name:    "other algorithm",
			token:   sign(t, jwt.SigningMethodHS512, []byte(secret), claims("u-1", "admin", later)),
			wantErr: auth.ErrInvalidToken,
		},
		{
			name:    "unknown role",
			token:   sign(t, jwt.SigningMethodHS256, []byte(secret), claims("u-1", "root", later)),
			wantErr: auth.ErrInvalidToken,
		},
		{
			name:    "missing subject",
			token:   sign(t, jwt.SigningMethodHS256, []byte(secret), claims("", "staff", later)),
			wantErr: auth.ErrInvalidToken,
		},
		{
			name:    "garbage",
			token:   "not-a-token",
			wantErr: auth.ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Verify(tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMiddleware(t *testing.T) {
	a := auth.New(secret)
	token := sign(t, jwt.SigningMethodHS256, []byte(secret), claims("u-2", "staff", time.Now().Add(time.Hour)))

	var seen transaction.Actor

	h := a.Middleware(auth.RequireRole(transaction.RoleStaff, transaction.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.ActorFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	t.Run("header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "u-2", seen.ID)
	})

	t.Run("query", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?token="+token, nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"missing bearer token"}`, w.Body.String())
	})

	t.Run("role", func(t *testing.T) {
		customer := sign(t, jwt.SigningMethodHS256, []byte(secret), claims("c-1", "customer", time.Now().Add(time.Hour)))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+customer)
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
