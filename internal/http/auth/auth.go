// Package auth verifies bearer tokens and puts the calling actor on the
// request context. Tokens are issued elsewhere.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/benefits/internal/http/render"
	"github.com/MrJamesThe3rd/benefits/internal/notify"
	"github.com/MrJamesThe3rd/benefits/internal/transaction"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims carries the actor id in sub and its access level in role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

type Authenticator struct {
	secret []byte
}

func New(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Verify parses an HS256 token and returns the actor it names.
func (a *Authenticator) Verify(token string) (transaction.Actor, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return transaction.Actor{}, ErrExpiredToken
		}

		return transaction.Actor{}, ErrInvalidToken
	}

	role := transaction.Role(claims.Role)

	switch role {
	case transaction.RoleAdmin, transaction.RoleStaff, transaction.RoleCustomer:
	default:
		return transaction.Actor{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}

	if claims.Subject == "" {
		return transaction.Actor{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return transaction.Actor{ID: claims.Subject, Role: role}, nil
}

// Middleware rejects requests without a valid bearer token. Browsers cannot
// set headers on WebSocket upgrades, so a token query parameter is accepted too.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			render.Fail(w, http.StatusUnauthorized, ErrMissingToken.Error())
			return
		}

		actor, err := a.Verify(token)
		if err != nil {
			render.Fail(w, http.StatusUnauthorized, err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// RequireRole lets through only actors with one of roles.
func RequireRole(roles ...transaction.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFrom(r.Context())
			if !ok {
				render.Fail(w, http.StatusUnauthorized, ErrMissingToken.Error())
				return
			}

			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			render.Fail(w, http.StatusForbidden, transaction.ErrForbidden.Error())
		})
	}
}

// ScopeNotifications pins a customer's notification subscription to their
// own events. Other roles may subscribe to any customer.
func ScopeNotifications(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok {
			render.Fail(w, http.StatusUnauthorized, ErrMissingToken.Error())
			return
		}

		if actor.Role != transaction.RoleCustomer {
			next.ServeHTTP(w, r)
			return
		}

		customerID, err := uuid.Parse(actor.ID)
		if err != nil {
			render.Fail(w, http.StatusForbidden, transaction.ErrForbidden.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(notify.WithCustomerScope(r.Context(), customerID)))
	})
}

func WithActor(ctx context.Context, actor transaction.Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

func ActorFrom(ctx context.Context) (transaction.Actor, bool) {
	actor, ok := ctx.Value(ctxKey{}).(transaction.Actor)
	return actor, ok
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok {
			return ""
		}

		return strings.TrimSpace(token)
	}

	return r.URL.Query().Get("token")
}
