package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"saldo/internal/core"
	applog "saldo/internal/log"
)

const (
	HeaderUserID      = "X-User-ID"
	HeaderHouseholdID = "X-Household-ID"
)

type scopeKey struct{}

var errNoIdentity = errors.New("missing identity")

// Claims is the bearer token payload: sub is the user, household_id the
// household the request acts on.
type Claims struct {
	HouseholdID string `json:"household_id"`
	jwt.RegisteredClaims
}

// identity resolves the caller's scope. With a secret it verifies HS256
// bearer tokens; without one it trusts the identity headers.
type identity struct {
	secret []byte
}

func newIdentity(secret string) *identity {
	if secret == "" {
		return &identity{}
	}
	return &identity{secret: []byte(secret)}
}

func (id *identity) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope, err := id.resolve(r)
		if err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Request rejected",
				applog.FieldErrorType, applog.ErrorTypeAuth,
				applog.FieldError, err.Error())
			writeErrorMessage(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), scopeKey{}, scope)
		ctx = applog.NewContext(ctx, applog.FromContext(ctx).WithScope(scope.HouseholdID, scope.UserID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (id *identity) resolve(r *http.Request) (core.Scope, error) {
	if id.secret == nil {
		scope := core.Scope{
			HouseholdID: strings.TrimSpace(r.Header.Get(HeaderHouseholdID)),
			UserID:      strings.TrimSpace(r.Header.Get(HeaderUserID)),
		}
		if scope.HouseholdID == "" || scope.UserID == "" {
			return core.Scope{}, errNoIdentity
		}
		return scope, nil
	}

	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return core.Scope{}, errNoIdentity
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &claims, func(t *jwt.Token) (any, error) {
		return id.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return core.Scope{}, err
	}
	if claims.Subject == "" || claims.HouseholdID == "" {
		return core.Scope{}, errNoIdentity
	}
	return core.Scope{HouseholdID: claims.HouseholdID, UserID: claims.Subject}, nil
}

// scopeFrom returns the scope stored by the identity middleware.
func scopeFrom(ctx context.Context) core.Scope {
	scope, _ := ctx.Value(scopeKey{}).(core.Scope)
	return scope
}
