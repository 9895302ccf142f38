// Package middleware carries the HTTP middleware shared by all routes.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/docledger/docledger/internal/authority"
)

type contextKey struct{}

var actorKey contextKey

type claims struct {
	Role  string `json:"role"`
	OrgID string `json:"org_id"`
	jwt.RegisteredClaims
}

// Auth validates the bearer token and puts the authenticated actor into
// the request context. Tokens are HS256 with subject = user id plus role
// and org_id claims.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			actor, err := parseToken(token, secret)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
		})
	}
}

func parseToken(raw, secret string) (authority.Actor, error) {
	var c claims

	token, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return authority.Actor{}, err
	}

	if !token.Valid {
		return authority.Actor{}, fmt.Errorf("token is not valid")
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return authority.Actor{}, fmt.Errorf("parsing subject: %w", err)
	}

	orgID, err := uuid.Parse(c.OrgID)
	if err != nil {
		return authority.Actor{}, fmt.Errorf("parsing org_id: %w", err)
	}

	role := authority.Role(c.Role)
	if !role.Valid() {
		return authority.Actor{}, fmt.Errorf("unknown role %q", c.Role)
	}

	return authority.Actor{ID: userID, Role: role, OrgID: orgID}, nil
}

// ActorFromContext returns the authenticated actor. Handlers behind the
// Auth middleware can rely on the second return being true.
func ActorFromContext(ctx context.Context) (authority.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(authority.Actor)
	return actor, ok
}
