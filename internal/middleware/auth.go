package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/swfilms/swfilms-go/internal/crypto"
	"github.com/swfilms/swfilms-go/internal/model"
)

type contextKey string

const claimsKey contextKey = "claims"

type policyKind int

const (
	policyPublic policyKind = iota
	policyAuthenticated
	policyRequiresRole
)

// Policy is the access rule attached to a route.
type Policy struct {
	kind  policyKind
	roles []model.Role
}

// Public lets every request through.
func Public() Policy {
	return Policy{kind: policyPublic}
}

// Authenticated requires a valid, unexpired bearer token.
func Authenticated() Policy {
	return Policy{kind: policyAuthenticated}
}

// RequiresRole requires a valid token whose role is one of roles.
func RequiresRole(roles ...model.Role) Policy {
	return Policy{kind: policyRequiresRole, roles: roles}
}

// TokenValidator verifies a bearer token and returns its claims.
type TokenValidator interface {
	Validate(token string) (*crypto.Claims, error)
}

// Gate enforces route policies. Authentication runs before
// authorization: a bad token is 401 even on a route the role could not
// reach anyway.
type Gate struct {
	tokens TokenValidator
}

// NewGate creates a Gate that verifies tokens with tokens.
func NewGate(tokens TokenValidator) *Gate {
	return &Gate{tokens: tokens}
}

// Require returns middleware enforcing p.
func (g *Gate) Require(p Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if p.kind == policyPublic {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, msg := g.authenticate(r)
			if claims == nil {
				writeJSONError(w, http.StatusUnauthorized, msg)
				return
			}

			if p.kind == policyRequiresRole && !slices.Contains(p.roles, claims.Role) {
				writeJSONError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (g *Gate) authenticate(r *http.Request) (*crypto.Claims, string) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if authHeader == "" {
		return nil, "missing authorization header"
	}

	token, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		return nil, "invalid authorization format"
	}

	claims, err := g.tokens.Validate(strings.TrimSpace(token))
	if err != nil {
		return nil, "invalid or expired token"
	}

	return claims, ""
}

// ClaimsFromContext returns the verified claims placed by Gate.
func ClaimsFromContext(ctx context.Context) (*crypto.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*crypto.Claims)
	return claims, ok
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
