package middleware

import (
	"context"
	"net/http"
	"strings"

	"crowdpulse-api/internal/auth"
	"crowdpulse-api/pkg/apierror"
)

// TokenVerifier checks a token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

type contextKey string

const identityContextKey contextKey = "auth_identity"

// AuthGuard authenticates a request from its bearer header or accessToken
// cookie and, when minRole is set, enforces a minimum role. A guard holds no
// mutable state and is built once per route.
type AuthGuard struct {
	verifier TokenVerifier
	minRole  auth.Role
}

func NewAuthGuard(verifier TokenVerifier) AuthGuard {
	return AuthGuard{verifier: verifier}
}

// WithMinRole returns a copy of g that also requires role or higher.
func (g AuthGuard) WithMinRole(role auth.Role) AuthGuard {
	g.minRole = role
	return g
}

// Evaluate runs the guard against r without writing a response.
func (g AuthGuard) Evaluate(r *http.Request) (auth.Identity, error) {
	token, ok := extractToken(r)
	if !ok || token == "" {
		return auth.Identity{}, apierror.Unauthorized("missing access token")
	}

	claims, err := g.verifier.Verify(token)
	if err != nil || (claims.Kind != "" && claims.Kind != auth.KindAccess) {
		return auth.Identity{}, apierror.Unauthorized("invalid access token")
	}

	if !claims.HasIdentity() {
		return auth.Identity{}, apierror.Unauthorized("malformed access token payload")
	}

	identity := auth.IdentityFromClaims(claims)

	if g.minRole != "" {
		if !identity.Role.Valid() {
			return auth.Identity{}, apierror.Forbidden("invalid user role")
		}
		if !identity.Role.Satisfies(g.minRole) {
			return auth.Identity{}, apierror.Forbidden("insufficient role")
		}
	}

	return identity, nil
}

func (g AuthGuard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := g.Evaluate(r)
		if err != nil {
			writeAPIError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(auth.Identity)
	return identity, ok
}

// WithIdentity stores identity in ctx the way Handler does.
func WithIdentity(ctx context.Context, identity auth.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// extractToken prefers a Bearer Authorization header. The accessToken cookie
// is consulted only when no Bearer header was sent.
func extractToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:]), true
	}

	cookies := auth.ExtractAuthCookies(r.Header.Get("Cookie"))
	if cookies.HasAccess {
		return strings.TrimSpace(cookies.AccessToken), true
	}

	return "", false
}
