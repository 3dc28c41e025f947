package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenInvalid covers bad signatures, malformed tokens and unexpected
	// algorithms.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired is returned for a well-formed, correctly signed token
	// whose expiry has passed.
	ErrTokenExpired = errors.New("token expired")
)

// TokenKind distinguishes short-lived access tokens from refresh tokens.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

const (
	claimSubject   = "sub"
	claimEmail     = "email"
	claimRole      = "role"
	claimKind      = "typ"
	claimTokenID   = "jti"
	claimIssuedAt  = "iat"
	claimExpiresAt = "exp"
)

var reservedClaims = map[string]struct{}{
	claimSubject:   {},
	claimEmail:     {},
	claimRole:      {},
	claimKind:      {},
	claimTokenID:   {},
	claimIssuedAt:  {},
	claimExpiresAt: {},
}

// Claims is the payload carried by session tokens. Subject, Email, Role and
// Kind are the claims the service relies on; anything else rides in Extra.
type Claims struct {
	Subject   string
	Email     string
	Role      Role
	Kind      TokenKind
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Extra     map[string]any
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithClock replaces the wall clock used to stamp and validate tokens.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// Codec issues and verifies HS256 session tokens with a server-held secret.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret string, opts ...CodecOption) *Codec {
	c := &Codec{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue signs claims with an expiry of now+ttl.
func (c *Codec) Issue(claims Claims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	now := c.now().UTC()
	mapClaims := jwt.MapClaims{}
	for key, value := range claims.Extra {
		mapClaims[key] = value
	}

	tokenID := claims.TokenID
	if tokenID == "" {
		tokenID = uuid.NewString()
	}

	mapClaims[claimSubject] = claims.Subject
	mapClaims[claimEmail] = claims.Email
	if claims.Role != "" {
		mapClaims[claimRole] = string(claims.Role)
	} else {
		delete(mapClaims, claimRole)
	}
	if claims.Kind != "" {
		mapClaims[claimKind] = string(claims.Kind)
	} else {
		delete(mapClaims, claimKind)
	}
	mapClaims[claimTokenID] = tokenID
	mapClaims[claimIssuedAt] = now.Unix()
	mapClaims[claimExpiresAt] = now.Add(ttl).Unix()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and decodes its claims.
// It fails with ErrTokenExpired or ErrTokenInvalid. Claim values are not
// type-checked here; callers validate the fields they depend on.
func (c *Codec) Verify(token string) (Claims, error) {
	parsed, err := jwt.Parse(strings.TrimSpace(token), func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrTokenInvalid
	}

	return claimsFromMap(mapClaims), nil
}

func claimsFromMap(m jwt.MapClaims) Claims {
	claims := Claims{Extra: map[string]any{}}
	claims.Subject, _ = m[claimSubject].(string)
	claims.Email, _ = m[claimEmail].(string)
	if role, ok := m[claimRole].(string); ok {
		claims.Role = Role(role)
	}
	if kind, ok := m[claimKind].(string); ok {
		claims.Kind = TokenKind(kind)
	}
	claims.TokenID, _ = m[claimTokenID].(string)

	if iat, err := m.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time.UTC()
	}
	if exp, err := m.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time.UTC()
	}

	for key, value := range m {
		if _, reserved := reservedClaims[key]; reserved {
			continue
		}
		claims.Extra[key] = value
	}

	return claims
}

// HasIdentity reports whether the subject and email claims were present as
// non-empty strings.
func (c Claims) HasIdentity() bool {
	return c.Subject != "" && c.Email != ""
}
