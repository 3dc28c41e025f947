package auth

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ServiceTokenTTL   = 5 * time.Minute
	ServiceTokenScope = "agent:use"
)

// ServiceTokenSigner mints short-lived RS256 tokens that authenticate this
// service to the analysis agent. There is no refresh variant.
type ServiceTokenSigner struct {
	key      *rsa.PrivateKey
	issuer   string
	audience string
	now      func() time.Time
}

// NewServiceTokenSigner parses a PEM encoded RSA private key (PKCS#1 or PKCS#8).
func NewServiceTokenSigner(keyPEM []byte, issuer string, audience string) (*ServiceTokenSigner, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(keyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse service token key: %w", err)
	}

	return &ServiceTokenSigner{
		key:      key,
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}, nil
}

type serviceClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

func (s *ServiceTokenSigner) Sign() (string, error) {
	now := s.now().UTC()
	claims := serviceClaims{
		Scope: ServiceTokenScope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   s.issuer + "-service",
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ServiceTokenTTL)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign service token: %w", err)
	}
	return signed, nil
}
