// Package token issues and validates the signed, expiring claim sets used
// for sessions. Tokens are HS256 JWTs signed with a process-wide secret that
// is injected at construction time, never read from ambient state.
package token

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"edureview/pkg/domain"
)

// ErrInvalidToken is the single failure returned for any rejected token:
// bad signature, expired, wrong type, or malformed. Callers never learn the
// sub-reason, which prevents oracle-probing why a token was rejected.
var ErrInvalidToken = errors.New("invalid token")

// Type distinguishes access tokens from refresh tokens. The type field is
// authoritative: a token of one type is never accepted where the other is
// required.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

const (
	defaultIssuer   = "edureview-auth"
	defaultAudience = "edureview-api"
)

var defaultLeeway = 30 * time.Second

// Claims is the signed payload inside a token. A new claims set is created
// on every issuance; claims are never mutated after signing.
type Claims struct {
	Role domain.UserRole `json:"role,omitempty"`
	Type Type            `json:"type"`
	jwt.RegisteredClaims
}

// Options configures claim validation behavior.
type Options struct {
	Issuer   string
	Audience string
	Leeway   time.Duration
}

// Codec encodes and decodes typed session tokens.
type Codec struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
}

// NewCodec builds a codec around the shared signing secret.
func NewCodec(secret string, opts Options) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token signing secret required")
	}
	opts = normalizeOptions(opts)
	return &Codec{
		secret:   []byte(secret),
		issuer:   opts.Issuer,
		audience: opts.Audience,
		leeway:   opts.Leeway,
	}, nil
}

// Issue signs a new claims set for the subject with the given type and TTL.
func (c *Codec) Issue(subject string, role domain.UserRole, typ Type, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Role: role,
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        randomHexID(12),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies signature, expiry, and token type, returning the claims.
// A token without an exp claim is rejected, so callers may rely on
// ExpiresAt being set. Any failure collapses to ErrInvalidToken.
func (c *Codec) Decode(token string, expected Type) (Claims, error) {
	claims := Claims{}
	token = strings.TrimSpace(token)
	if token == "" {
		return claims, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(c.leeway),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Type != expected {
		return Claims{}, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" || strings.TrimSpace(claims.ID) == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func normalizeOptions(opts Options) Options {
	opts.Issuer = strings.TrimSpace(opts.Issuer)
	opts.Audience = strings.TrimSpace(opts.Audience)
	if opts.Issuer == "" {
		opts.Issuer = defaultIssuer
	}
	if opts.Audience == "" {
		opts.Audience = defaultAudience
	}
	if opts.Leeway <= 0 {
		opts.Leeway = defaultLeeway
	}
	return opts
}
