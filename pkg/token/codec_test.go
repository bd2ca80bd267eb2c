package token

import (
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"edureview/pkg/domain"
)

func newTestCodec(t *testing.T, secret string) *Codec {
	t.Helper()
	c, err := NewCodec(secret, Options{Leeway: time.Second})
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return c
}

func TestCodecRoundTrip(t *testing.T) {
	c := newTestCodec(t, "test-secret")

	raw, err := c.Issue("user-1", domain.RoleRecruiter, TypeAccess, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := c.Decode(raw, TypeAccess)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("unexpected subject: %q", claims.Subject)
	}
	if claims.Role != domain.RoleRecruiter {
		t.Fatalf("unexpected role: %q", claims.Role)
	}
	if claims.Type != TypeAccess {
		t.Fatalf("unexpected type: %q", claims.Type)
	}
}

func TestCodecRejectsWrongType(t *testing.T) {
	c := newTestCodec(t, "test-secret")

	access, err := c.Issue("user-2", domain.RoleUser, TypeAccess, time.Minute)
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	if _, err := c.Decode(access, TypeRefresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected access token to fail refresh decode, got: %v", err)
	}

	refresh, err := c.Issue("user-2", domain.RoleUser, TypeRefresh, time.Minute)
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	if _, err := c.Decode(refresh, TypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected refresh token to fail access decode, got: %v", err)
	}
}

func TestCodecRejectsExpiredToken(t *testing.T) {
	c := newTestCodec(t, "test-secret")

	raw, err := c.Issue("user-3", domain.RoleUser, TypeAccess, -time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := c.Decode(raw, TypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got: %v", err)
	}
}

func TestCodecRejectsForeignSecret(t *testing.T) {
	signer := newTestCodec(t, "secret-a")
	verifier := newTestCodec(t, "secret-b")

	raw, err := signer.Issue("user-4", domain.RoleUser, TypeAccess, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Decode(raw, TypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected foreign-secret token to fail, got: %v", err)
	}
}

func TestCodecRejectsMalformedToken(t *testing.T) {
	c := newTestCodec(t, "test-secret")
	for _, raw := range []string{"", "garbage", "a.b.c"} {
		if _, err := c.Decode(raw, TypeAccess); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected malformed token %q to fail, got: %v", raw, err)
		}
	}
}

func TestCodecRejectsTokenWithoutExpiry(t *testing.T) {
	c := newTestCodec(t, "test-secret")

	// Signed with the right secret but missing exp entirely.
	now := time.Now().UTC()
	claims := Claims{
		Role: domain.RoleUser,
		Type: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-5",
			Issuer:    defaultIssuer,
			Audience:  jwt.ClaimStrings{defaultAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        "no-expiry-token",
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := c.Decode(raw, TypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected token without exp to fail, got: %v", err)
	}
}

func TestNewCodecRequiresSecret(t *testing.T) {
	if _, err := NewCodec("  ", Options{}); err == nil {
		t.Fatalf("expected empty secret to be rejected")
	}
}
