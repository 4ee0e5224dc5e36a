package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestSignAndParseToken(t *testing.T) {
	signed, err := signToken(SubjectOrganization, "acme", UseAccess, testSecret, 15*time.Minute)
	if err != nil {
		t.Fatalf("signToken: %v", err)
	}

	claims, err := parseToken(signed, testSecret)
	if err != nil {
		t.Fatalf("parseToken: %v", err)
	}

	if claims.Subject != "acme" {
		t.Errorf("subject = %q, want acme", claims.Subject)
	}
	if claims.SubjectKind != SubjectOrganization {
		t.Errorf("sub_type = %q, want org", claims.SubjectKind)
	}
	if claims.TokenUse != UseAccess {
		t.Errorf("token_type = %q, want access", claims.TokenUse)
	}
	if claims.ID == "" {
		t.Error("jti missing")
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	signed, err := signToken(SubjectBranch, "acme-north", UseRefresh, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("signToken: %v", err)
	}

	_, err = parseToken(signed, "a-completely-different-secret")
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("error = %v, want ErrTokenInvalid", err)
	}
}

func TestParseTokenExpired(t *testing.T) {
	signed, err := signToken(SubjectOrganization, "acme", UseAccess, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("signToken: %v", err)
	}

	_, err = parseToken(signed, testSecret)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("error = %v, want ErrTokenExpired", err)
	}
}

func TestParseTokenMissingExpiry(t *testing.T) {
	// A secret holder could mint a token without exp; it must be
	// rejected, not treated as never-expiring.
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  "acme",
			IssuedAt: jwt.NewNumericDate(time.Now()),
			ID:       uuid.NewString(),
		},
		SubjectKind: SubjectOrganization,
		TokenUse:    UseRefresh,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	if _, err := parseToken(signed, testSecret); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("error = %v, want ErrTokenInvalid", err)
	}
}

func TestParseTokenGarbage(t *testing.T) {
	for _, raw := range []string{"", "garbage", "a.b.c"} {
		if _, err := parseToken(raw, testSecret); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("parseToken(%q) error = %v, want ErrTokenInvalid", raw, err)
		}
	}
}

func TestTokenJTIsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		signed, err := signToken(SubjectOrganization, "acme", UseAccess, testSecret, time.Minute)
		if err != nil {
			t.Fatalf("signToken: %v", err)
		}
		claims, err := parseToken(signed, testSecret)
		if err != nil {
			t.Fatalf("parseToken: %v", err)
		}
		if seen[claims.ID] {
			t.Fatalf("duplicate jti %s", claims.ID)
		}
		seen[claims.ID] = true
	}
}
