package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClaims extends JWT standard claims with the subject kind and
// token use. Subject carries the subject's slug, not its internal ID.
type TokenClaims struct {
	jwt.RegisteredClaims
	SubjectKind SubjectKind `json:"sub_type"`
	TokenUse    TokenUse    `json:"token_type"`
}

// signToken creates a signed HS256 JWT for the given subject with a
// fresh jti.
func signToken(kind SubjectKind, slug string, use TokenUse, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   slug,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		SubjectKind: kind,
		TokenUse:    use,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", use, err)
	}
	return signed, nil
}

// parseToken validates signature and expiry and returns the claims.
// Expired tokens are reported as ErrTokenExpired, anything else as
// ErrTokenInvalid. Blacklist and subject checks happen in the service.
func parseToken(tokenString, secret string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing jti", ErrTokenInvalid)
	}
	if claims.SubjectKind != SubjectOrganization && claims.SubjectKind != SubjectBranch {
		return nil, fmt.Errorf("%w: unknown subject kind %q", ErrTokenInvalid, claims.SubjectKind)
	}
	if claims.TokenUse != UseAccess && claims.TokenUse != UseRefresh {
		return nil, fmt.Errorf("%w: unknown token use %q", ErrTokenInvalid, claims.TokenUse)
	}

	return claims, nil
}
