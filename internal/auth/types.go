package auth

import (
	"errors"

	"github.com/mnv-dev/vyahan-core/internal/tenant"
)

// SubjectKind identifies which kind of principal a token speaks for.
type SubjectKind string

const (
	SubjectOrganization SubjectKind = "org"
	SubjectBranch       SubjectKind = "branch"
)

// TokenUse distinguishes access tokens from refresh tokens. The two are
// never interchangeable: an access token cannot be refreshed and a
// refresh token cannot authorize a request.
type TokenUse string

const (
	UseAccess  TokenUse = "access"
	UseRefresh TokenUse = "refresh"
)

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Identity is a validated access token resolved to its live subject.
// Exactly one of Organization/Branch is set, matching Claims.SubjectKind.
// For a branch identity, Organization is the branch's owner.
type Identity struct {
	Claims       *TokenClaims
	Organization *tenant.Organization
	Branch       *tenant.Branch
}

// Kind returns the subject kind of the identity.
func (id Identity) Kind() SubjectKind {
	return id.Claims.SubjectKind
}

// Sentinel errors for authentication operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrWrongTokenUse      = errors.New("wrong token type")
	ErrWrongSubjectKind   = errors.New("wrong subject type")
	ErrSubjectNotFound    = errors.New("token subject no longer exists")
)
