package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mnv-dev/vyahan-core/internal/tenant"
)

// decoyHash is verified against on unknown-slug logins so that both
// failure paths cost one KDF run. The password it encodes is random and
// discarded; no login can ever match it.
const decoyHash = "$argon2id$v=19$m=65536,t=3,p=1$" +
	"q83vASNFZ4mrze8BI0VniQ$c3zT0N2D0W0xPZK5nq1uWRp4q0C8C2yLhR0dQvMxvcU"

// Service owns credential verification and the token lifecycle for both
// subject kinds. All methods are safe for concurrent use.
type Service struct {
	orgs       tenant.OrganizationRepository
	branches   tenant.BranchRepository
	blacklist  BlacklistRepository
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService creates the auth service over the given stores.
func NewService(
	orgs tenant.OrganizationRepository,
	branches tenant.BranchRepository,
	blacklist BlacklistRepository,
	secret string,
	accessTTL, refreshTTL time.Duration,
) *Service {
	return &Service{
		orgs:       orgs,
		branches:   branches,
		blacklist:  blacklist,
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// LoginOrganization verifies an organization's slug + password and
// issues a token pair. Unknown slug and wrong password are
// indistinguishable to the caller.
func (s *Service) LoginOrganization(ctx context.Context, slug, password string) (*TokenPair, error) {
	org, err := s.orgs.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, tenant.ErrOrganizationNotFound) {
			VerifyPassword(password, decoyHash) //nolint:errcheck // equalizing work, result unused
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up organization: %w", err)
	}

	ok, err := VerifyPassword(password, org.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return s.issuePair(SubjectOrganization, org.Slug)
}

// LoginBranch verifies a branch's slug + password and issues a token pair.
func (s *Service) LoginBranch(ctx context.Context, slug, password string) (*TokenPair, error) {
	branch, err := s.branches.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, tenant.ErrBranchNotFound) {
			VerifyPassword(password, decoyHash) //nolint:errcheck // equalizing work, result unused
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up branch: %w", err)
	}

	ok, err := VerifyPassword(password, branch.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return s.issuePair(SubjectBranch, branch.Slug)
}

// Refresh consumes a refresh token and issues a new pair for the same
// subject. The consumed token's jti is blacklisted; if it was already
// blacklisted, or a concurrent refresh won the race to blacklist it,
// ErrTokenRevoked is returned and no pair is issued.
func (s *Service) Refresh(ctx context.Context, rawRefresh string) (*TokenPair, error) {
	claims, err := parseToken(rawRefresh, s.secret)
	if err != nil {
		return nil, err
	}
	if claims.TokenUse != UseRefresh {
		return nil, fmt.Errorf("%w: expected refresh token", ErrWrongTokenUse)
	}

	// Make sure the subject still exists before burning the token.
	if _, err := s.resolveSubject(ctx, claims); err != nil {
		return nil, err
	}

	inserted, err := s.blacklist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		return nil, fmt.Errorf("blacklisting consumed token: %w", err)
	}
	if !inserted {
		return nil, ErrTokenRevoked
	}

	return s.issuePair(claims.SubjectKind, claims.Subject)
}

// Logout blacklists a refresh token. Already-revoked tokens are a
// no-op; outstanding access tokens remain valid until expiry.
func (s *Service) Logout(ctx context.Context, rawRefresh string) error {
	claims, err := parseToken(rawRefresh, s.secret)
	if err != nil {
		return err
	}
	if claims.TokenUse != UseRefresh {
		return fmt.Errorf("%w: expected refresh token", ErrWrongTokenUse)
	}

	if _, err := s.blacklist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("blacklisting token: %w", err)
	}
	return nil
}

// Authenticate validates an access token and resolves its subject.
// If kind is non-empty, the token's subject kind must match it.
// Validation order: signature, expiry, token use, blacklist, subject
// kind, live subject lookup.
func (s *Service) Authenticate(ctx context.Context, rawAccess string, kind SubjectKind) (*Identity, error) {
	claims, err := parseToken(rawAccess, s.secret)
	if err != nil {
		return nil, err
	}
	if claims.TokenUse != UseAccess {
		return nil, fmt.Errorf("%w: expected access token", ErrWrongTokenUse)
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("checking blacklist: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	if kind != "" && claims.SubjectKind != kind {
		return nil, fmt.Errorf("%w: token is for %s", ErrWrongSubjectKind, claims.SubjectKind)
	}

	return s.resolveSubject(ctx, claims)
}

// resolveSubject looks up the live subject named by the claims. A
// subject deleted after token issue invalidates the token.
func (s *Service) resolveSubject(ctx context.Context, claims *TokenClaims) (*Identity, error) {
	switch claims.SubjectKind {
	case SubjectOrganization:
		org, err := s.orgs.GetBySlug(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, tenant.ErrOrganizationNotFound) {
				return nil, ErrSubjectNotFound
			}
			return nil, fmt.Errorf("resolving organization subject: %w", err)
		}
		return &Identity{Claims: claims, Organization: org}, nil

	case SubjectBranch:
		branch, err := s.branches.GetBySlug(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, tenant.ErrBranchNotFound) {
				return nil, ErrSubjectNotFound
			}
			return nil, fmt.Errorf("resolving branch subject: %w", err)
		}
		org, err := s.orgs.GetByID(ctx, branch.OrganizationID)
		if err != nil {
			if errors.Is(err, tenant.ErrOrganizationNotFound) {
				return nil, ErrSubjectNotFound
			}
			return nil, fmt.Errorf("resolving branch owner: %w", err)
		}
		return &Identity{Claims: claims, Organization: org, Branch: branch}, nil

	default:
		return nil, fmt.Errorf("%w: unknown subject kind %q", ErrTokenInvalid, claims.SubjectKind)
	}
}

func (s *Service) issuePair(kind SubjectKind, slug string) (*TokenPair, error) {
	access, err := signToken(kind, slug, UseAccess, s.secret, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := signToken(kind, slug, UseRefresh, s.secret, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}
