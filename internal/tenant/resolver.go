package tenant

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// SubdomainFromHost extracts the leftmost subdomain label from a request
// host. A host needs at least two dots to carry a subdomain
// ("acme.example.com" -> "acme"); a bare domain or IP yields "".
func SubdomainFromHost(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	if strings.Count(host, ".") < 2 {
		return ""
	}
	return strings.SplitN(host, ".", 2)[0]
}

// Resolver maps an inbound request's host subdomain to an organization,
// independent of any token.
type Resolver struct {
	orgs OrganizationRepository
}

// NewResolver creates a subdomain resolver over the organization store.
func NewResolver(orgs OrganizationRepository) *Resolver {
	return &Resolver{orgs: orgs}
}

// Resolve returns the tenant context for a request host. An unknown or
// absent subdomain yields the anonymous context, not an error: public
// endpoints treat it as "no tenant", gated endpoints reject it. The
// error return is reserved for store faults.
func (r *Resolver) Resolve(ctx context.Context, host string) (Context, error) {
	subdomain := SubdomainFromHost(host)
	if subdomain == "" {
		return Context{}, nil
	}

	org, err := r.orgs.GetBySubdomain(ctx, subdomain)
	if err != nil {
		if errors.Is(err, ErrOrganizationNotFound) {
			return Context{}, nil
		}
		return Context{}, fmt.Errorf("resolving subdomain %q: %w", subdomain, err)
	}

	return Context{Organization: org}, nil
}
