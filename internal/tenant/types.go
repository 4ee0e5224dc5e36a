package tenant

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// slugPattern defines the valid format for slugs and subdomains:
// lowercase alphanumeric with hyphens, 1-64 characters, no leading/trailing hyphen.
var slugPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,62}[a-z0-9])?$`)

// nonSlugChars matches runs of characters that cannot appear in a slug.
var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// IsValidSlug checks if a slug or subdomain meets format requirements.
func IsValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Slugify derives a slug from a human-readable title: lowercased, with
// runs of non-alphanumeric characters collapsed to single hyphens.
// Returns "" if nothing usable remains.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = nonSlugChars.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 64 {
		s = strings.Trim(s[:64], "-")
	}
	return s
}

// Organization is a logistics company: the top-level tenant.
// The subdomain is its routing key; the slug is its stable external
// identifier, used in tokens and URLs.
type Organization struct {
	ID           string         `json:"id"`
	Slug         string         `json:"slug"`
	Subdomain    string         `json:"subdomain"`
	Title        string         `json:"title"`
	PasswordHash string         `json:"-"` // never serialised
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Branch is an office belonging to exactly one organization.
type Branch struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organization_id"`
	Slug           string         `json:"slug"`
	Title          string         `json:"title"`
	PasswordHash   string         `json:"-"` // never serialised
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Sentinel errors for tenant operations.
var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrBranchNotFound       = errors.New("branch not found")
	ErrSlugTaken            = errors.New("slug already in use")
	ErrSubdomainTaken       = errors.New("subdomain already in use")
)
