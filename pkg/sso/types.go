package sso

import (
	"time"

	"github.com/luxtravel/portico/pkg/auth"
)

// IdentityProvider is a registered SAML identity provider configuration.
// The certificate is the IdP's signing certificate (PEM); it never appears on
// the public listing surface.
type IdentityProvider struct {
	ID               int64            `json:"id"`
	Name             string           `json:"name"`
	EntityID         string           `json:"entity_id"`
	SSOURL           string           `json:"sso_url"`
	SSOLogoutURL     string           `json:"sso_logout_url,omitempty"`
	Certificate      string           `json:"certificate"`
	AutoProvision    bool             `json:"auto_provision"`
	DefaultRole      auth.Role        `json:"default_role"`
	AttributeMapping AttributeMapping `json:"attribute_mapping"`
	IsActive         bool             `json:"is_active"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// AttributeMapping names the assertion attributes carrying each user field
type AttributeMapping struct {
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DisplayName string `json:"displayName,omitempty"`
}

// PublicProvider is the shape exposed on the unauthenticated listing:
// only what a login page needs, never the certificate.
type PublicProvider struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	EntityID string `json:"entity_id"`
}

// Public returns the provider's unauthenticated projection
func (p *IdentityProvider) Public() PublicProvider {
	return PublicProvider{ID: p.ID, Name: p.Name, EntityID: p.EntityID}
}

// ExternalIdentity is the validated claim set extracted from an assertion.
// Transient: consumed immediately by the identity resolver, never persisted.
type ExternalIdentity struct {
	SubjectID   string
	Email       string
	FirstName   string
	LastName    string
	DisplayName string
	Attributes  map[string]string
}

// Failure reason codes carried on the browser redirect after a failed
// callback. Coarse on purpose: verifier internals stay server-side.
const (
	ReasonAuthFailed       = "saml_auth_failed"
	ReasonNoUser           = "saml_no_user"
	ReasonProcessingFailed = "saml_processing_failed"
)
