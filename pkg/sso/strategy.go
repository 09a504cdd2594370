package sso

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"

	saml2 "github.com/russellhaering/gosaml2"
	dsig "github.com/russellhaering/goxmldsig"
)

// BuildStrategy constructs the per-request SSO handshake configuration for a
// provider: the redirect builder for login initiation and the verifier for
// the inbound assertion. It is a pure function of its inputs and must be
// rebuilt on every request — the callback URL is request-derived (it carries
// the provider ID path segment), and a stale strategy would verify against
// the wrong assertion consumer endpoint.
func BuildStrategy(provider *IdentityProvider, spEntityID, callbackURL string) (*saml2.SAMLServiceProvider, error) {
	certBlock, _ := pem.Decode([]byte(provider.Certificate))
	if certBlock == nil {
		return nil, fmt.Errorf("failed to decode certificate PEM for provider %d", provider.ID)
	}

	cert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate for provider %d: %w", provider.ID, err)
	}

	certStore := dsig.MemoryX509CertificateStore{
		Roots: []*x509.Certificate{cert},
	}

	return &saml2.SAMLServiceProvider{
		IdentityProviderSSOURL:      provider.SSOURL,
		IdentityProviderIssuer:      provider.EntityID,
		ServiceProviderIssuer:       spEntityID,
		AssertionConsumerServiceURL: callbackURL,
		AudienceURI:                 spEntityID,
		IDPCertificateStore:         &certStore,
		SkipSignatureValidation:     false,
	}, nil
}

// VerifyAssertion validates a base64-encoded SAMLResponse against the
// strategy and rejects assertions outside their validity window or audience.
func VerifyAssertion(sp *saml2.SAMLServiceProvider, encodedResponse string) (*saml2.AssertionInfo, error) {
	assertionInfo, err := sp.RetrieveAssertionInfo(encodedResponse)
	if err != nil {
		return nil, fmt.Errorf("failed to validate assertion: %w", err)
	}

	if assertionInfo.WarningInfo != nil {
		if assertionInfo.WarningInfo.InvalidTime {
			return nil, fmt.Errorf("assertion outside its validity window")
		}
		if assertionInfo.WarningInfo.NotInAudience {
			return nil, fmt.Errorf("assertion not in expected audience")
		}
	}

	return assertionInfo, nil
}

// ExtractIdentity maps assertion attributes to an external identity using the
// provider's attribute mapping. The email attribute is mandatory; everything
// else is best effort.
func ExtractIdentity(assertionInfo *saml2.AssertionInfo, mapping AttributeMapping) (*ExternalIdentity, error) {
	identity := &ExternalIdentity{
		SubjectID:  assertionInfo.NameID,
		Attributes: make(map[string]string),
	}

	for _, attr := range assertionInfo.Values {
		if len(attr.Values) == 0 {
			continue
		}
		value := attr.Values[0].Value
		identity.Attributes[attr.Name] = value

		switch attr.Name {
		case mapping.Email:
			identity.Email = value
		case mapping.FirstName:
			identity.FirstName = value
		case mapping.LastName:
			identity.LastName = value
		case mapping.DisplayName:
			identity.DisplayName = value
		}
	}

	if identity.Email == "" {
		return nil, fmt.Errorf("assertion carries no value for email attribute %q", mapping.Email)
	}

	return identity, nil
}
