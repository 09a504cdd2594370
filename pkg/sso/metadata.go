package sso

import (
	"encoding/xml"
	"fmt"
)

// SP metadata document types, per the SAML 2.0 metadata schema. Only the
// elements an IdP needs to register this service are emitted.

// EntityDescriptor is the root of the SP metadata document
type EntityDescriptor struct {
	XMLName         xml.Name        `xml:"urn:oasis:names:tc:SAML:2.0:metadata EntityDescriptor"`
	EntityID        string          `xml:"entityID,attr"`
	SPSSODescriptor SPSSODescriptor `xml:"SPSSODescriptor"`
}

// SPSSODescriptor describes the service provider role
type SPSSODescriptor struct {
	ProtocolSupportEnumeration string                    `xml:"protocolSupportEnumeration,attr"`
	AuthnRequestsSigned        bool                      `xml:"AuthnRequestsSigned,attr"`
	WantAssertionsSigned       bool                      `xml:"WantAssertionsSigned,attr"`
	AssertionConsumerServices  []AssertionConsumerService `xml:"AssertionConsumerService"`
}

// AssertionConsumerService is the endpoint IdPs post assertions to
type AssertionConsumerService struct {
	Binding  string `xml:"Binding,attr"`
	Location string `xml:"Location,attr"`
	Index    int    `xml:"index,attr"`
}

const (
	samlProtocolURI    = "urn:oasis:names:tc:SAML:2.0:protocol"
	httpPostBindingURI = "urn:oasis:names:tc:SAML:2.0:bindings:HTTP-POST"
)

// GenerateMetadata produces this service's SP metadata document for IdP-side
// configuration. Pure and deterministic given its inputs.
func GenerateMetadata(entityID, callbackURL string) ([]byte, error) {
	descriptor := EntityDescriptor{
		EntityID: entityID,
		SPSSODescriptor: SPSSODescriptor{
			ProtocolSupportEnumeration: samlProtocolURI,
			AuthnRequestsSigned:        false,
			WantAssertionsSigned:       true,
			AssertionConsumerServices: []AssertionConsumerService{
				{
					Binding:  httpPostBindingURI,
					Location: callbackURL,
					Index:    1,
				},
			},
		},
	}

	body, err := xml.MarshalIndent(descriptor, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	return append([]byte(xml.Header), body...), nil
}
