package sso

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMetadata(t *testing.T) {
	body, err := GenerateMetadata("https://sp.example.com/saml/metadata", "https://sp.example.com/saml/callback")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(body), xml.Header))

	var descriptor EntityDescriptor
	require.NoError(t, xml.Unmarshal(body, &descriptor))

	assert.Equal(t, "https://sp.example.com/saml/metadata", descriptor.EntityID)
	assert.Equal(t, samlProtocolURI, descriptor.SPSSODescriptor.ProtocolSupportEnumeration)
	assert.True(t, descriptor.SPSSODescriptor.WantAssertionsSigned)
	assert.False(t, descriptor.SPSSODescriptor.AuthnRequestsSigned)

	require.Len(t, descriptor.SPSSODescriptor.AssertionConsumerServices, 1)
	acs := descriptor.SPSSODescriptor.AssertionConsumerServices[0]
	assert.Equal(t, httpPostBindingURI, acs.Binding)
	assert.Equal(t, "https://sp.example.com/saml/callback", acs.Location)
	assert.Equal(t, 1, acs.Index)
}

func TestGenerateMetadata_Deterministic(t *testing.T) {
	first, err := GenerateMetadata("https://sp.example.com/saml/metadata", "https://sp.example.com/saml/callback")
	require.NoError(t, err)
	second, err := GenerateMetadata("https://sp.example.com/saml/metadata", "https://sp.example.com/saml/callback")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
