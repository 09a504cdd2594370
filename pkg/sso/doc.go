// Package sso implements SAML 2.0 single sign-on against admin-configured
// identity providers.
//
// Providers live in the database and are managed through an admin CRUD
// surface; the login and callback handlers rebuild the SAML service provider
// configuration from the stored record on every request, so configuration
// changes take effect immediately and no per-provider state is cached in the
// process. Verified assertions resolve to local users by email, with optional
// just-in-time provisioning controlled per provider.
package sso
