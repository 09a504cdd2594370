// Package auth provides the user model, the Postgres-backed user store, and
// the session token issuer.
//
// The token issuer mints HS256 JWTs consumed by the frontend after a
// successful SSO callback and verified by the admin middleware. The user
// store is the collaborator the SSO identity resolver leans on: its unique
// email index is what makes concurrent find-or-create safe, surfaced here as
// ErrDuplicateEmail.
package auth
