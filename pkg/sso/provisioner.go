package sso

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/luxtravel/portico/pkg/auth"
	"github.com/luxtravel/portico/pkg/errs"
)

// IdentityResolver maps a validated external assertion to a local user,
// creating one when the provider allows JIT provisioning. Email is the sole
// matching key; a user re-registering under a different email gets a new
// account rather than a link to the old one.
type IdentityResolver struct {
	users *auth.UserStore
}

// NewIdentityResolver creates an identity resolver
func NewIdentityResolver(users *auth.UserStore) *IdentityResolver {
	return &IdentityResolver{users: users}
}

// FindOrCreateUser resolves an external identity to a local user. Returns the
// user and whether it was created by this call. Safe under concurrent
// callbacks for the same identity: a unique-violation on create means someone
// else resolved it first, and the existing row is fetched instead.
func (r *IdentityResolver) FindOrCreateUser(ctx context.Context, identity *ExternalIdentity, provider *IdentityProvider) (*auth.User, bool, error) {
	user, err := r.users.FindByEmail(ctx, identity.Email)
	if err == nil {
		if touchErr := r.users.TouchLogin(ctx, user.ID); touchErr != nil {
			return nil, false, fmt.Errorf("failed to record login: %w", touchErr)
		}
		return user, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}

	if !provider.AutoProvision {
		return nil, false, errs.NewAuthorization(
			"no account for %s and auto-provisioning is disabled", identity.Email)
	}

	providerID := provider.ID
	user = &auth.User{
		Email:         identity.Email,
		FirstName:     identity.FirstName,
		LastName:      identity.LastName,
		DisplayName:   displayName(identity),
		Role:          provider.DefaultRole,
		SSOProviderID: &providerID,
	}

	err = r.users.CreateUser(ctx, user)
	if errors.Is(err, auth.ErrDuplicateEmail) {
		// Lost the race to a concurrent callback; the winner's row is ours.
		existing, fetchErr := r.users.FindByEmail(ctx, identity.Email)
		if fetchErr != nil {
			return nil, false, fmt.Errorf("failed to fetch concurrently created user: %w", fetchErr)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return user, true, nil
}

func displayName(identity *ExternalIdentity) string {
	if identity.DisplayName != "" {
		return identity.DisplayName
	}
	if identity.FirstName != "" && identity.LastName != "" {
		return identity.FirstName + " " + identity.LastName
	}
	return identity.Email
}
