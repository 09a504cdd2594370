package sso

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/luxtravel/portico/pkg/auth"
	"github.com/luxtravel/portico/pkg/errs"
)

// ProviderNotFoundCode is the stable error code for unknown or inactive providers
const ProviderNotFoundCode = "PROVIDER_NOT_FOUND"

// Registry stores identity provider configurations. Read on every login and
// callback, no caching: the flow must tolerate concurrent modification
// between the two steps.
type Registry struct {
	db *sql.DB
}

// NewRegistry creates a provider registry
func NewRegistry(db *sql.DB) *Registry {
	return &Registry{db: db}
}

const providerColumns = `id, name, entity_id, sso_url, sso_logout_url, certificate,
	auto_provision, default_role, attribute_mapping, is_active, created_at, updated_at`

func scanProvider(row interface{ Scan(...interface{}) error }) (*IdentityProvider, error) {
	p := &IdentityProvider{}
	var mappingJSON []byte
	err := row.Scan(
		&p.ID, &p.Name, &p.EntityID, &p.SSOURL, &p.SSOLogoutURL, &p.Certificate,
		&p.AutoProvision, &p.DefaultRole, &mappingJSON, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(mappingJSON, &p.AttributeMapping); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attribute mapping: %w", err)
	}
	return p, nil
}

// GetActiveProviders lists providers with is_active=true
func (r *Registry) GetActiveProviders(ctx context.Context) ([]*IdentityProvider, error) {
	return r.list(ctx, true)
}

// GetAllProviders lists every provider including inactive ones (admin surface)
func (r *Registry) GetAllProviders(ctx context.Context) ([]*IdentityProvider, error) {
	return r.list(ctx, false)
}

func (r *Registry) list(ctx context.Context, activeOnly bool) ([]*IdentityProvider, error) {
	query := `SELECT ` + providerColumns + ` FROM saml_providers`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	defer rows.Close()

	var providers []*IdentityProvider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

// GetProvider retrieves a provider by ID
func (r *Registry) GetProvider(ctx context.Context, id int64) (*IdentityProvider, error) {
	p, err := scanProvider(r.db.QueryRowContext(ctx,
		`SELECT `+providerColumns+` FROM saml_providers WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NewNotFound(ProviderNotFoundCode, fmt.Sprintf("provider %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	return p, nil
}

// GetActiveProvider retrieves a provider by ID, treating inactive providers
// as not found. The login and callback steps use this form.
func (r *Registry) GetActiveProvider(ctx context.Context, id int64) (*IdentityProvider, error) {
	p, err := r.GetProvider(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, errs.NewNotFound(ProviderNotFoundCode, fmt.Sprintf("provider %d not found", id))
	}
	return p, nil
}

// CreateProvider inserts a new provider. Fails with a ValidationError when
// the entity ID is already registered by an active provider.
func (r *Registry) CreateProvider(ctx context.Context, p *IdentityProvider) error {
	taken, err := r.entityIDTaken(ctx, p.EntityID, 0)
	if err != nil {
		return err
	}
	if taken {
		return errs.NewValidation(fmt.Sprintf("entity_id %q is already registered", p.EntityID))
	}

	mappingJSON, err := json.Marshal(p.AttributeMapping)
	if err != nil {
		return fmt.Errorf("failed to marshal attribute mapping: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO saml_providers (
			name, entity_id, sso_url, sso_logout_url, certificate,
			auto_provision, default_role, attribute_mapping, is_active,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, p.Name, p.EntityID, p.SSOURL, p.SSOLogoutURL, p.Certificate,
		p.AutoProvision, p.DefaultRole, mappingJSON, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}
	return nil
}

// ProviderUpdate carries a partial update; nil fields keep their stored values
type ProviderUpdate struct {
	Name             *string           `json:"name"`
	EntityID         *string           `json:"entity_id"`
	SSOURL           *string           `json:"sso_url"`
	SSOLogoutURL     *string           `json:"sso_logout_url"`
	Certificate      *string           `json:"certificate"`
	AutoProvision    *bool             `json:"auto_provision"`
	DefaultRole      *auth.Role        `json:"default_role"`
	AttributeMapping *AttributeMapping `json:"attribute_mapping"`
	IsActive         *bool             `json:"is_active"`
}

// UpdateProvider applies a partial update. Fails with NotFoundError if the
// provider is unknown, ValidationError on an entity-ID collision with another
// active provider.
func (r *Registry) UpdateProvider(ctx context.Context, id int64, update *ProviderUpdate) error {
	existing, err := r.GetProvider(ctx, id)
	if err != nil {
		return err
	}

	if update.Name != nil {
		existing.Name = *update.Name
	}
	if update.EntityID != nil {
		existing.EntityID = *update.EntityID
	}
	if update.SSOURL != nil {
		existing.SSOURL = *update.SSOURL
	}
	if update.SSOLogoutURL != nil {
		existing.SSOLogoutURL = *update.SSOLogoutURL
	}
	if update.Certificate != nil {
		existing.Certificate = *update.Certificate
	}
	if update.AutoProvision != nil {
		existing.AutoProvision = *update.AutoProvision
	}
	if update.DefaultRole != nil {
		existing.DefaultRole = *update.DefaultRole
	}
	if update.AttributeMapping != nil {
		existing.AttributeMapping = *update.AttributeMapping
	}
	if update.IsActive != nil {
		existing.IsActive = *update.IsActive
	}

	if existing.IsActive {
		taken, err := r.entityIDTaken(ctx, existing.EntityID, id)
		if err != nil {
			return err
		}
		if taken {
			return errs.NewValidation(fmt.Sprintf("entity_id %q is already registered", existing.EntityID))
		}
	}

	mappingJSON, err := json.Marshal(existing.AttributeMapping)
	if err != nil {
		return fmt.Errorf("failed to marshal attribute mapping: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE saml_providers
		SET name = $1, entity_id = $2, sso_url = $3, sso_logout_url = $4,
			certificate = $5, auto_provision = $6, default_role = $7,
			attribute_mapping = $8, is_active = $9, updated_at = NOW()
		WHERE id = $10
	`, existing.Name, existing.EntityID, existing.SSOURL, existing.SSOLogoutURL,
		existing.Certificate, existing.AutoProvision, existing.DefaultRole,
		mappingJSON, existing.IsActive, id)
	if err != nil {
		return fmt.Errorf("failed to update provider: %w", err)
	}
	return nil
}

// DeleteProvider removes a provider. Fails with NotFoundError when absent, so
// repeated deletes report the missing row instead of silently succeeding.
func (r *Registry) DeleteProvider(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM saml_providers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete provider: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete provider: %w", err)
	}
	if affected == 0 {
		return errs.NewNotFound(ProviderNotFoundCode, fmt.Sprintf("provider %d not found", id))
	}
	return nil
}

// entityIDTaken reports whether another active provider already claims the
// entity ID. Deleted and inactive providers release theirs.
func (r *Registry) entityIDTaken(ctx context.Context, entityID string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM saml_providers
			WHERE entity_id = $1 AND is_active = true AND id <> $2
		)
	`, entityID, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check entity_id: %w", err)
	}
	return exists, nil
}
