package sso

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/luxtravel/portico/pkg/auth"
	"github.com/luxtravel/portico/pkg/errs"
)

// CreateProviderRequest is the admin payload for registering a provider
type CreateProviderRequest struct {
	Name             string                  `json:"name" validate:"required"`
	EntityID         string                  `json:"entity_id" validate:"required"`
	SSOURL           string                  `json:"sso_url" validate:"required,url"`
	SSOLogoutURL     string                  `json:"sso_logout_url" validate:"omitempty,url"`
	Certificate      string                  `json:"certificate" validate:"required"`
	AutoProvision    bool                    `json:"auto_provision"`
	DefaultRole      auth.Role               `json:"default_role" validate:"required,oneof=client vendor admin"`
	AttributeMapping AttributeMappingRequest `json:"attribute_mapping" validate:"required"`
	IsActive         *bool                   `json:"is_active"`
}

// AttributeMappingRequest validates the assertion attribute names
type AttributeMappingRequest struct {
	Email       string `json:"email" validate:"required"`
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	DisplayName string `json:"displayName"`
}

// UpdateProviderRequest is the admin payload for a partial update; absent
// fields keep their stored values. Tags use omitnil, not omitempty: an
// explicit empty string must fail validation instead of being skipped.
type UpdateProviderRequest struct {
	Name             *string                  `json:"name" validate:"omitnil,min=1"`
	EntityID         *string                  `json:"entity_id" validate:"omitnil,min=1"`
	SSOURL           *string                  `json:"sso_url" validate:"omitnil,url"`
	SSOLogoutURL     *string                  `json:"sso_logout_url" validate:"omitnil,url"`
	Certificate      *string                  `json:"certificate" validate:"omitnil,min=1"`
	AutoProvision    *bool                    `json:"auto_provision"`
	DefaultRole      *auth.Role               `json:"default_role" validate:"omitnil,oneof=client vendor admin"`
	AttributeMapping *AttributeMappingRequest `json:"attribute_mapping"`
	IsActive         *bool                    `json:"is_active"`
}

// newValidator builds the request validator with JSON field names in error
// output instead of Go struct names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest runs struct validation and converts failures into a
// field-by-field ValidationError.
func validateRequest(v *validator.Validate, req interface{}) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errs.NewValidation(err.Error())
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return errs.NewFieldValidation("invalid provider configuration", fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a well-formed URL"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "min":
		return "must not be empty"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// toProvider converts a validated create request into a registry record.
// Providers are active by default.
func (req *CreateProviderRequest) toProvider() *IdentityProvider {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return &IdentityProvider{
		Name:          req.Name,
		EntityID:      req.EntityID,
		SSOURL:        req.SSOURL,
		SSOLogoutURL:  req.SSOLogoutURL,
		Certificate:   req.Certificate,
		AutoProvision: req.AutoProvision,
		DefaultRole:   req.DefaultRole,
		AttributeMapping: AttributeMapping{
			Email:       req.AttributeMapping.Email,
			FirstName:   req.AttributeMapping.FirstName,
			LastName:    req.AttributeMapping.LastName,
			DisplayName: req.AttributeMapping.DisplayName,
		},
		IsActive: active,
	}
}

// toUpdate converts a validated update request into a registry partial update
func (req *UpdateProviderRequest) toUpdate() *ProviderUpdate {
	update := &ProviderUpdate{
		Name:          req.Name,
		EntityID:      req.EntityID,
		SSOURL:        req.SSOURL,
		SSOLogoutURL:  req.SSOLogoutURL,
		Certificate:   req.Certificate,
		AutoProvision: req.AutoProvision,
		DefaultRole:   req.DefaultRole,
		IsActive:      req.IsActive,
	}
	if req.AttributeMapping != nil {
		update.AttributeMapping = &AttributeMapping{
			Email:       req.AttributeMapping.Email,
			FirstName:   req.AttributeMapping.FirstName,
			LastName:    req.AttributeMapping.LastName,
			DisplayName: req.AttributeMapping.DisplayName,
		}
	}
	return update
}
