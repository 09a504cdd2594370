package auth

import "time"

// Role represents platform-level roles assignable to provisioned users
type Role string

const (
	RoleClient Role = "client" // Travelers booking through the platform
	RoleVendor Role = "vendor" // Marketplace suppliers
	RoleAdmin  Role = "admin"  // Platform operators
)

// ValidRole reports whether r is a known role
func ValidRole(r Role) bool {
	switch r {
	case RoleClient, RoleVendor, RoleAdmin:
		return true
	}
	return false
}

// User represents a platform user account
type User struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	FirstName     string     `json:"first_name,omitempty"`
	LastName      string     `json:"last_name,omitempty"`
	DisplayName   string     `json:"display_name,omitempty"`
	Role          Role       `json:"role"`
	SSOProviderID *int64     `json:"sso_provider_id,omitempty"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
}
