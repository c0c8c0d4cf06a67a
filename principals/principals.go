// Package principals defines the authenticated identity model and the user
// directory contract the auth core reads from.
package principals

import "time"

// Role represents a user role within the care organisation. Roles are a closed
// enumeration: anything outside the set is rejected at the boundary rather than
// compared ad hoc at runtime.
type Role string

const (
	RoleSuperAdmin Role = "superadmin" // Can manage all tenants and system configuration
	RoleAdmin      Role = "admin"      // Can manage staff, patients and settings within a tenant
	RoleCareStaff  Role = "care_staff" // Care workers: day-to-day patient and appointment access
	RolePatient    Role = "patient"    // Patients: access to their own records only
)

// DefaultRole is assigned at account registration when no role is specified.
const DefaultRole = RoleCareStaff

// ParseRole validates a stored or submitted role string against the enumeration.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleSuperAdmin, RoleAdmin, RoleCareStaff, RolePatient:
		return Role(s), true
	}
	return "", false
}

// Principal is the authenticated identity attached to a session. It never
// carries the credential hash: Record.Principal strips it before the value
// crosses the directory boundary.
type Principal struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Role     Role   `json:"role"`
	TenantID *int64 `json:"tenant_id,omitempty"`
}

// Record is the durable directory row for an account, including the encoded
// credential hash. The hash is never serialized.
type Record struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Name           string    `json:"name,omitempty"`
	Role           Role      `json:"role"`
	TenantID       *int64    `json:"tenant_id,omitempty"`
	CredentialHash string    `json:"-"` // Hashed credential - never serialize
	CreatedAt      time.Time `json:"created_at,omitempty"`
}

// Principal returns the hash-free identity for this record.
func (r *Record) Principal() *Principal {
	return &Principal{
		ID:       r.ID,
		Username: r.Username,
		Name:     r.Name,
		Role:     r.Role,
		TenantID: r.TenantID,
	}
}
