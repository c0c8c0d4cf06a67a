package principals_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/care-auth-server/internal/utils"
	"github.com/carelink/care-auth-server/principals"
)

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"superadmin", "admin", "care_staff", "patient"} {
		role, ok := principals.ParseRole(valid)
		assert.True(t, ok, "role %q must parse", valid)
		assert.Equal(t, principals.Role(valid), role)
	}

	for _, invalid := range []string{"", "root", "Admin", "CARE_STAFF", "care-staff", "superuser"} {
		_, ok := principals.ParseRole(invalid)
		assert.False(t, ok, "role %q must be rejected", invalid)
	}
}

func TestRecordPrincipalStripsCredential(t *testing.T) {
	record := &principals.Record{
		ID:             12,
		Username:       "alice.ward",
		Name:           "Alice Ward",
		Role:           principals.RoleCareStaff,
		TenantID:       utils.Ptr(int64(3)),
		CredentialHash: "aabb:ccdd",
	}

	principal := record.Principal()
	assert.Equal(t, record.ID, principal.ID)
	assert.Equal(t, record.Username, principal.Username)
	assert.Equal(t, record.Role, principal.Role)
	assert.Equal(t, record.TenantID, principal.TenantID)
}

func TestRecordNeverSerializesCredential(t *testing.T) {
	record := &principals.Record{
		ID:             12,
		Username:       "alice.ward",
		Role:           principals.RoleCareStaff,
		CredentialHash: "super-secret-hash-material",
	}

	encoded, err := json.Marshal(record)
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "super-secret-hash-material")

	encoded, err = json.Marshal(record.Principal())
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "super-secret-hash-material")
	assert.NotContains(t, string(encoded), "password")
	assert.NotContains(t, string(encoded), "hash")
}
