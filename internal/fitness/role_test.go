package fitness_test

import (
	"testing"

	"github.com/accessfit/accessfit-gateway/internal/fitness"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"PWD", "THERAPIST", "CAREGIVER", "ADMIN"} {
		role, err := fitness.ParseRole(valid)
		require.NoError(t, err)
		assert.Equal(t, fitness.Role(valid), role)
		assert.True(t, role.Valid())
	}

	for _, invalid := range []string{"", "pwd", "Therapist", "SUPERADMIN"} {
		_, err := fitness.ParseRole(invalid)
		assert.Error(t, err, "role %q should not parse", invalid)
		assert.False(t, fitness.Role(invalid).Valid())
	}
}

func TestRole_ManagesPatients(t *testing.T) {
	assert.False(t, fitness.RolePWD.ManagesPatients())
	assert.True(t, fitness.RoleTherapist.ManagesPatients())
	assert.True(t, fitness.RoleCaregiver.ManagesPatients())
	assert.True(t, fitness.RoleAdmin.ManagesPatients())
}
