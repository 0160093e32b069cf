package workspace_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condakit/internal/workspace"
)

func TestSecretFromEnvironment(t *testing.T) {
	name := "SECRET_" + strings.ToUpper(uuid.New().String()[:8])
	_, err := workspace.SecretFromEnvironment(name, false)
	require.Error(t, err)
	assert.Equal(t, `there is no value stored for the secret named "`+name+`"`, err.Error())

	value, err := workspace.SecretFromEnvironment(name, true)
	require.NoError(t, err)
	assert.Empty(t, value)

	t.Setenv(name, "42")
	value, err = workspace.SecretFromEnvironment(name, false)
	require.NoError(t, err)
	assert.Equal(t, "42", value)
}

func TestServicePrincipalFromEnvironment(t *testing.T) {
	t.Setenv(workspace.EnvServicePrincipalID, "")
	_, ok, err := workspace.ServicePrincipalFromEnvironment()
	require.NoError(t, err)
	assert.False(t, ok)

	t.Setenv(workspace.EnvServicePrincipalID, "1")
	t.Setenv(workspace.EnvTenantID, "2")
	t.Setenv(workspace.EnvServicePrincipalPassword, "3")
	sp, ok, err := workspace.ServicePrincipalFromEnvironment()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, workspace.ServicePrincipal{ID: "1", TenantID: "2", Password: "3"}, *sp)

	t.Setenv(workspace.EnvServicePrincipalPassword, "")
	_, _, err = workspace.ServicePrincipalFromEnvironment()
	assert.Error(t, err)
}
