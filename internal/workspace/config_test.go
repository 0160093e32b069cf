package workspace_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condakit/internal/workspace"
)

const configJSON = `{
    // workspace used by the tests
    "subscription_id": "sub",
    "resource_group": "rg",
    "workspace_name": "ws",
    "datastore_url": "mem://localhost/blobs",
}
`

var workspaceVars = []string{
	workspace.EnvRunID, workspace.EnvRunSubscription, workspace.EnvRunResourceGroup,
	workspace.EnvRunWorkspaceName, workspace.EnvSubscriptionID, workspace.EnvResourceGroup,
	workspace.EnvWorkspaceName, workspace.EnvDatastoreURL, workspace.EnvSearchStopDirName,
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range workspaceVars {
		t.Setenv(name, "")
	}
}

func writeFile(t *testing.T, path, text string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestParseConfig(t *testing.T) {
	cfg, err := workspace.ParseConfig([]byte(configJSON))
	require.NoError(t, err)
	assert.Equal(t, "sub", cfg.SubscriptionID)
	assert.Equal(t, "rg", cfg.ResourceGroup)
	assert.Equal(t, "ws", cfg.WorkspaceName)
	assert.Equal(t, "mem://localhost/blobs", cfg.DatastoreURL)

	_, err = workspace.ParseConfig([]byte(`{"subscription_id": "sub"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workspace_name is empty")

	_, err = workspace.ParseConfig([]byte(`{`))
	assert.Error(t, err)
}

func TestFindFileInParents(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "some_file.json"), "{}")
	stop := filepath.Join(root, "python_root")
	start := filepath.Join(stop, "starting_directory")
	require.NoError(t, os.MkdirAll(start, 0o755))

	found, ok := workspace.FindFileInParents("some_file.json", start, "")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "some_file.json"), found)

	_, ok = workspace.FindFileInParents("some_file.json", start, stop)
	assert.False(t, ok)

	_, ok = workspace.FindFileInParents("absent.json", start, "")
	assert.False(t, ok)
}

func TestResolveExplicitFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "my_config.json"), configJSON)

	cfg, err := workspace.Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, workspace.SourceFile, cfg.Source)
	assert.Equal(t, path, cfg.Path)

	_, err = workspace.Resolve(filepath.Join(dir, "does_not_exist"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workspace config file does not exist")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestResolveDiscovered(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, workspace.ConfigFileName), configJSON)
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	t.Chdir(sub)

	cfg, err := workspace.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, workspace.SourceDiscovered, cfg.Source)
	assert.Equal(t, "ws", cfg.WorkspaceName)
}

func TestResolveEnvironment(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv(workspace.EnvSearchStopDirName, dir)
	t.Chdir(dir)

	_, err := workspace.Resolve("")
	assert.ErrorIs(t, err, workspace.ErrNoConfig)

	t.Setenv(workspace.EnvSubscriptionID, "s")
	t.Setenv(workspace.EnvResourceGroup, "r")
	t.Setenv(workspace.EnvWorkspaceName, "w")
	cfg, err := workspace.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, workspace.SourceEnvironment, cfg.Source)
	assert.Equal(t, "w", cfg.WorkspaceName)
}

func TestResolveInsideRun(t *testing.T) {
	clearEnv(t)
	t.Setenv(workspace.EnvRunID, "run_1")
	t.Setenv(workspace.EnvRunSubscription, "run-sub")
	t.Setenv(workspace.EnvRunResourceGroup, "run-rg")
	t.Setenv(workspace.EnvRunWorkspaceName, "run-ws")

	cfg, err := workspace.Resolve(filepath.Join(t.TempDir(), "ignored.json"))
	require.NoError(t, err)
	assert.Equal(t, workspace.SourceRun, cfg.Source)
	assert.Equal(t, "run-ws", cfg.WorkspaceName)
}
