package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webindex/webindex/internal/config"
)

func TestConfigPathCmdPrintsUserConfigPath(t *testing.T) {
	cmd := newConfigPathCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), config.GetUserConfigPath())
}

func TestConfigShowCmdOutputsYAMLByDefault(t *testing.T) {
	cmd := newConfigShowCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "data_root:")
}

func TestConfigShowCmdOutputsJSONWhenRequested(t *testing.T) {
	cmd := newConfigShowCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--json"})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), `"data_root"`)
}

func TestConfigInitCmdWritesTemplate(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cmd := newConfigInitCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "created")
	assert.FileExists(t, config.GetUserConfigPath())
}

func TestConfigInitCmdRefusesToOverwriteWithoutForce(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	first := newConfigInitCmd()
	first.SetOut(&bytes.Buffer{})
	first.SetArgs([]string{})
	require.NoError(t, first.Execute())

	cmd := newConfigInitCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "already exists")
}

func TestConfigCmdAddedToRoot(t *testing.T) {
	rootCmd := NewRootCmd()

	configCmd, _, err := rootCmd.Find([]string{"config", "show"})

	require.NoError(t, err)
	assert.Equal(t, "show", configCmd.Name())
}
