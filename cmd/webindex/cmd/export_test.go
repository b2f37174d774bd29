package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExportCmdHasOutFlag(t *testing.T) {
	cmd := newExportCmd()
	require.NotNil(t, cmd.Flags().Lookup("out"))
}

func TestExportCmdFailsWithoutProvisionedModel(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("WEBINDEX_DATA_ROOT", t.TempDir())

	cmd := newExportCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	require.Error(t, cmd.Execute())
}
