package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatsCmdHasJSONFlag(t *testing.T) {
	cmd := newStatsCmd()
	require.NotNil(t, cmd.Flags().Lookup("json"))
}

func TestStatsCmdFailsWithoutProvisionedModel(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("WEBINDEX_DATA_ROOT", t.TempDir())

	cmd := newStatsCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	require.Error(t, cmd.Execute())
}
