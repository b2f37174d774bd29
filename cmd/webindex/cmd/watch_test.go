package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWatchCmdAcceptsAtMostOneArg(t *testing.T) {
	cmd := newWatchCmd()
	cmd.SetArgs([]string{"dir1", "dir2"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	require.Error(t, cmd.Execute())
}

func TestWatchCmdFailsWithoutProvisionedModel(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("WEBINDEX_DATA_ROOT", t.TempDir())

	cmd := newWatchCmd()
	cmd.SetArgs([]string{t.TempDir()})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	require.Error(t, cmd.Execute())
}
