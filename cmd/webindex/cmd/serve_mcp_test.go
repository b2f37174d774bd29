package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServeMCPCmdRejectsArgs(t *testing.T) {
	cmd := newServeMCPCmd()
	cmd.SetArgs([]string{"unexpected"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	require.Error(t, cmd.Execute())
}

func TestServeMCPCmdFailsWithoutProvisionedModel(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("WEBINDEX_DATA_ROOT", t.TempDir())

	cmd := newServeMCPCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	require.Error(t, cmd.Execute())
}
