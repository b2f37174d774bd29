package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeleteCmdRequiresExactlyOneArg(t *testing.T) {
	cmd := newDeleteCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()

	require.Error(t, err)
}

func TestDeleteCmdFailsWithoutProvisionedModel(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("WEBINDEX_DATA_ROOT", t.TempDir())

	cmd := newDeleteCmd()
	cmd.SetArgs([]string{"some-page-id"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	// No ONNX model is provisioned in the test environment, so buildApp
	// must fail fast rather than silently no-op.
	err := cmd.Execute()

	require.Error(t, err)
}
