package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestCmdRequiresExactlyOneArg(t *testing.T) {
	cmd := newIngestCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()

	require.Error(t, err)
}

func TestIngestCmdFailsOnMissingFile(t *testing.T) {
	cmd := newIngestCmd()
	cmd.SetArgs([]string{"/nonexistent/archive.mhtml"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "read archive file")
}

func TestIngestCmdHasURLAndTitleFlags(t *testing.T) {
	cmd := newIngestCmd()

	assert.NotNil(t, cmd.Flags().Lookup("url"))
	assert.NotNil(t, cmd.Flags().Lookup("title"))
}
