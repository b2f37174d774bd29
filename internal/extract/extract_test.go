package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractStripsScriptsAndStyles(t *testing.T) {
	source := `<html><head><style>body{color:red}</style></head>
	<body><script>alert(1)</script><nav>menu</nav>
	<article><p>Main   article   text.</p></article></body></html>`

	text, err := Extract(source)
	require.NoError(t, err)
	require.Contains(t, text, "Main article text.")
	require.NotContains(t, text, "alert(1)")
	require.NotContains(t, text, "color:red")
}

func TestExtractEmptyDocumentFails(t *testing.T) {
	_, err := Extract("<html><head></head><body><script>x</script></body></html>")
	require.Error(t, err)
}
