// Package configs provides the embedded default configuration template for
// webindex.
//
// The template is embedded at build time via //go:embed so it is available
// in source builds and binary releases alike, without depending on a
// filesystem path relative to the installed binary.
//
// Used by:
//   - cmd/webindex/cmd/config.go → `webindex config init` seeds
//     ~/.config/webindex/config.yaml from this template.
//
// Configuration hierarchy (see internal/config/config.go Load()):
//  1. Hardcoded defaults (internal/config.NewConfig())
//  2. User config (~/.config/webindex/config.yaml)
//  3. WEBINDEX_* environment variables
package configs

import _ "embed"

// DefaultConfigTemplate is the template written by `webindex config init`.
//
//go:embed default-config.example.yaml
var DefaultConfigTemplate string
