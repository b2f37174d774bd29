// Package main provides the entry point for the webindex CLI.
package main

import (
	"os"

	"github.com/webindex/webindex/cmd/webindex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
