// Package main is the entry point for the release-pr CLI application.
package main

import (
	"fmt"
	"os"

	"github.com/danielolaszy/release-pr/cmd"
	"github.com/danielolaszy/release-pr/internal/logging"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	logging.Debug("starting release-pr", "version", version)

	if err := cmd.Execute(); err != nil {
		logging.Error("command execution failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
