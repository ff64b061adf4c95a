// Package main is the entry point for the opencv-build CLI.
//
// Build-time variables (version, commit, date) are injected via ldflags,
// e.g. -ldflags "-X main.version=1.0.0". During development they default
// to "dev", "none" and "unknown".
package main

import (
	"github.com/shinji-kodama/opencv-build/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	cli.Execute()
}
