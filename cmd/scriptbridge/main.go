// Package main is the entry point for scriptbridge.
package main

import (
	"os"

	"github.com/dshills/scriptbridge/internal/cli"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := cli.NewRootCommand(cli.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	})
	if err := root.Execute(); err != nil {
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}
