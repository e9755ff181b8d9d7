package main

import (
	"fmt"
	"os"

	"github.com/marmos91/nfsbench/cmd/nfsbench/commands"
	"github.com/marmos91/nfsbench/internal/sysexits"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "nfsbench: %v\n", err)
		os.Exit(int(commands.ExitCodeFor(err)))
	}
	os.Exit(int(sysexits.OK))
}
