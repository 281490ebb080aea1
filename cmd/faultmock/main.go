// faultmock CLI - Command-line interface for the faultmock server
package main

import (
	"context"
	"os"

	"github.com/getmockd/faultmock/pkg/cli"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	cli.Version = Version
	cli.Commit = Commit
	cli.BuildDate = BuildDate
	return cli.Execute(context.Background())
}
