// Command simple is the SIMPLE maturity scoring CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/SIMPLE/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx, cli.BuildInfo{Version: version, Commit: commit, BuildDate: buildDate})
	stop()
	if err != nil {
		os.Exit(1)
	}
}
