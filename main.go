package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/s0up4200/bindb/cmd"
)

// Set via -ldflags at release time
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd.SetVersion(version, buildTime)
	code := cmd.Execute(ctx)

	cancel()
	os.Exit(code)
}
