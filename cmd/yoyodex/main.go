package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"g2-yoyodex/internal/cli"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(Version, nil).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
