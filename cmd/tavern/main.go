// Command tavern evaluates encounters, browses the monster catalog and serves
// the encounter tools over MCP stdio.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/okian/tavern/internal/cli"
)

// Version is overridden at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.New(os.Stdout, os.Stderr, Version).Run(ctx, os.Args); err != nil {
		os.Stderr.WriteString("tavern: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}
