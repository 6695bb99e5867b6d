package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/boared/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return cli.Execute(ctx, os.Args[1:])
}
