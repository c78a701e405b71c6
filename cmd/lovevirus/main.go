package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lovevirus/internal/app"
)

func main() {
	cfg, err := app.LoadConfig(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&cfg).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
