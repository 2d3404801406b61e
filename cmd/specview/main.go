package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roman-kulish/spectroscrub/cmd/specview/app"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Execute(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
