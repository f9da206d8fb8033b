package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"milsabores/pkg/app"
)

// main exposes a root-level entry point so operators can simply run
// `go run milsabores.go`.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args[1:], nil); err != nil {
		logger, _ := zap.NewProduction()
		logger.Fatal("application stopped with error", zap.Error(err))
	}
}
