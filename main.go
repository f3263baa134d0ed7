// ./main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/codegraph-cli/cmd"
	"github.com/xkilldash9x/codegraph-cli/internal/observability"
)

// main is the entry point for the codegraph CLI application.
func main() {
	// Interrupts cancel in-flight extraction work instead of killing it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx)
	observability.Sync()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
