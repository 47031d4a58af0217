package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/simaogato/dcaflow-backend/internal/adapter/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd(cli.Options{}).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
