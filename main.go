package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/dcos/dcos-test-utils/cmd"
	"github.com/dcos/dcos-test-utils/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := cmd.NewRootCommand(config.NewConfigurationWithOptionsAndDefaults())
	err := root.ExecuteContext(ctx)
	_ = zap.L().Sync()
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
