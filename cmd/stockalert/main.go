package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"StockAlert/internal/cli"
	"StockAlert/internal/config"
	"StockAlert/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(config.AppDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		return 1
	}

	logger, closer := logging.New(cfg.Log, os.Stderr)
	defer closer.Close()
	logger.Debug().Str("app_dir", cfg.AppDir).Str("provider", cfg.Provider).Msg("config loaded")

	// SIGINT/SIGTERM stop the monitor between ticks.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(cfg, logger)
	if err := cli.NewRootCmd(app).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
