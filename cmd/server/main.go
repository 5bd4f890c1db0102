package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/sortify/internal/logging"
	"github.com/dmitrijs2005/sortify/internal/server"
	"github.com/dmitrijs2005/sortify/internal/server/config"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.LoadConfig(args)
	if err != nil {
		return err
	}

	logger, err := logging.NewJSON(os.Stdout, cfg.LogLevel)
	if err != nil {
		return err
	}

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "init failed", "error", err)
		return err
	}

	return app.Run(ctx)
}
