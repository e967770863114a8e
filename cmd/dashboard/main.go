package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"surveydash/internal/app"
	"surveydash/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file (defaults to surveydash.yaml in the working directory)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	application, err := app.NewApplication(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
