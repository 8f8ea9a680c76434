package main

import (
	"context"
	"log"
	"os"

	"example.com/blog-api/internal/app"
	"example.com/blog-api/internal/logging"
	"example.com/blog-api/internal/platform/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	logger := logging.New(cfg.Env, os.Stdout)
	ctx := context.Background()
	logger.Info(ctx, "Config loaded", cfg.LogAttrs()...)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "Failed to initialise app", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		logger.Error(ctx, "Server stopped", "error", err)
		a.Close()
		os.Exit(1)
	}
}
