// Command portal corre el servidor HTTP del portal educativo.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/campuslibre/portal/internal/app"
	"github.com/campuslibre/portal/internal/config"
	"github.com/campuslibre/portal/internal/observability/logger"
	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "", "ruta al YAML de configuración (opcional)")
	flag.Parse()

	// .env local si existe; en prod las variables vienen del entorno real.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: "info", ServiceName: "portal"})
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.L().Fatal("startup failed", logger.Err(err))
	}

	if err := a.Run(ctx); err != nil {
		logger.L().Fatal("server exited with error", logger.Err(err))
	}
}
