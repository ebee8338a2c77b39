// @title           User API
// @version         1.0
// @description     CRUD API for a single user resource.
// @host            localhost:8080
// @BasePath        /api
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/ray-SDJ/comparison/internal/app"
	"github.com/ray-SDJ/comparison/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("config loaded (env=%s), connecting to storage...", cfg.App.Env)
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("app init: %v", err)
	}

	runErr := application.Run(ctx)

	if err := application.Close(); err != nil {
		log.Printf("close: %v", err)
	}

	if runErr != nil {
		log.Fatalf("server: %v", runErr)
	}
	log.Printf("server stopped")
}
