package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/app"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/config"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := cfg.RequireServer(); err != nil {
		log.Fatalf("config error: %v", err)
	}

	application, err := app.Open(cfg)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	if err := application.Migrate(context.Background()); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	if cfg.Release() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	routes.Register(router, routes.Services{
		Store:     application.Store,
		Lifecycle: application.Lifecycle,
		Recorder:  application.Recorder,
		Sessions:  application.Sessions,
		Notifier:  application.Notifier,
	}, cfg)

	log.Printf("[server] listening on %s", cfg.Addr)
	if err := router.Run(cfg.Addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
