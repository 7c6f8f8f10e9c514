package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jdmadden/planning-poker-backend/internal/config"
	"github.com/jdmadden/planning-poker-backend/internal/game"
	"github.com/jdmadden/planning-poker-backend/internal/httpapi"
	"github.com/jdmadden/planning-poker-backend/internal/hub"
	"github.com/jdmadden/planning-poker-backend/internal/store"
)

func main() {
	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	var st store.Store
	if cfg.DatabaseURL != "" {
		st, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("store init failed", zap.Error(err))
		}
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory store")
		st = store.NewMemoryStore()
	}

	svc := game.NewService(st, logger)

	ctx := context.Background()
	h := hub.NewHub(ctx, svc, logger)

	handler := httpapi.SetupRoutes(h, svc, logger)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Production() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
