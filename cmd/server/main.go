package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/opencatalog/metadata-service/internal/config"
	"github.com/opencatalog/metadata-service/internal/cursor"
	"github.com/opencatalog/metadata-service/internal/handler"
	"github.com/opencatalog/metadata-service/internal/logger"
	"github.com/opencatalog/metadata-service/internal/model"
	"github.com/opencatalog/metadata-service/internal/paging"
	"github.com/opencatalog/metadata-service/internal/repository"
	"github.com/opencatalog/metadata-service/internal/repository/postgres"
	"github.com/opencatalog/metadata-service/internal/service"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("config loading failed: %v", err)
	}

	appLogger, err := logger.New(&cfg.Logger)
	if err != nil {
		log.Fatalf("logger initialization failed: %v", err)
	}

	ctx := context.Background()
	pool, err := repository.New(ctx, cfg, &appLogger)
	if err != nil {
		log.Fatalf("postgres connection failed: %v", err)
	}
	defer pool.Close()

	codec, err := cursor.New(cfg.Cursor.Mode, cfg.Cursor.Secret)
	if err != nil {
		log.Fatalf("cursor codec init failed: %v", err)
	}

	pgx := pool.Pgx()
	charts := postgres.NewChartRepository(pgx)
	services := postgres.NewServiceRepository(pgx)
	tags := postgres.NewTagRepository(pgx)
	tx := postgres.NewTxManager(pgx)
	pinger := postgres.NewPinger(pgx)

	pager := paging.New(charts, codec, func(c model.Chart) string { return c.FullyQualifiedName })

	chartSvc := service.NewChartService(charts, services, tags, tx, pager, appLogger)
	registry := service.NewServiceRegistry(services, appLogger)

	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	handler.Register(r, pinger, chartSvc, registry)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	appLogger.Info().Str("addr", addr).Msg("service started")
	if err := r.Run(addr); err != nil {
		appLogger.Fatal().Err(err).Msg("http server exited")
	}
}
