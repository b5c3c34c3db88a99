package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okravets/volleyball-match-service/internal/config"
	"github.com/okravets/volleyball-match-service/internal/handler"
	"github.com/okravets/volleyball-match-service/internal/logger"
	"github.com/okravets/volleyball-match-service/internal/repository"
	"github.com/okravets/volleyball-match-service/internal/repository/postgres"
	"github.com/okravets/volleyball-match-service/internal/service"
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
	pool, err := repository.NewPool(ctx, cfg, &appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pool.Close()

	records := postgres.NewMatchRepository(pool.Pgx())
	txManager := postgres.NewTxManager(pool.Pgx())
	pinger := postgres.NewPinger(pool.Pgx())
	matchSvc := service.NewMatchService(records, txManager, appLogger)

	if cfg.App.Env == "prod" || cfg.App.Env == "staging" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	handler.Register(engine, pinger, matchSvc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		appLogger.Info().Int("port", cfg.App.Port).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	appLogger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("graceful shutdown failed")
	}
	appLogger.Info().Msg("server stopped")
}
