package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"commerce-service/internal/server"
	"commerce-service/internal/tokenstore"
	"commerce-service/pkg/config"
	"commerce-service/pkg/database"
	"commerce-service/pkg/jwtutil"
	"commerce-service/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()
	log.Info("Starting commerce service...", cfg.LogConfig()...)

	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close(db)
	log.Info("Database connection established")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Reset tokens live in Redis when configured, otherwise in the database
	var tokens tokenstore.Store = tokenstore.NewGormStore(db, cfg.Reset.TokenTTL)
	if cfg.Redis.Enabled() {
		rdb, err := tokenstore.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer rdb.Close()
		tokens = tokenstore.NewRedisStore(rdb, cfg.Reset.TokenTTL)
		log.Info("Using Redis for password reset tokens", zap.String("addr", cfg.Redis.Addr))
	}

	e := server.New(server.Deps{
		Config: cfg,
		DB:     db,
		JWT:    jwtutil.NewJWTUtil(&cfg.JWT),
		Tokens: tokens,
		Logger: log,
	})

	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
