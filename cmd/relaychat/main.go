package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/liqtags/relaychat/internal/archive"
	"github.com/liqtags/relaychat/internal/config"
	"github.com/liqtags/relaychat/internal/domain"
	"github.com/liqtags/relaychat/internal/handler"
	"github.com/liqtags/relaychat/internal/hub"
	"github.com/liqtags/relaychat/internal/presence"
	"github.com/liqtags/relaychat/internal/repository"
	"github.com/liqtags/relaychat/internal/service"
	"github.com/liqtags/relaychat/pkg/database"
	"github.com/liqtags/relaychat/pkg/jwt"
	applog "github.com/liqtags/relaychat/pkg/log"
	"github.com/liqtags/relaychat/pkg/middleware"
	"github.com/liqtags/relaychat/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	applog.Init(cfg.Log)
	logger := applog.L()

	if cfg.Auth.JWTSecret == "" {
		logger.Fatal().Msg("auth.jwt_secret (or JWT_SECRET) must be set")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db, &domain.UserModel{}, &domain.TodoModel{}, &domain.FileModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database ready")

	tokens, err := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL, cfg.Auth.Issuer)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create token manager")
	}

	store, err := newStorage(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise storage")
	}

	registry, err := newPresence(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise presence registry")
	}
	defer registry.Close()

	archiver, err := newArchiver(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise message archive")
	}
	defer archiver.Close()

	// Repositories and services
	userRepo := repository.NewGormUserRepository(db)
	todoRepo := repository.NewGormTodoRepository(db)
	fileRepo := repository.NewGormFileRepository(db)

	authSvc := service.NewAuthService(userRepo, tokens)
	todoSvc := service.NewTodoService(todoRepo)
	fileSvc := service.NewFileService(fileRepo, store)

	chatHub := hub.New(cfg.Chat.SubscriberBuffer)

	// Handlers
	authMW := middleware.NewAuthMiddleware(tokens)
	authHandler := handler.NewAuthHandler(authSvc)
	todoHandler := handler.NewTodoHandler(todoSvc)
	fileHandler := handler.NewFileHandler(fileSvc)
	wsHandler := handler.NewWSHandler(chatHub, registry, archiver, cfg.WebSocket)
	systemHandler := handler.NewSystemHandler(chatHub, registry)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), applog.GinMiddleware(*logger))

	handler.RegisterRoutes(r, authHandler, todoHandler, fileHandler, wsHandler, systemHandler, authMW)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	logger.Info().Msg("server stopped")
}

func newStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case "s3":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return storage.NewS3Storage(ctx, cfg.Storage.S3)
	case "local", "":
		return storage.NewLocalStorage(cfg.Storage.Local)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Storage.Driver)
	}
}

func newPresence(cfg *config.Config) (presence.Registry, error) {
	if cfg.Redis.Enabled {
		return presence.NewRedisRegistry(cfg.Redis)
	}
	return presence.NewLocalRegistry(), nil
}

func newArchiver(cfg *config.Config) (archive.Archiver, error) {
	if cfg.Kafka.Enabled {
		return archive.NewConfluentArchiver(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Partitions)
	}
	return archive.Disabled{}, nil
}
