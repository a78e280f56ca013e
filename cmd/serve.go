package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/deepfake-check/internal/config"
	"github.com/example/deepfake-check/internal/detector"
	"github.com/example/deepfake-check/internal/handlers"
	"github.com/example/deepfake-check/internal/logging"
	"github.com/example/deepfake-check/internal/repository"
	"github.com/example/deepfake-check/internal/storage"
	"github.com/example/deepfake-check/internal/usecase"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the upload API that forwards images to the detection model",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadServer()
		if cmd.Flags().Changed("addr") {
			cfg.ListenAddr = serveAddr
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		return runServe(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address (default $LISTEN_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context, cfg config.Server) error {
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	initCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	db, err := initDatabase(initCtx, cfg)
	if err != nil {
		return err
	}
	repo := repository.NewUploadRepository(db, logger)
	if err := repo.AutoMigrate(initCtx); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}

	redisClient, err := initRedis(initCtx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	store, err := storage.NewLocalStorage(cfg.StorageDir)
	if err != nil {
		return err
	}

	if cfg.DetectorAPIKey == "" {
		logger.Warn("DETECTOR_API_KEY is empty; detection calls will be rejected upstream")
	}
	det := detector.NewHTTPClient(cfg.DetectorURL, cfg.DetectorAPIKey, cfg.DetectorTimeout, logger)

	uc := usecase.NewAnalysisUseCase(repo, usecase.NewRedisCache(redisClient), det, store, cfg.CacheTTL, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	handlers.RegisterRoutes(r, uc, logger)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("deepfake API listening", zap.String("addr", cfg.ListenAddr))
	return serveHTTPServer(ctx, server, cfg.ShutdownTimeout, logger, nil)
}

func initDatabase(ctx context.Context, cfg config.Server) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseDSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access db handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return db, nil
}

func initRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// serveHTTPServer runs server until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout. A nil listener means ListenAndServe.
func serveHTTPServer(ctx context.Context, server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down", zap.Error(context.Cause(ctx)))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
