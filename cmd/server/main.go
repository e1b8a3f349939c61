package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"alertify/internal/auth"
	"alertify/internal/config"
	apphttp "alertify/internal/http"
	"alertify/internal/keystore"
	"alertify/internal/repository/sqlstore"
	"alertify/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	configureLogger(logger, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn := cfg.Database.Path
	if cfg.Database.Driver == sqlstore.DriverPostgres {
		dsn = cfg.Database.DSN
	}
	db, err := sqlstore.Open(ctx, cfg.Database.Driver, dsn)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Fatalf("migrate database: %v", err)
	}

	source, err := buildKeySource(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup key source: %v", err)
	}
	ring, err := keystore.NewRing(ctx, source, logger)
	if err != nil {
		logger.Fatalf("load signing keys: %v", err)
	}
	if cfg.Keys.Source == "s3" {
		go ring.Watch(ctx, cfg.Keys.Refresh)
	}

	userRepo := sqlstore.NewUserRepository(db)
	taskRepo := sqlstore.NewTaskRepository(db)

	userService := service.NewUserService(userRepo, taskRepo, db, cfg.Auth.BcryptCost)
	taskService := service.NewTaskService(taskRepo, userRepo, db)
	tokens := auth.NewTokenService(ring, cfg.Auth.TokenTTL, auth.WithIssuer(cfg.Auth.Issuer))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		db.StatsCollector(),
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(userService, taskService, tokens, apphttp.Options{
		Logger:     logger,
		Registry:   registry,
		LoginRate:  cfg.Auth.LoginRate,
		LoginBurst: cfg.Auth.LoginBurst,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func configureLogger(logger *logrus.Logger, cfg config.Config) {
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
}

func buildKeySource(ctx context.Context, cfg config.Config, logger *logrus.Logger) (keystore.Source, error) {
	switch cfg.Keys.Source {
	case "static":
		logger.Infof("using static signing key %s", cfg.Keys.ID)
		return keystore.StaticSource{ID: cfg.Keys.ID, Secret: cfg.Keys.Secret}, nil
	case "s3":
		client, err := keystore.NewS3Client(ctx, keystore.S3Config{
			Bucket:   cfg.Keys.Bucket,
			Object:   cfg.Keys.Object,
			Region:   cfg.Keys.Region,
			Endpoint: cfg.Keys.Endpoint,
			Profile:  cfg.AWS.Profile,
		})
		if err != nil {
			return nil, err
		}
		logger.Infof("using signing keys from s3://%s/%s (region %s)", cfg.Keys.Bucket, cfg.Keys.Object, cfg.Keys.Region)
		return keystore.NewS3Source(client, cfg.Keys.Bucket, cfg.Keys.Object), nil
	default:
		return nil, fmt.Errorf("unsupported key source %q", cfg.Keys.Source)
	}
}
