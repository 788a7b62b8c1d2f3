package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"challenge-portal/internal/auth"
	"challenge-portal/internal/catalog"
	"challenge-portal/internal/config"
	apphttp "challenge-portal/internal/http"
	"challenge-portal/internal/repository"
	"challenge-portal/internal/repository/sqlite"
	"challenge-portal/internal/service"
	"challenge-portal/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	challengeRepo := sqlite.NewChallengeRepository(db)

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := challengeRepo.Init(ctx); err != nil {
		logger.Fatalf("init challenge repository: %v", err)
	}
	if err := seedCatalog(ctx, cfg, challengeRepo, logger); err != nil {
		logger.Fatalf("seed challenges: %v", err)
	}

	images, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	issuer, err := auth.NewIssuer(auth.Config{
		Secret:     cfg.Auth.Secret,
		SessionTTL: cfg.Auth.SessionTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
	})
	if err != nil {
		logger.Fatalf("setup tokens: %v", err)
	}

	userService := service.NewUserService(userRepo, challengeRepo, images, issuer, service.Options{
		OpTimeout:          cfg.Server.RequestTimeout,
		BcryptCost:         cfg.Auth.BcryptCost,
		MaxImageBytes:      cfg.Storage.MaxImageBytes,
		ValidateChallenges: cfg.Challenges.Validate,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(userService, issuer, logger, apphttp.NewMetrics(reg))
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func seedCatalog(ctx context.Context, cfg config.Config, repo repository.ChallengeRepository, logger *logrus.Logger) error {
	if cfg.Challenges.Catalog == "" {
		return nil
	}
	challenges, err := catalog.LoadFile(cfg.Challenges.Catalog)
	if err != nil {
		return err
	}
	n, err := catalog.Import(ctx, repo, challenges)
	if err != nil {
		return err
	}
	logger.Infof("loaded %d challenges from %s", n, cfg.Challenges.Catalog)
	return nil
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.ImageStore, error) {
	if cfg.Storage.Driver != "s3" {
		store, err := storage.NewLocalImageStore(cfg.Storage.Dir)
		if err != nil {
			return nil, err
		}
		logger.Infof("storing profile images under %s", cfg.Storage.Dir)
		return store, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	store, err := storage.NewS3ImageStore(client, cfg.Storage.Bucket, cfg.Storage.KeyPrefix)
	if err != nil {
		return nil, err
	}
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return store, nil
}
