package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/codeman/internal/codecache"
	"github.com/xxxsen/codeman/internal/config"
	"github.com/xxxsen/codeman/internal/db"
	"github.com/xxxsen/codeman/internal/fetcher"
	"github.com/xxxsen/codeman/internal/filestore"
	"github.com/xxxsen/codeman/internal/handler"
	"github.com/xxxsen/codeman/internal/job"
	"github.com/xxxsen/codeman/internal/metrics"
	"github.com/xxxsen/codeman/internal/middleware"
	"github.com/xxxsen/codeman/internal/oauth"
	"github.com/xxxsen/codeman/internal/pkg/jwt"
	"github.com/xxxsen/codeman/internal/repo"
	"github.com/xxxsen/codeman/internal/schedule"
	"github.com/xxxsen/codeman/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "codeman",
		Short: "codeman template sharing backend",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run codeman server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cmd.Context(), cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

// openTemplateRepo returns the configured repository and a function releasing its connection.
func openTemplateRepo(ctx context.Context, cfg config.DatabaseConfig) (service.TemplateRepository, func(), error) {
	switch cfg.Type {
	case "memory":
		return repo.NewMemoryTemplateRepo(), func() {}, nil
	case "postgres":
		conn, err := db.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.ApplyMigrations(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		return repo.NewPostgresTemplateRepo(conn), func() { _ = conn.Close() }, nil
	default:
		timeout := time.Duration(cfg.Mongo.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client, err := repo.ConnectMongo(ctx, cfg.Mongo.URI, timeout)
		if err != nil {
			return nil, nil, err
		}
		col := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
		closer := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		}
		return repo.NewMongoTemplateRepo(ctx, col), closer, nil
	}
}

func buildRateLimiter(cfg config.RateLimitConfig) (gin.HandlerFunc, func()) {
	if cfg.RedisAddr == "" {
		return middleware.RateLimit(cfg.RPS, cfg.Burst), func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	window := time.Duration(cfg.WindowSeconds) * time.Second
	return middleware.RedisRateLimit(client, cfg.RPS, cfg.Burst, window), func() { _ = client.Close() }
}

func runServer(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logutil.GetLogger(ctx).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database.Type),
		zap.String("file_store", cfg.FileStore.Type),
	)
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	templates, closeRepo, err := openTemplateRepo(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeRepo()

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	shareKey := jwt.DeriveKey([]byte(cfg.JWTSecret), jwt.PurposeShare)
	identityKey := jwt.DeriveKey([]byte(cfg.JWTSecret), jwt.PurposeIdentity)
	codeFetcher := codecache.WrapLruCacheToFetcher(
		fetcher.NewHTTPFetcher(&http.Client{}, fetcher.DefaultTimeout),
		cfg.CodeProxy.CacheSize,
		time.Duration(cfg.CodeProxy.CacheTTLSeconds)*time.Second,
	)
	blobBases := append([]string{store.URL("")}, cfg.CodeProxy.AllowedBaseURLs...)
	codeService := service.NewCodeService(codeFetcher, blobBases...)
	templateService := service.NewTemplateService(templates, store, codeService)
	shareService := service.NewShareService(templates, shareKey, cfg.Share.BaseURL)

	providers, err := oauth.BuildProviders(cfg.OAuth)
	if err != nil {
		return fmt.Errorf("init oauth providers: %w", err)
	}
	identityService := service.NewIdentityService(identityKey, time.Duration(cfg.Auth.IdentityTTLHours)*time.Hour, providers)

	deps := handler.RouterDeps{
		Templates:            handler.NewTemplateHandler(templateService),
		Shares:               handler.NewShareHandler(shareService),
		Code:                 handler.NewCodeHandler(codeService),
		OAuth:                handler.NewOAuthHandler(identityService),
		JWTSecret:            identityKey,
		RequireAuthForWrites: cfg.Auth.RequireAuthForWrites,
		Metrics:              true,
	}
	if store.Type() == "local" {
		deps.Files = handler.NewFileHandler(store)
	}

	scheduler := schedule.NewCronScheduler()
	if cfg.Cleanup.OrphanBlobCron != "" {
		sweep := job.NewOrphanBlobCleanupJob(templates, store, time.Duration(cfg.Cleanup.GraceMinutes)*time.Minute)
		if err := scheduler.AddJob(sweep, cfg.Cleanup.OrphanBlobCron); err != nil {
			return err
		}
	}

	limiter, closeLimiter := buildRateLimiter(cfg.RateLimit)
	defer closeLimiter()

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.Metrics(),
			middleware.CORS(cfg.CORSAllowlist),
			limiter,
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", addr))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
