package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ramiqadoumi/go-drive-quest/internal/auth"
	"github.com/ramiqadoumi/go-drive-quest/internal/cache"
	"github.com/ramiqadoumi/go-drive-quest/internal/catalog"
	"github.com/ramiqadoumi/go-drive-quest/internal/events"
	"github.com/ramiqadoumi/go-drive-quest/internal/kafka"
	"github.com/ramiqadoumi/go-drive-quest/internal/postgres"
	"github.com/ramiqadoumi/go-drive-quest/internal/progress"
	redisstore "github.com/ramiqadoumi/go-drive-quest/internal/redis"
	"github.com/ramiqadoumi/go-drive-quest/pkg/telemetry"
	"github.com/ramiqadoumi/go-drive-quest/services/api/config"
	"github.com/ramiqadoumi/go-drive-quest/services/api/handler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("http-port", "8080", "HTTP server port")
	serveCmd.Flags().String("metrics-addr", ":9095", "Prometheus metrics server address")
	serveCmd.Flags().String("kafka-brokers", "localhost:9092", "comma-separated Kafka broker addresses")
	serveCmd.Flags().String("topic", kafka.TopicProgressEvents, "topic progress events are published to")
	serveCmd.Flags().String("redis-addr", "localhost:6379", "Redis address (host:port)")
	serveCmd.Flags().String("jwt-secret", "changeme", "JWT signing secret")
	serveCmd.Flags().String("jwt-issuer", "drivequest", "JWT issuer claim")
	serveCmd.Flags().Duration("token-ttl", auth.DefaultTokenTTL, "access token lifetime")
	serveCmd.Flags().String("timezone", "UTC", "IANA timezone that defines the calendar day")
	serveCmd.Flags().String("reset-policy", "none", "task reset policy: none | daily | weekly")
	serveCmd.Flags().Int("streak-task-id", progress.DefaultStreakTaskID, "catalog task whose completion advances the streak")
	serveCmd.Flags().Duration("cache-ttl", time.Hour, "shared response cache TTL")
	serveCmd.Flags().Int("local-cache-size", 1024, "in-process response cache entries")
	serveCmd.Flags().Duration("local-cache-ttl", 30*time.Second, "in-process response cache TTL")
	serveCmd.Flags().Int("login-rate-limit", 10, "login attempts allowed per email per window")
	serveCmd.Flags().Duration("login-rate-window", 15*time.Minute, "login rate limit window")
	serveCmd.Flags().String("otel-endpoint", "", "OTLP HTTP endpoint for tracing (e.g. localhost:4318); empty disables tracing")
	serveCmd.Flags().Float64("otel-sample-ratio", 1, "fraction of traces to sample")

	bindFlag("http_port", serveCmd.Flags(), "http-port")
	bindFlag("metrics_addr", serveCmd.Flags(), "metrics-addr")
	bindFlag("kafka_brokers", serveCmd.Flags(), "kafka-brokers")
	bindFlag("topic", serveCmd.Flags(), "topic")
	bindFlag("redis_addr", serveCmd.Flags(), "redis-addr")
	bindFlag("jwt_secret", serveCmd.Flags(), "jwt-secret")
	bindFlag("jwt_issuer", serveCmd.Flags(), "jwt-issuer")
	bindFlag("token_ttl", serveCmd.Flags(), "token-ttl")
	bindFlag("timezone", serveCmd.Flags(), "timezone")
	bindFlag("reset_policy", serveCmd.Flags(), "reset-policy")
	bindFlag("streak_task_id", serveCmd.Flags(), "streak-task-id")
	bindFlag("cache_ttl", serveCmd.Flags(), "cache-ttl")
	bindFlag("local_cache_size", serveCmd.Flags(), "local-cache-size")
	bindFlag("local_cache_ttl", serveCmd.Flags(), "local-cache-ttl")
	bindFlag("login_rate_limit", serveCmd.Flags(), "login-rate-limit")
	bindFlag("login_rate_window", serveCmd.Flags(), "login-rate-window")
	bindFlag("otel_endpoint", serveCmd.Flags(), "otel-endpoint")
	bindFlag("otel_sample_ratio", serveCmd.Flags(), "otel-sample-ratio")
	_ = viper.BindEnv("otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load(viper.GetViper())
	logger := buildLogger(cfg.LogLevel, "api")

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	loc, _ := cfg.Location()
	policy, _ := cfg.Policy()
	if cfg.JWTSecret == "changeme" {
		logger.Warn("jwt_secret is the default value; set a real secret outside development")
	}

	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if _, err := cat.Task(cfg.StreakTaskID); err != nil {
		return fmt.Errorf("streak_task_id: %w", err)
	}

	shutdownTracer, err := telemetry.InitTracer(context.Background(), "drivequest-api", cfg.OTelEndpoint, cfg.OTelSampleRatio)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer shutdownTracer()

	brokers := strings.Split(cfg.KafkaBrokers, ",")
	producer := kafka.NewProducer(brokers)
	defer func() { _ = producer.Close() }()

	redisClient := redisstore.NewClient(cfg.RedisAddr)
	defer func() { _ = redisClient.Close() }()

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := postgres.NewPool(initCtx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	responses, err := cache.NewTiered(redisstore.NewResponseCache(redisClient), cfg.LocalCacheSize, cfg.LocalCacheTTL,
		cache.SharedOnly(handler.RankingPath))
	if err != nil {
		return fmt.Errorf("response cache: %w", err)
	}

	checks := []telemetry.ReadyFunc{
		func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		func(ctx context.Context) error { return pool.Ping(ctx) },
	}

	rest := handler.NewREST(handler.Deps{
		Catalog:      cat,
		Users:        postgres.NewUserRepository(pool),
		Completions:  postgres.NewCompletionRepository(pool),
		Missions:     postgres.NewMissionRepository(pool),
		Rewards:      postgres.NewRewardRepository(pool),
		Streaks:      redisstore.NewStreakStore(redisClient),
		Sessions:     redisstore.NewGameSessionStore(redisClient),
		Leaderboard:  redisstore.NewLeaderboard(redisClient),
		LoginLimiter: redisstore.NewRateLimiter(redisClient, "login", cfg.LoginRateLimit, cfg.LoginRateWindow),
		Tokens:       auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL),
		Events:       events.NewPublisher(producer, cfg.Topic, logger),
		Logger:       logger,
		Location:     loc,
		ResetPolicy:  policy,
		StreakTaskID: cfg.StreakTaskID,
		ReadyChecks:  checks,
	})

	httpSrv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      rest.Routes(responses, cfg.CacheTTL),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	telemetry.StartMetricsServer(runCtx, cfg.MetricsAddr, logger, checks...)

	go func() {
		logger.Info("api HTTP starting",
			slog.String("addr", httpSrv.Addr),
			slog.String("timezone", loc.String()),
			slog.String("reset_policy", string(policy)),
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-quit
	logger.Info("shutting down...")
	runCancel()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutCancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		logger.Error("HTTP shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("stopped")
	return nil
}
