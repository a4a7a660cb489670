package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ramiqadoumi/go-drive-quest/internal/handlers"
	"github.com/ramiqadoumi/go-drive-quest/internal/kafka"
	redisstore "github.com/ramiqadoumi/go-drive-quest/internal/redis"
	"github.com/ramiqadoumi/go-drive-quest/pkg/telemetry"
	"github.com/ramiqadoumi/go-drive-quest/services/worker"
	"github.com/ramiqadoumi/go-drive-quest/services/worker/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the worker",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("kafka-brokers", "localhost:9092", "comma-separated Kafka broker addresses")
	serveCmd.Flags().String("topic", kafka.TopicProgressEvents, "topic to consume progress events from")
	serveCmd.Flags().String("dlq-topic", kafka.TopicProgressDLQ, "topic for events that exhausted their retries")
	serveCmd.Flags().String("group-id", "drivequest-worker", "Kafka consumer group")
	serveCmd.Flags().String("redis-addr", "localhost:6379", "Redis address (host:port)")
	serveCmd.Flags().Int("max-retries", 3, "maximum retry attempts per handler")
	serveCmd.Flags().Duration("event-timeout", 30*time.Second, "per-attempt handler timeout")
	serveCmd.Flags().Duration("retry-base-delay", time.Second, "quadratic backoff base delay")
	serveCmd.Flags().String("reward-webhook-url", "", "fulfilment endpoint for claimed rewards; empty disables")
	serveCmd.Flags().String("reward-webhook-token", "", "bearer token sent to the fulfilment endpoint")
	serveCmd.Flags().String("smtp-host", "", "SMTP server host; empty disables reward emails")
	serveCmd.Flags().Int("smtp-port", 1025, "SMTP server port")
	serveCmd.Flags().String("smtp-from", "noreply@drivequest.app", "SMTP sender address")
	serveCmd.Flags().String("smtp-username", "", "SMTP auth username")
	serveCmd.Flags().String("smtp-password", "", "SMTP auth password or app password")
	serveCmd.Flags().String("metrics-addr", ":9091", "Prometheus metrics server address")
	serveCmd.Flags().String("otel-endpoint", "", "OTLP HTTP endpoint for tracing (e.g. localhost:4318); empty disables tracing")
	serveCmd.Flags().Float64("otel-sample-ratio", 1, "fraction of traces to sample")

	bindFlag("kafka_brokers", serveCmd.Flags(), "kafka-brokers")
	bindFlag("topic", serveCmd.Flags(), "topic")
	bindFlag("dlq_topic", serveCmd.Flags(), "dlq-topic")
	bindFlag("group_id", serveCmd.Flags(), "group-id")
	bindFlag("redis_addr", serveCmd.Flags(), "redis-addr")
	bindFlag("max_retries", serveCmd.Flags(), "max-retries")
	bindFlag("event_timeout", serveCmd.Flags(), "event-timeout")
	bindFlag("retry_base_delay", serveCmd.Flags(), "retry-base-delay")
	bindFlag("reward_webhook_url", serveCmd.Flags(), "reward-webhook-url")
	bindFlag("reward_webhook_token", serveCmd.Flags(), "reward-webhook-token")
	bindFlag("smtp_host", serveCmd.Flags(), "smtp-host")
	bindFlag("smtp_port", serveCmd.Flags(), "smtp-port")
	bindFlag("smtp_from", serveCmd.Flags(), "smtp-from")
	bindFlag("smtp_username", serveCmd.Flags(), "smtp-username")
	bindFlag("smtp_password", serveCmd.Flags(), "smtp-password")
	bindFlag("metrics_addr", serveCmd.Flags(), "metrics-addr")
	bindFlag("otel_endpoint", serveCmd.Flags(), "otel-endpoint")
	bindFlag("otel_sample_ratio", serveCmd.Flags(), "otel-sample-ratio")
	_ = viper.BindEnv("otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load(viper.GetViper())
	workerID := "worker-" + uuid.New().String()[:8]

	logger := buildLogger(cfg.LogLevel, "worker").With(slog.String("worker_id", workerID))

	shutdownTracer, err := telemetry.InitTracer(context.Background(), "drivequest-worker", cfg.OTelEndpoint, cfg.OTelSampleRatio)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer shutdownTracer()

	brokers := strings.Split(cfg.KafkaBrokers, ",")

	consumer := kafka.NewConsumer(brokers, cfg.Topic, cfg.GroupID, logger)
	defer func() { _ = consumer.Close() }()

	producer := kafka.NewProducer(brokers)
	defer func() { _ = producer.Close() }()

	redisClient := redisstore.NewClient(cfg.RedisAddr)
	defer func() { _ = redisClient.Close() }()

	registry := buildRegistry(cfg, redisClient, logger)

	w := worker.NewWorker(
		workerID, consumer, producer, redisstore.NewProcessedSet(redisClient), registry,
		worker.WithLogger(logger),
		worker.WithRetries(cfg.MaxRetries),
		worker.WithTimeout(cfg.EventTimeout),
		worker.WithBaseDelay(cfg.RetryBaseDelay),
		worker.WithDLQTopic(cfg.DLQTopic),
	)

	runCtx, runCancel := context.WithCancel(context.Background())
	telemetry.StartMetricsServer(runCtx, cfg.MetricsAddr, logger, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-quit
		logger.Info("shutting down, draining in-flight events...")
		runCancel()
	}()

	logger.Info("worker starting",
		slog.String("topic", cfg.Topic),
		slog.String("group_id", cfg.GroupID),
		slog.Int("max_retries", cfg.MaxRetries),
		slog.Duration("event_timeout", cfg.EventTimeout),
	)

	if err := w.Run(runCtx); err != nil {
		return fmt.Errorf("worker: %w", err)
	}

	w.Wait()
	logger.Info("stopped cleanly")
	return nil
}

// buildRegistry always wires the leaderboard and cache handlers; the reward
// fulfilment handlers only when their endpoints are configured.
func buildRegistry(cfg config.Config, redisClient *redisstore.Client, logger *slog.Logger) *handlers.Registry {
	registry := handlers.NewRegistry()
	registry.Register(handlers.NewLeaderboardHandler(redisstore.NewLeaderboard(redisClient)))
	registry.Register(handlers.NewCacheInvalidationHandler(redisstore.NewResponseCache(redisClient), logger))

	if cfg.RewardWebhookURL != "" {
		registry.Register(handlers.NewRewardWebhookHandler(cfg.RewardWebhookURL, cfg.RewardWebhookToken))
	}
	if cfg.SMTPHost != "" {
		registry.Register(handlers.NewRewardEmailHandler(handlers.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			From:     cfg.SMTPFrom,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		}, nil))
	}
	return registry
}
