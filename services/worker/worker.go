// Package worker consumes progress events and fans them out to handlers.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
	"github.com/ramiqadoumi/go-drive-quest/internal/events"
	"github.com/ramiqadoumi/go-drive-quest/internal/handlers"
	"github.com/ramiqadoumi/go-drive-quest/internal/kafka"
	redisstore "github.com/ramiqadoumi/go-drive-quest/internal/redis"
	"github.com/ramiqadoumi/go-drive-quest/pkg/retry"
	"github.com/ramiqadoumi/go-drive-quest/pkg/telemetry"
)

// Headers attached to dead-lettered records.
const (
	HeaderDLQReason  = "dlq-reason"
	HeaderDLQHandler = "dlq-handler"
)

// Worker consumes events from Kafka and runs every handler registered for
// the event's type.
type Worker struct {
	consumer   kafka.Consumer
	producer   kafka.Producer
	processed  redisstore.ProcessedSet
	registry   *handlers.Registry
	workerID   string
	dlqTopic   string
	maxRetries int
	timeout    time.Duration
	baseDelay  time.Duration
	maxDelay   time.Duration
	logger     *slog.Logger

	wg       sync.WaitGroup
	inFlight atomic.Int64
}

// Option configures a Worker.
type Option func(*Worker)

func WithRetries(n int) Option             { return func(w *Worker) { w.maxRetries = n } }
func WithTimeout(d time.Duration) Option   { return func(w *Worker) { w.timeout = d } }
func WithLogger(l *slog.Logger) Option     { return func(w *Worker) { w.logger = l } }
func WithBaseDelay(d time.Duration) Option { return func(w *Worker) { w.baseDelay = d } }
func WithMaxDelay(d time.Duration) Option  { return func(w *Worker) { w.maxDelay = d } }
func WithDLQTopic(t string) Option         { return func(w *Worker) { w.dlqTopic = t } }

// NewWorker constructs a Worker. processed may be nil, which disables
// duplicate detection.
func NewWorker(
	workerID string,
	consumer kafka.Consumer,
	producer kafka.Producer,
	processed redisstore.ProcessedSet,
	registry *handlers.Registry,
	opts ...Option,
) *Worker {
	w := &Worker{
		workerID:   workerID,
		consumer:   consumer,
		producer:   producer,
		processed:  processed,
		registry:   registry,
		dlqTopic:   kafka.TopicProgressDLQ,
		maxRetries: 3,
		timeout:    30 * time.Second,
		baseDelay:  time.Second,
		maxDelay:   30 * time.Second,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts consuming and processing messages. Blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	return w.consumer.Subscribe(ctx, w.processMessage)
}

// Wait blocks until all in-flight events finish. Call after Run returns.
func (w *Worker) Wait() { w.wg.Wait() }

// InFlight reports how many events are being handled right now.
func (w *Worker) InFlight() int64 { return w.inFlight.Load() }

// processMessage is the Kafka HandlerFunc. It returns an error only when
// the record could not be dead-lettered, so the offset stays uncommitted.
func (w *Worker) processMessage(consumerCtx context.Context, msg kafka.Message) error {
	ev, err := events.Decode(msg.Value)
	if err != nil {
		w.logger.Error("malformed event, dead-lettering",
			slog.String("error", err.Error()),
			slog.Int64("offset", msg.Offset),
		)
		telemetry.WorkerEventsProcessed.WithLabelValues("unknown", "malformed").Inc()
		return w.deadLetter(consumerCtx, "unknown", string(msg.Key), msg.Value, "", err)
	}

	// Child span parented to the trace context extracted from Kafka headers.
	ctx, span := otel.Tracer("worker").Start(consumerCtx, "worker.process_event")
	defer span.End()
	span.SetAttributes(
		attribute.String("event.id", ev.ID),
		attribute.String("event.type", string(ev.Type)),
		attribute.String("worker.id", w.workerID),
	)

	typ := string(ev.Type)
	log := w.logger.With(
		slog.String("event_id", ev.ID),
		slog.String("event_type", typ),
		slog.String("user_id", ev.UserID),
	)

	if w.processed != nil {
		if seen, err := w.processed.Seen(ctx, ev.ID); err == nil && seen {
			log.Info("event already processed, skipping")
			telemetry.WorkerEventsProcessed.WithLabelValues(typ, "duplicate").Inc()
			return nil
		}
	}

	hs, err := w.registry.Get(ev.Type)
	if err != nil {
		var unhandled *domain.UnhandledEventError
		if errors.As(err, &unhandled) {
			log.Debug("no handler for event type, skipping")
			telemetry.WorkerEventsProcessed.WithLabelValues(typ, "skipped").Inc()
			return nil
		}
		return err
	}

	w.wg.Add(1)
	w.inFlight.Add(1)
	defer func() {
		w.inFlight.Add(-1)
		w.wg.Done()
	}()

	start := time.Now()
	var failed handlers.Handler
	var handleErr error
	for _, h := range hs {
		if err := w.runHandler(ctx, span, log, h, &ev); err != nil {
			failed, handleErr = h, err
			break
		}
	}
	durationSec := time.Since(start).Seconds()
	telemetry.WorkerEventDurationSeconds.WithLabelValues(typ).Observe(durationSec)

	if handleErr != nil {
		log.Error("event dead after all retries",
			slog.String("handler", failed.Name()),
			slog.String("error", handleErr.Error()),
			slog.Int64("duration_ms", int64(durationSec*1000)),
		)
		span.RecordError(handleErr)
		span.SetStatus(codes.Error, "handler exhausted all retries")
		telemetry.WorkerEventsProcessed.WithLabelValues(typ, "dead").Inc()
		return w.deadLetter(ctx, typ, string(msg.Key), msg.Value, failed.Name(), handleErr)
	}

	if w.processed != nil {
		if err := w.processed.MarkProcessed(ctx, ev.ID); err != nil {
			log.Warn("failed to mark event processed", slog.String("error", err.Error()))
		}
	}
	log.Info("event processed",
		slog.Int("handlers", len(hs)),
		slog.Int64("duration_ms", int64(durationSec*1000)),
	)
	telemetry.WorkerEventsProcessed.WithLabelValues(typ, "done").Inc()
	return nil
}

func (w *Worker) runHandler(ctx context.Context, span trace.Span, log *slog.Logger, h handlers.Handler, ev *domain.Event) error {
	typ := string(ev.Type)
	return retry.Do(ctx, retry.Config{
		MaxAttempts: w.maxRetries + 1,
		BaseDelay:   w.baseDelay,
		MaxDelay:    w.maxDelay,
		OnRetry: func(attempt int, retryErr error) {
			telemetry.WorkerRetriesTotal.WithLabelValues(typ).Inc()
			log.Warn("handler failed, retrying",
				slog.String("handler", h.Name()),
				slog.Int("attempt", attempt),
				slog.String("error", retryErr.Error()),
			)
		},
	}, func() error {
		// A fresh context keeps the handler timeout independent of consumer
		// shutdown while still parenting handler spans here.
		execCtx, cancel := context.WithTimeout(
			trace.ContextWithSpan(context.Background(), span),
			w.timeout,
		)
		defer cancel()
		return h.Handle(execCtx, ev)
	})
}

func (w *Worker) deadLetter(ctx context.Context, typ, key string, raw []byte, handler string, cause error) error {
	headers := []kafka.Header{
		{Key: events.HeaderEventType, Value: []byte(typ)},
		{Key: HeaderDLQReason, Value: []byte(cause.Error())},
	}
	if handler != "" {
		headers = append(headers, kafka.Header{Key: HeaderDLQHandler, Value: []byte(handler)})
	}
	if err := w.producer.Publish(ctx, w.dlqTopic, key, raw, headers...); err != nil {
		w.logger.Error("failed to publish to DLQ",
			slog.String("event_type", typ),
			slog.String("error", err.Error()),
		)
		return err
	}
	telemetry.WorkerDLQTotal.WithLabelValues(typ).Inc()
	return nil
}
