package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "drivequest"

var (
	// ─── API ─────────────────────────────────────────────────────────────────────

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "code"})

	APICacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "cache_lookups_total",
		Help:      "Response cache lookups, labelled hit or miss.",
	}, []string{"result"})

	APITasksCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "tasks_completed_total",
		Help:      "Task completion attempts by outcome.",
	}, []string{"outcome"})

	APIMissionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "missions_completed_total",
		Help:      "First-time mission completions.",
	})

	APIStreakCheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "streak_checkins_total",
		Help:      "Daily streak check-ins, labelled by transition (increment, reset, noop).",
	}, []string{"transition"})

	APILoginsRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "logins_rate_limited_total",
		Help:      "Login attempts rejected by the rate limiter.",
	})

	APIGameTaps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "game_taps_total",
		Help:      "Learning-game taps, labelled hit or miss.",
	}, []string{"result"})

	// ─── Worker ──────────────────────────────────────────────────────────────────

	WorkerEventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "events_processed_total",
		Help:      "Progress events processed, labelled by event type and status.",
	}, []string{"event_type", "status"})

	WorkerEventDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "event_duration_seconds",
		Help:      "Time spent handling one event including retries.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"event_type"})

	WorkerRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "retries_total",
		Help:      "Handler retry attempts.",
	}, []string{"event_type"})

	WorkerDLQTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "dlq_total",
		Help:      "Events forwarded to the dead-letter topic.",
	}, []string{"event_type"})

	// ─── Scheduler ───────────────────────────────────────────────────────────────

	SchedulerJobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "job_runs_total",
		Help:      "Cron job runs, labelled by job and status (ok, error, skipped).",
	}, []string{"job", "status"})

	SchedulerIsLeader = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "is_leader",
		Help:      "1 when this scheduler instance holds the leader lock.",
	})
)
