// Package scheduler runs the periodic jobs of DriveQuest. Every instance
// keeps a cron running, but only the instance holding the Redis leader lock
// executes a fired job.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/ramiqadoumi/go-drive-quest/pkg/telemetry"
)

const (
	leaderKey     = "scheduler:leader"
	leaderTTL     = 30 * time.Second
	checkInterval = 15 * time.Second
)

var renewScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	end
	return 0
`)

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`)

// JobFunc is the body of a scheduled job.
type JobFunc func(ctx context.Context) error

// Scheduler fires cron jobs with Redis leader election.
type Scheduler struct {
	cron       *cron.Cron
	redis      *redis.Client
	instanceID string
	logger     *slog.Logger
	leader     atomic.Bool
	jobTimeout time.Duration
	ctx        context.Context
}

// NewScheduler evaluates cron specs in loc.
func NewScheduler(redisClient *redis.Client, instanceID string, loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		redis:      redisClient,
		instanceID: instanceID,
		logger:     logger,
		jobTimeout: time.Minute,
		ctx:        context.Background(),
	}
}

// AddJob registers fn under a standard five-field cron spec.
func (s *Scheduler) AddJob(name, spec string, fn JobFunc) error {
	if _, err := s.cron.AddFunc(spec, func() { s.runJob(s.ctx, name, fn) }); err != nil {
		return fmt.Errorf("schedule job %q with %q: %w", name, spec, err)
	}
	s.logger.Info("job scheduled", slog.String("job", name), slog.String("spec", spec))
	return nil
}

// IsLeader reports whether this instance held the lock at the last check.
func (s *Scheduler) IsLeader() bool { return s.leader.Load() }

// Run keeps leadership current and the cron running. Blocks until ctx is
// cancelled, then waits for running jobs and releases the lock.
func (s *Scheduler) Run(ctx context.Context) {
	s.ctx = ctx
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	// Check once immediately before waiting for the first tick.
	s.setLeader(s.acquireOrRenewLeadership(ctx))
	s.cron.Start()

	for {
		select {
		case <-ctx.Done():
			<-s.cron.Stop().Done()
			s.release()
			return
		case <-ticker.C:
			s.setLeader(s.acquireOrRenewLeadership(ctx))
		}
	}
}

func (s *Scheduler) setLeader(ok bool) {
	if s.leader.Swap(ok) != ok {
		s.logger.Info("scheduler leadership changed",
			slog.String("instance_id", s.instanceID),
			slog.Bool("leader", ok),
		)
	}
	if ok {
		telemetry.SchedulerIsLeader.Set(1)
	} else {
		telemetry.SchedulerIsLeader.Set(0)
	}
}

func (s *Scheduler) runJob(ctx context.Context, name string, fn JobFunc) {
	if !s.IsLeader() {
		telemetry.SchedulerJobRuns.WithLabelValues(name, "skipped").Inc()
		return
	}
	jobCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	start := time.Now()
	if err := fn(jobCtx); err != nil {
		s.logger.Error("job failed", slog.String("job", name), slog.String("error", err.Error()))
		telemetry.SchedulerJobRuns.WithLabelValues(name, "error").Inc()
		return
	}
	s.logger.Info("job completed",
		slog.String("job", name),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	telemetry.SchedulerJobRuns.WithLabelValues(name, "ok").Inc()
}

// acquireOrRenewLeadership attempts SETNX; returns true if this instance is the leader.
func (s *Scheduler) acquireOrRenewLeadership(ctx context.Context) bool {
	ok, err := s.redis.SetNX(ctx, leaderKey, s.instanceID, leaderTTL).Result()
	if err != nil {
		s.logger.Error("leader election SetNX", slog.String("error", err.Error()))
		return false
	}
	if ok {
		return true
	}

	// Already set: renew only if we own it. The script makes check-and-extend atomic.
	result, err := renewScript.Run(
		ctx, s.redis,
		[]string{leaderKey},
		s.instanceID,
		leaderTTL.Milliseconds(),
	).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Error("leader renewal", slog.String("error", err.Error()))
		return false
	}
	return result == 1
}

// release drops the lock if this instance owns it, letting a standby take
// over without waiting for the TTL.
func (s *Scheduler) release() {
	if !s.leader.Load() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, s.redis, []string{leaderKey}, s.instanceID).Err(); err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Warn("leader release", slog.String("error", err.Error()))
	}
	s.setLeader(false)
}
