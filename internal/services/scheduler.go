package services

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/runclub/backend/internal/config"
	"github.com/runclub/backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	lockTally   = "run_tally"
	lockCleanup = "cleanup"
	lockKey     = "global"
)

// Scheduler runs the periodic tally and cleanup jobs. Each job holds a
// scheduler lock while it runs so only one instance does the work.
type Scheduler struct {
	cfg      config.SchedulerConfig
	tally    *TallyService
	sessions *SessionService
	logs     *SystemLogService
	locks    *LockService
	queue    TaskQueue

	mu   sync.Mutex
	cron *cron.Cron
}

func NewScheduler(db *gorm.DB, cfg config.SchedulerConfig, tally *TallyService, queue TaskQueue) *Scheduler {
	owner := cfg.InstanceID
	if owner == "" {
		host, _ := os.Hostname()
		owner = fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
	}
	return &Scheduler{
		cfg:      cfg,
		tally:    tally,
		sessions: NewSessionService(db),
		logs:     NewSystemLogService(db),
		locks:    NewLockService(db, owner),
		queue:    queue,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return nil
	}

	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{}),
		cron.SkipIfStillRunning(cronLogger{}),
	))

	if _, err := c.AddFunc(s.cfg.TallySpec, func() {
		if _, err := s.RunTally(context.Background()); err != nil {
			logger.Error().Err(err).Msg("[Scheduler] tally job failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid tally schedule %q: %w", s.cfg.TallySpec, err)
	}

	if _, err := c.AddFunc(s.cfg.CleanupSpec, func() {
		if err := s.RunCleanup(context.Background()); err != nil {
			logger.Error().Err(err).Msg("[Scheduler] cleanup job failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", s.cfg.CleanupSpec, err)
	}

	c.Start()
	s.cron = c
	logger.Info().Str("tally", s.cfg.TallySpec).Str("cleanup", s.cfg.CleanupSpec).Msg("[Scheduler] started")
	return nil
}

// Stop stops the cron loop and waits for running jobs up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		logger.Warn().Msg("[Scheduler] stop timed out with jobs still running")
	}
}

func (s *Scheduler) lockTTL() time.Duration {
	if s.cfg.LockTTLMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(s.cfg.LockTTLMinutes) * time.Minute
}

// RunTally queues a tally for every due run. It returns the number queued,
// or zero when another instance holds the lock.
func (s *Scheduler) RunTally(ctx context.Context) (int, error) {
	ok, err := s.locks.Acquire(ctx, lockTally, lockKey, s.lockTTL())
	if err != nil || !ok {
		return 0, err
	}
	defer func() {
		if err := s.locks.Release(ctx, lockTally, lockKey); err != nil {
			logger.Warn().Err(err).Msg("[Scheduler] failed to release tally lock")
		}
	}()

	queued, err := s.tally.EnqueueDue(ctx, s.queue, s.cfg.TallyBatchSize)
	if queued > 0 {
		logger.Info().Int("queued", queued).Bool("async", s.queue.IsAsync()).Msg("[Scheduler] tally tasks queued")
	}
	return queued, err
}

// RunCleanup purges stale sessions and old system logs.
func (s *Scheduler) RunCleanup(ctx context.Context) error {
	ok, err := s.locks.Acquire(ctx, lockCleanup, lockKey, s.lockTTL())
	if err != nil || !ok {
		return err
	}
	defer func() {
		if err := s.locks.Release(ctx, lockCleanup, lockKey); err != nil {
			logger.Warn().Err(err).Msg("[Scheduler] failed to release cleanup lock")
		}
	}()

	grace := time.Duration(s.cfg.SessionGraceHours) * time.Hour
	sessions, err := s.sessions.PurgeExpired(ctx, grace)
	if err != nil {
		return fmt.Errorf("purge sessions: %w", err)
	}

	logs, err := s.logs.CleanupOldLogs(ctx, s.cfg.LogRetentionDays)
	if err != nil {
		return fmt.Errorf("cleanup logs: %w", err)
	}

	if sessions > 0 || logs > 0 {
		logger.Info().Int64("sessions", sessions).Int64("logs", logs).Msg("[Scheduler] cleanup done")
	}
	return nil
}

// cronLogger sends cron's own messages to zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug().Fields(keysAndValues).Msg("[cron] " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error().Err(err).Fields(keysAndValues).Msg("[cron] " + msg)
}
