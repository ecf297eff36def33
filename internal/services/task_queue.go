package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/runclub/backend/internal/config"
	"github.com/runclub/backend/pkg/logger"
)

const (
	TaskTypeTally = "run:tally"
)

// TallyTask asks for one finished run to be credited to its participants.
type TallyTask struct {
	RunID string `json:"run_id"`
}

// TallyProcessor handles a single tally task.
type TallyProcessor func(context.Context, *TallyTask) error

// TaskQueue defines the interface for tally task processing
type TaskQueue interface {
	// Enqueue adds a task to the queue
	Enqueue(ctx context.Context, task *TallyTask) error
	// IsAsync returns true if queue processes tasks asynchronously
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// NewTaskQueue picks the Redis-backed queue when Redis is configured and
// reachable, the in-process queue otherwise.
func NewTaskQueue(cfg *config.RedisConfig) TaskQueue {
	if cfg == nil || !cfg.Enabled {
		logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
		return NewSyncQueue()
	}
	queue, err := NewAsyncQueue(cfg)
	if err != nil {
		logger.Warnf("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
		return NewSyncQueue()
	}
	logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Addr)
	return queue
}

func redisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// AsyncQueue implements TaskQueue using asynq (Redis-based)
type AsyncQueue struct {
	client *asynq.Client
}

// NewAsyncQueue creates a new Redis-based async queue
func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	opt := redisOpt(cfg)
	client := asynq.NewClient(opt)

	inspector := asynq.NewInspector(opt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

// Enqueue adds a tally task. A task already queued for the same run is left
// in place.
func (q *AsyncQueue) Enqueue(ctx context.Context, task *TallyTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeTally, payload)
	info, err := q.client.EnqueueContext(ctx, t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
		asynq.TaskID("tally:"+task.RunID),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return err
	}

	logger.Debug().Str("task_id", info.ID).Str("queue", info.Queue).Msg("tally task enqueued")
	return nil
}

func (q *AsyncQueue) IsAsync() bool {
	return true
}

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue implements TaskQueue by processing each task in the caller's
// goroutine.
type SyncQueue struct {
	processor TallyProcessor
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

func (q *SyncQueue) SetProcessor(processor TallyProcessor) {
	q.processor = processor
}

func (q *SyncQueue) Enqueue(ctx context.Context, task *TallyTask) error {
	if q.processor == nil {
		logger.Warnf("[SyncQueue] no processor set, task for run %s dropped", task.RunID)
		return nil
	}
	return q.processor(ctx, task)
}

func (q *SyncQueue) IsAsync() bool {
	return false
}

// Close is a no-op for sync queue
func (q *SyncQueue) Close() error {
	return nil
}
