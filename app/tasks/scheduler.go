package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/motd-comb/app/announce"
	"github.com/lysyi3m/motd-comb/app/database"
	"github.com/lysyi3m/motd-comb/app/publish"
)

const (
	queueSize   = 100
	taskTimeout = 5 * time.Minute
	maxBackoff  = 30 * time.Second
)

var (
	_ TaskSchedulerInterface = (*Scheduler)(nil)
	_ Triggers               = (*Scheduler)(nil)
)

type Deps struct {
	Source       MOTDSource
	Store        database.Store
	Builder      SnapshotBuilder
	Publisher    publish.Publisher
	Announcer    announce.Announcer
	BaseURL      string
	SnapshotName string
}

type Scheduler struct {
	deps        Deps
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
	backoff     func(retry int) time.Duration
}

func NewScheduler(deps Deps, interval time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if workerCount <= 0 {
		workerCount = 1
	}

	return &Scheduler{
		deps:        deps,
		interval:    interval,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, queueSize),
		backoff:     retryDelay,
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueUpdate()
			}
		}
	}()
}

// Stop cancels running tasks and waits for the workers. Queued tasks are
// dropped.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// RunUpdate runs the pipeline on the caller's goroutine.
func (s *Scheduler) RunUpdate(ctx context.Context) ([]database.Record, error) {
	return s.newUpdateTask().Run(ctx)
}

func (s *Scheduler) EnqueueExport() error {
	return s.EnqueueTask(s.newExportTask())
}

func (s *Scheduler) Announce(_ context.Context, status string) {
	task := NewAnnounceTask(s.deps.Announcer, status)
	if err := s.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue AnnounceTask", "status", status, "error", err)
	}
}

func (s *Scheduler) Export(_ context.Context) {
	if err := s.EnqueueExport(); err != nil {
		slog.Error("Failed to enqueue ExportTask", "error", err)
	}
}

func (s *Scheduler) newUpdateTask() *UpdateMOTDTask {
	return NewUpdateMOTDTask(s.deps.Source, s.deps.Store, s, s.deps.BaseURL)
}

func (s *Scheduler) newExportTask() *ExportTask {
	return NewExportTask(s.deps.Builder, s.deps.Publisher, s.deps.SnapshotName)
}

// enqueueStartupTasks publishes the stored history once so the snapshot
// exists after a restart, then checks the feed.
func (s *Scheduler) enqueueStartupTasks() {
	if err := s.EnqueueExport(); err != nil {
		slog.Warn("Failed to enqueue ExportTask", "error", err)
	}
	s.enqueueUpdate()
}

func (s *Scheduler) enqueueUpdate() {
	if err := s.EnqueueTask(s.newUpdateTask()); err != nil {
		slog.Warn("Failed to enqueue UpdateMOTDTask", "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		slog.Debug("Task completed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "duration", task.GetDuration().String())
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	delay := s.backoff(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", delay.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-timer.C:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}

func retryDelay(retry int) time.Duration {
	delay := time.Duration(1<<uint(retry-1)) * time.Second
	if delay > maxBackoff {
		delay = maxBackoff
	}
	return delay
}
