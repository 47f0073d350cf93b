package taskmanager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrQueueFull    = errors.New("task queue is full")
	ErrClosed       = errors.New("task manager is shutting down")
	ErrTaskNotFound = errors.New("task not found")
)

// ITaskManager runs fire-and-forget background tasks with bounded concurrency.
// Tasks beyond the worker limit wait in a bounded queue.
type ITaskManager interface {
	SubmitTask(ctx context.Context, name string, taskFunc TaskFunc) (uuid.UUID, error)
	RegisterCallback(taskID uuid.UUID, callback TaskCallback) error
	CleanupTasks(age time.Duration)
	Wait()
	Shutdown(ctx context.Context) error
}

// Task is a snapshot of one background task.
type Task struct {
	ID        uuid.UUID
	Name      string
	Status    TaskStatus
	Message   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

func (s TaskStatus) final() bool {
	return s != TaskStatusPending && s != TaskStatusRunning
}

// TaskFunc is the body of a task.
type TaskFunc func(ctx context.Context) error

// TaskCallback is invoked once a task reaches a final state.
type TaskCallback func(task Task)

// Config configures a TaskManager.
type Config struct {
	// MaxTasks is the number of tasks running at once. Defaults to 10.
	MaxTasks int
	// QueueSize bounds tasks waiting for a free slot. Defaults to 100.
	QueueSize int
	// TaskTimeout bounds each task once it starts; zero means no limit.
	TaskTimeout time.Duration
}

type taskEntry struct {
	task Task
	ctx  context.Context
	fn   TaskFunc

	cancel context.CancelFunc
}

// TaskManager tracks background tasks. Failures are logged and never retried.
type TaskManager struct {
	mu        sync.Mutex
	tasks     map[uuid.UUID]*taskEntry
	callbacks map[uuid.UUID][]TaskCallback
	pending   []*taskEntry
	active    int
	maxTasks  int
	queueSize int
	timeout   time.Duration
	closed    bool
	wg        sync.WaitGroup
	logger    *zap.Logger
}

var _ ITaskManager = (*TaskManager)(nil)

func New(cfg Config, logger *zap.Logger) *TaskManager {
	maxTasks := cfg.MaxTasks
	if maxTasks <= 0 {
		maxTasks = 10
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}
	return &TaskManager{
		tasks:     make(map[uuid.UUID]*taskEntry),
		callbacks: make(map[uuid.UUID][]TaskCallback),
		maxTasks:  maxTasks,
		queueSize: queueSize,
		timeout:   cfg.TaskTimeout,
		logger:    logger.Named("TaskManager"),
	}
}

// SubmitTask starts taskFunc when a slot is free, otherwise queues it, and
// returns immediately. ErrQueueFull means the task was not accepted.
// The task context is detached from ctx so it outlives the submitting request.
func (tm *TaskManager) SubmitTask(ctx context.Context, name string, taskFunc TaskFunc) (uuid.UUID, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.closed {
		return uuid.Nil, ErrClosed
	}
	if tm.active >= tm.maxTasks && len(tm.pending) >= tm.queueSize {
		return uuid.Nil, ErrQueueFull
	}

	now := time.Now()
	entry := &taskEntry{
		task: Task{
			ID:        uuid.New(),
			Name:      name,
			Status:    TaskStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		},
		ctx: context.WithoutCancel(ctx),
		fn:  taskFunc,
	}
	tm.tasks[entry.task.ID] = entry
	tm.wg.Add(1)

	if tm.active < tm.maxTasks {
		tm.startLocked(entry)
	} else {
		tm.pending = append(tm.pending, entry)
		tm.logger.Debug("Task queued",
			zap.String("taskID", entry.task.ID.String()), zap.String("task", name), zap.Int("queued", len(tm.pending)))
	}
	return entry.task.ID, nil
}

// startLocked runs entry in its own goroutine. tm.mu must be held.
func (tm *TaskManager) startLocked(entry *taskEntry) {
	taskCtx, cancel := context.WithCancel(entry.ctx)
	if tm.timeout > 0 {
		taskCtx, cancel = withTimeout(taskCtx, cancel, tm.timeout)
	}
	entry.cancel = cancel
	entry.task.Status = TaskStatusRunning
	entry.task.UpdatedAt = time.Now()
	fn := entry.fn
	entry.fn = nil
	tm.active++

	go func() {
		defer tm.wg.Done()
		defer cancel()
		tm.runTask(taskCtx, entry, fn)
	}()
}

func withTimeout(ctx context.Context, parentCancel context.CancelFunc, d time.Duration) (context.Context, context.CancelFunc) {
	timed, cancel := context.WithTimeout(ctx, d)
	return timed, func() {
		cancel()
		parentCancel()
	}
}

func (tm *TaskManager) runTask(ctx context.Context, entry *taskEntry, taskFunc TaskFunc) {
	log := tm.logger.With(zap.String("taskID", entry.task.ID.String()), zap.String("task", entry.task.Name))

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		return taskFunc(ctx)
	}()

	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		log.Info("Task cancelled")
		tm.finish(entry, TaskStatusCancelled, "cancelled")
	case err != nil:
		log.Error("Task failed", zap.Error(err))
		tm.finish(entry, TaskStatusFailed, err.Error())
	default:
		log.Debug("Task completed")
		tm.finish(entry, TaskStatusCompleted, "")
	}
}

// finish records the final state of a running task and hands its slot to the
// oldest queued task.
func (tm *TaskManager) finish(entry *taskEntry, status TaskStatus, message string) {
	tm.mu.Lock()
	tm.active--
	if len(tm.pending) > 0 {
		next := tm.pending[0]
		tm.pending[0] = nil
		tm.pending = tm.pending[1:]
		tm.startLocked(next)
	}
	snapshot, callbacks := tm.settleLocked(entry, status, message)
	tm.mu.Unlock()

	for _, cb := range callbacks {
		cb(snapshot)
	}
}

func (tm *TaskManager) settleLocked(entry *taskEntry, status TaskStatus, message string) (Task, []TaskCallback) {
	entry.task.Status = status
	entry.task.Message = message
	entry.task.UpdatedAt = time.Now()
	callbacks := tm.callbacks[entry.task.ID]
	delete(tm.callbacks, entry.task.ID)
	return entry.task, callbacks
}

// RegisterCallback adds a callback for an unfinished task. Callbacks
// registered after the task finished are called immediately.
func (tm *TaskManager) RegisterCallback(taskID uuid.UUID, callback TaskCallback) error {
	tm.mu.Lock()
	entry, ok := tm.tasks[taskID]
	if !ok {
		tm.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if !entry.task.Status.final() {
		tm.callbacks[taskID] = append(tm.callbacks[taskID], callback)
		tm.mu.Unlock()
		return nil
	}
	snapshot := entry.task
	tm.mu.Unlock()

	callback(snapshot)
	return nil
}

// CleanupTasks forgets finished tasks older than age.
func (tm *TaskManager) CleanupTasks(age time.Duration) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	now := time.Now()
	for id, entry := range tm.tasks {
		if entry.task.Status.final() && now.Sub(entry.task.UpdatedAt) > age {
			delete(tm.tasks, id)
		}
	}
}

// Wait blocks until every submitted task, queued ones included, has finished.
func (tm *TaskManager) Wait() {
	tm.wg.Wait()
}

// Shutdown stops accepting tasks and lets running and queued ones drain until
// ctx expires. Then queued tasks are dropped and running ones cancelled.
func (tm *TaskManager) Shutdown(ctx context.Context) error {
	tm.mu.Lock()
	tm.closed = true
	tm.mu.Unlock()

	done := make(chan struct{})
	go func() {
		tm.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
	}

	tm.mu.Lock()
	dropped := tm.pending
	tm.pending = nil
	for _, entry := range tm.tasks {
		if entry.task.Status == TaskStatusRunning {
			entry.cancel()
		}
	}
	type settled struct {
		task      Task
		callbacks []TaskCallback
	}
	results := make([]settled, 0, len(dropped))
	for _, entry := range dropped {
		entry.fn = nil
		task, callbacks := tm.settleLocked(entry, TaskStatusCancelled, "dropped on shutdown")
		results = append(results, settled{task: task, callbacks: callbacks})
	}
	tm.mu.Unlock()

	for _, r := range results {
		for _, cb := range r.callbacks {
			cb(r.task)
		}
		tm.wg.Done()
	}
	if len(dropped) > 0 {
		tm.logger.Warn("Queued tasks dropped on shutdown", zap.Int("count", len(dropped)))
	}
	return fmt.Errorf("timed out waiting for tasks: %w", ctx.Err())
}
