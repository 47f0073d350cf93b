package taskmanager

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// outcome returns the final snapshot of a task.
func outcome(t *testing.T, tm *TaskManager, id uuid.UUID) Task {
	t.Helper()
	got := make(chan Task, 1)
	require.NoError(t, tm.RegisterCallback(id, func(task Task) { got <- task }))
	select {
	case task := <-got:
		return task
	case <-time.After(2 * time.Second):
		t.Fatalf("task %s did not finish", id)
		return Task{}
	}
}

func TestSubmitTask_RunsAndCompletes(t *testing.T) {
	tm := New(Config{MaxTasks: 2}, zap.NewNop())

	var ran atomic.Bool
	id, err := tm.SubmitTask(context.Background(), "ok", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	require.NoError(t, err)

	tm.Wait()
	assert.True(t, ran.Load())
	task := outcome(t, tm, id)
	assert.Equal(t, TaskStatusCompleted, task.Status)
	assert.Equal(t, "ok", task.Name)
}

func TestSubmitTask_FailureIsRecorded(t *testing.T) {
	tm := New(Config{}, zap.NewNop())

	id, err := tm.SubmitTask(context.Background(), "boom", func(ctx context.Context) error {
		return errors.New("provider down")
	})
	require.NoError(t, err)

	task := outcome(t, tm, id)
	assert.Equal(t, TaskStatusFailed, task.Status)
	assert.Equal(t, "provider down", task.Message)
}

func TestSubmitTask_PanicIsRecorded(t *testing.T) {
	tm := New(Config{}, zap.NewNop())

	id, err := tm.SubmitTask(context.Background(), "panic", func(ctx context.Context) error {
		panic("oops")
	})
	require.NoError(t, err)

	assert.Equal(t, TaskStatusFailed, outcome(t, tm, id).Status)
}

func TestSubmitTask_QueuesBeyondWorkerLimit(t *testing.T) {
	tm := New(Config{MaxTasks: 1, QueueSize: 2}, zap.NewNop())
	release := make(chan struct{})

	var running, peak atomic.Int32
	body := func(ctx context.Context) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		running.Add(-1)
		return nil
	}

	first, err := tm.SubmitTask(context.Background(), "first", body)
	require.NoError(t, err)
	second, err := tm.SubmitTask(context.Background(), "second", body)
	require.NoError(t, err)
	third, err := tm.SubmitTask(context.Background(), "third", body)
	require.NoError(t, err)

	_, err = tm.SubmitTask(context.Background(), "overflow", body)
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
	tm.Wait()

	for _, id := range []uuid.UUID{first, second, third} {
		assert.Equal(t, TaskStatusCompleted, outcome(t, tm, id).Status)
	}
	assert.Equal(t, int32(1), peak.Load(), "queued tasks must wait for a free slot")

	_, err = tm.SubmitTask(context.Background(), "after", func(ctx context.Context) error { return nil })
	assert.NoError(t, err)
	tm.Wait()
}

func TestSubmitTask_QueuedTimeoutStartsWhenRunning(t *testing.T) {
	tm := New(Config{MaxTasks: 1, TaskTimeout: 100 * time.Millisecond}, zap.NewNop())
	release := make(chan struct{})

	_, err := tm.SubmitTask(context.Background(), "slow", func(ctx context.Context) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	})
	require.NoError(t, err)

	var queuedErr atomic.Value
	id, err := tm.SubmitTask(context.Background(), "queued", func(ctx context.Context) error {
		if ctx.Err() != nil {
			queuedErr.Store(ctx.Err())
		}
		return nil
	})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	close(release)

	assert.Equal(t, TaskStatusCompleted, outcome(t, tm, id).Status)
	assert.Nil(t, queuedErr.Load())
}

func TestSubmitTask_DetachedFromCallerContext(t *testing.T) {
	tm := New(Config{}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	var taskErr atomic.Value
	_, err := tm.SubmitTask(ctx, "detached", func(taskCtx context.Context) error {
		close(started)
		time.Sleep(20 * time.Millisecond)
		if taskCtx.Err() != nil {
			taskErr.Store(taskCtx.Err())
		}
		return nil
	})
	require.NoError(t, err)
	<-started
	cancel()
	tm.Wait()
	assert.Nil(t, taskErr.Load())
}

func TestRegisterCallback(t *testing.T) {
	tm := New(Config{}, zap.NewNop())
	release := make(chan struct{})
	id, err := tm.SubmitTask(context.Background(), "cb", func(ctx context.Context) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	got := make(chan TaskStatus, 2)
	require.NoError(t, tm.RegisterCallback(id, func(task Task) { got <- task.Status }))
	close(release)
	tm.Wait()
	assert.Equal(t, TaskStatusCompleted, <-got)

	require.NoError(t, tm.RegisterCallback(id, func(task Task) { got <- task.Status }))
	assert.Equal(t, TaskStatusCompleted, <-got)

	assert.ErrorIs(t, tm.RegisterCallback(uuid.New(), func(Task) {}), ErrTaskNotFound)
}

func TestShutdown_RejectsNewTasks(t *testing.T) {
	tm := New(Config{}, zap.NewNop())
	require.NoError(t, tm.Shutdown(context.Background()))

	_, err := tm.SubmitTask(context.Background(), "late", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
}

func TestShutdown_DrainsQueue(t *testing.T) {
	tm := New(Config{MaxTasks: 1}, zap.NewNop())
	var ran atomic.Int32
	for i := 0; i < 3; i++ {
		_, err := tm.SubmitTask(context.Background(), "drain", func(ctx context.Context) error {
			time.Sleep(5 * time.Millisecond)
			ran.Add(1)
			return nil
		})
		require.NoError(t, err)
	}

	require.NoError(t, tm.Shutdown(context.Background()))
	assert.Equal(t, int32(3), ran.Load())
}

func TestShutdown_TimeoutCancelsRunningAndDropsQueued(t *testing.T) {
	tm := New(Config{MaxTasks: 1}, zap.NewNop())
	stuck, err := tm.SubmitTask(context.Background(), "stuck", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)
	var queuedRan atomic.Bool
	queued, err := tm.SubmitTask(context.Background(), "queued", func(ctx context.Context) error {
		queuedRan.Store(true)
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, tm.Shutdown(ctx))
	tm.Wait()

	assert.Equal(t, TaskStatusCancelled, outcome(t, tm, stuck).Status)
	assert.Equal(t, TaskStatusCancelled, outcome(t, tm, queued).Status)
	assert.False(t, queuedRan.Load())
}

func TestCleanupTasks(t *testing.T) {
	tm := New(Config{}, zap.NewNop())
	id, err := tm.SubmitTask(context.Background(), "old", func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	tm.Wait()
	time.Sleep(time.Millisecond)

	tm.CleanupTasks(0)
	assert.ErrorIs(t, tm.RegisterCallback(id, func(Task) {}), ErrTaskNotFound)
}
