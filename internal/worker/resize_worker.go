package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageresizer/internal/domain"
	"github.com/yokitheyo/imageresizer/internal/metrics"
	"golang.org/x/sync/semaphore"
)

// Callback receives the outcome of a submitted task exactly once.
type Callback func(outcome domain.ResizeOutcome, err error)

// Task is a resize request running in the background.
type Task struct {
	ID string

	cancel  context.CancelFunc
	done    chan struct{}
	outcome domain.ResizeOutcome
	err     error
}

// Cancel asks the task to stop. Profiles already started are finished, the
// remaining ones are reported as canceled.
func (t *Task) Cancel() {
	t.cancel()
}

func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Outcome blocks until the task is done.
func (t *Task) Outcome() (domain.ResizeOutcome, error) {
	<-t.done
	return t.outcome, t.err
}

// ResizeWorker runs resize requests off the caller's goroutine, at most
// maxConcurrent at a time.
type ResizeWorker struct {
	resizer domain.ResizerService
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
}

func NewResizeWorker(resizer domain.ResizerService, maxConcurrent int) *ResizeWorker {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	zlog.Logger.Info().Int("max_concurrent", maxConcurrent).Msg("ResizeWorker initialized")
	return &ResizeWorker{
		resizer: resizer,
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Submit starts resizing source with a snapshot of cfg. cb may be nil.
func (w *ResizeWorker) Submit(ctx context.Context, source domain.SourceImage, cfg *domain.ResizeConfig, cb Callback) *Task {
	taskCtx, cancel := context.WithCancel(ctx)
	task := &Task{
		ID:     uuid.New().String(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	if cfg != nil {
		cfg = cfg.Clone()
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer cancel()

		task.outcome, task.err = w.run(taskCtx, task.ID, source, cfg)
		if cb != nil {
			cb(task.outcome, task.err)
		}
		close(task.done)
	}()

	return task
}

// Wait blocks until every submitted task has finished.
func (w *ResizeWorker) Wait() {
	w.wg.Wait()
}

func (w *ResizeWorker) run(ctx context.Context, id string, source domain.SourceImage, cfg *domain.ResizeConfig) (domain.ResizeOutcome, error) {
	// a canceled wait still goes through Resize so every profile gets a result
	if err := w.sem.Acquire(ctx, 1); err == nil {
		defer w.sem.Release(1)
	}

	metrics.TasksInFlight.Inc()
	defer metrics.TasksInFlight.Dec()

	zlog.Logger.Debug().Str("task_id", id).Str("source", source.Name()).Msg("task started")

	outcome, err := w.resizer.Resize(ctx, source, cfg)

	status := "ok"
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = "canceled"
	case err != nil:
		status = "error"
	}
	metrics.TasksTotal.WithLabelValues("submit", status).Inc()

	zlog.Logger.Info().
		Str("task_id", id).
		Str("source", source.Name()).
		Str("status", status).
		Int("completed", outcome.Completed()).
		Msg("task finished")

	return outcome, err
}
