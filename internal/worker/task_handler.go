package worker

import (
	"context"
	"fmt"

	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageresizer/internal/domain"
	"github.com/yokitheyo/imageresizer/internal/dto"
	"github.com/yokitheyo/imageresizer/internal/infrastructure/source"
	"github.com/yokitheyo/imageresizer/internal/metrics"
)

// TaskHandler runs resize tasks received from Kafka and publishes their
// outcome.
type TaskHandler struct {
	worker    *ResizeWorker
	publisher domain.OutcomePublisher
	base      *domain.ResizeConfig
}

func NewTaskHandler(worker *ResizeWorker, publisher domain.OutcomePublisher, base *domain.ResizeConfig) *TaskHandler {
	return &TaskHandler{
		worker:    worker,
		publisher: publisher,
		base:      base,
	}
}

func (h *TaskHandler) HandleResizeTask(ctx context.Context, task *dto.ResizeTask) error {
	cfg, err := dto.ApplyProfiles(h.base, task.Profiles)
	if err != nil {
		metrics.TasksTotal.WithLabelValues("kafka", "rejected").Inc()
		zlog.Logger.Error().
			Err(err).
			Str("task_id", task.TaskID).
			Strs("profiles", task.Profiles).
			Msg("invalid profiles in task")
		return fmt.Errorf("task %s: %w", task.TaskID, err)
	}

	zlog.Logger.Info().
		Str("task_id", task.TaskID).
		Str("source_path", task.SourcePath).
		Msg("starting resize task")

	outcome, err := h.worker.Submit(ctx, source.NewFileSource(task.SourcePath), cfg, nil).Outcome()
	if err != nil {
		metrics.TasksTotal.WithLabelValues("kafka", "error").Inc()
		return fmt.Errorf("resize task %s: %w", task.TaskID, err)
	}

	if err := h.publisher.PublishOutcome(ctx, task.TaskID, outcome); err != nil {
		metrics.TasksTotal.WithLabelValues("kafka", "unpublished").Inc()
		return fmt.Errorf("publish outcome %s: %w", task.TaskID, err)
	}

	metrics.TasksTotal.WithLabelValues("kafka", "ok").Inc()
	zlog.Logger.Info().
		Str("task_id", task.TaskID).
		Int("completed", outcome.Completed()).
		Msg("resize task done")

	return nil
}
