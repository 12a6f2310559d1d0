package kafka

import (
	"context"
	"encoding/json"
	"time"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imageresizer/internal/config"
	"github.com/yokitheyo/imageresizer/internal/dto"
	"github.com/yokitheyo/imageresizer/internal/retry"
)

type MessageHandler func(ctx context.Context, task *dto.ResizeTask) error

type Consumer struct {
	client  *wbfkafka.Consumer
	handler MessageHandler
	topic   string
}

func NewConsumer(cfg *config.KafkaConfig, handler MessageHandler) (*Consumer, error) {
	client := wbfkafka.NewConsumer(cfg.Brokers, cfg.Topic, cfg.GroupID)

	zlog.Logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Str("group_id", cfg.GroupID).
		Msg("Kafka consumer initialized (wbf)")

	return &Consumer{
		client:  client,
		handler: handler,
		topic:   cfg.Topic,
	}, nil
}

// Start fetches resize tasks until ctx is done. A message is committed once
// its task has been handled; malformed messages are committed and dropped.
func (c *Consumer) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			zlog.Logger.Info().Msg("Kafka consumer stopped")
			return nil
		default:
			msg, err := c.client.FetchWithRetry(ctx, retry.DefaultStrategy)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				zlog.Logger.Error().Err(err).Msg("Failed to fetch Kafka message")
				time.Sleep(time.Second)
				continue
			}

			var task dto.ResizeTask
			if err := json.Unmarshal(msg.Value, &task); err != nil {
				zlog.Logger.Error().
					Err(err).
					Bytes("msg", msg.Value).
					Msg("Failed to unmarshal message")
				if err := c.client.Commit(ctx, msg); err != nil {
					zlog.Logger.Error().
						Err(err).
						Msg("Failed to commit malformed message")
				}
				continue
			}

			if err := task.Validate(); err != nil {
				zlog.Logger.Error().
					Err(err).
					Str("task_id", task.TaskID).
					Str("source_path", task.SourcePath).
					Msg("Invalid resize task")
				if err := c.client.Commit(ctx, msg); err != nil {
					zlog.Logger.Error().
						Err(err).
						Str("task_id", task.TaskID).
						Msg("Failed to commit invalid task")
				}
				continue
			}

			zlog.Logger.Info().
				Str("task_id", task.TaskID).
				Str("source_path", task.SourcePath).
				Strs("profiles", task.Profiles).
				Msg("Received new Kafka task")

			if err := c.handler(ctx, &task); err != nil {
				zlog.Logger.Error().
					Err(err).
					Str("task_id", task.TaskID).
					Msg("Task processing failed")
				continue
			}

			if err := c.client.Commit(ctx, msg); err != nil {
				zlog.Logger.Error().
					Err(err).
					Str("task_id", task.TaskID).
					Msg("Failed to commit message")
				continue
			}

			zlog.Logger.Info().
				Str("task_id", task.TaskID).
				Msg("Task processed and committed successfully")
		}
	}
}

func (c *Consumer) Close() error {
	if err := c.client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("Failed to close Kafka consumer")
		return err
	}
	zlog.Logger.Info().Msg("Kafka consumer closed successfully")
	return nil
}
