package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imageresizer/internal/config"
	"github.com/yokitheyo/imageresizer/internal/domain"
	"github.com/yokitheyo/imageresizer/internal/dto"
	"github.com/yokitheyo/imageresizer/internal/retry"
)

// Producer publishes resize outcomes to the result topic.
type Producer struct {
	client *wbfkafka.Producer
	topic  string
	ext    string
}

func NewProducer(cfg *config.KafkaConfig, ext string) *Producer {
	client := wbfkafka.NewProducer(cfg.Brokers, cfg.ResultTopic)
	zlog.Logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.ResultTopic).
		Msg("Kafka producer initialized (wbf)")
	return &Producer{
		client: client,
		topic:  cfg.ResultTopic,
		ext:    ext,
	}
}

func (p *Producer) PublishOutcome(ctx context.Context, taskID string, outcome domain.ResizeOutcome) error {
	msg := dto.MapOutcomeToMessage(taskID, outcome, p.ext, time.Now().UTC())

	data, err := json.Marshal(msg)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("task_id", taskID).Msg("Failed to marshal outcome")
		return fmt.Errorf("marshal outcome: %w", err)
	}

	if err := p.client.SendWithRetry(ctx, retry.DefaultStrategy, []byte(taskID), data); err != nil {
		zlog.Logger.Error().
			Err(err).
			Str("task_id", taskID).
			Str("topic", p.topic).
			Msg("Failed to send Kafka message with retry")
		return fmt.Errorf("send outcome: %w", err)
	}

	zlog.Logger.Info().
		Str("task_id", taskID).
		Int("completed", msg.Completed).
		Msg("Outcome sent to Kafka")
	return nil
}

func (p *Producer) Close() error {
	if err := p.client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("Failed to close Kafka producer")
		return err
	}
	zlog.Logger.Info().Msg("Kafka producer closed successfully")
	return nil
}
