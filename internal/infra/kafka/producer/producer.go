package producer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"

	"github.com/aliskhannn/image-versioner/internal/model"
)

// Producer publishes completion events to Kafka.
type Producer struct {
	Client   *wbfkafka.Producer
	strategy retry.Strategy
}

// New creates a Producer writing to topic.
func New(brokers []string, topic string, s retry.Strategy) *Producer {
	return &Producer{
		Client:   wbfkafka.NewProducer(brokers, topic),
		strategy: s,
	}
}

// Publish serializes the event to JSON and sends it to Kafka.
// The source key is used as the message key so events of one source stay ordered.
func (p *Producer) Publish(ctx context.Context, event model.CompletionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal completion event: %w", err)
	}

	key := []byte(event.Bucket + "/" + event.SourceKey)

	if err = p.Client.SendWithRetry(ctx, p.strategy, key, data); err != nil {
		return fmt.Errorf("failed to send completion event: %w", err)
	}

	return nil
}

// Forward copies a message that could not be handled, key and value unchanged.
func (p *Producer) Forward(ctx context.Context, msg kafka.Message) error {
	if err := p.Client.SendWithRetry(ctx, p.strategy, msg.Key, msg.Value); err != nil {
		return fmt.Errorf("failed to forward message at offset %d: %w", msg.Offset, err)
	}

	return nil
}
