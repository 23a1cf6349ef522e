package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/segmentio/kafka-go"
)

// eventHandler defines the interface for handling decoded bucket notifications.
type eventHandler interface {
	HandleEvent(ctx context.Context, event events.S3Event) error
}

// payload is a bucket notification as MinIO publishes it to Kafka.
// Records use the S3 event record layout.
type payload struct {
	EventName string `json:"EventName"`
	Key       string `json:"Key"`
	events.S3Event
}

// Handler handles Kafka messages carrying object-created notifications.
type Handler struct {
	events eventHandler
}

// NewHandler creates a new handler with the given event handler.
func NewHandler(h eventHandler) *Handler {
	return &Handler{events: h}
}

// Handle unmarshals the notification and hands its records to the event handler.
// A message without records is acknowledged without work.
func (h *Handler) Handle(ctx context.Context, msg kafka.Message) error {
	var p payload
	if err := json.Unmarshal(msg.Value, &p); err != nil {
		return fmt.Errorf("unmarshal notification: %w", err)
	}

	if len(p.Records) == 0 {
		return nil
	}

	if err := h.events.HandleEvent(ctx, p.S3Event); err != nil {
		return fmt.Errorf("handle notification %s: %w", p.Key, err)
	}

	return nil
}
