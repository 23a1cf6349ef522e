package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-versioner/internal/config"
)

// fetchBackoff is the pause after a fetch that failed all retries.
const fetchBackoff = 500 * time.Millisecond

// ErrUnhandled is returned by Consume when a message could neither be handled
// nor parked on the dead-letter topic. Its offset is left uncommitted.
var ErrUnhandled = errors.New("notification could not be handled")

// notificationHandler defines the interface for handling bucket notification messages.
type notificationHandler interface {
	Handle(ctx context.Context, msg kafka.Message) error
}

// deadLetter defines the interface for parking messages that keep failing.
type deadLetter interface {
	Forward(ctx context.Context, msg kafka.Message) error
}

// client defines the interface for fetching and committing messages.
type client interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, msg kafka.Message) error
	Close() error
}

// wbfClient adapts the wbf consumer to client.
type wbfClient struct {
	c *wbfkafka.Consumer
}

func (w wbfClient) Fetch(ctx context.Context) (kafka.Message, error) { return w.c.Fetch(ctx) }

func (w wbfClient) Commit(ctx context.Context, msg kafka.Message) error { return w.c.Commit(ctx, msg) }

func (w wbfClient) Close() error { return w.c.Close() }

// Consumer reads object-created notifications from Kafka and hands them to
// the notification handler.
type Consumer struct {
	client     client
	handler    notificationHandler
	deadLetter deadLetter
	topic      string
	strategy   retry.Strategy
}

// Option configures a Consumer.
type Option func(*Consumer)

// WithDeadLetter forwards messages that fail every handling attempt to d and
// commits them, so the consumer keeps going.
func WithDeadLetter(d deadLetter) Option {
	return func(c *Consumer) { c.deadLetter = d }
}

// New creates a new Consumer.
// - cfg: Kafka configuration struct
// - s: retry strategy for fetch, handling and commit
// - h: handler for bucket notification messages
func New(
	cfg *config.Kafka,
	s retry.Strategy,
	h notificationHandler,
	opts ...Option,
) *Consumer {
	cl := wbfClient{c: wbfkafka.NewConsumer(cfg.Brokers, cfg.Topic, cfg.GroupID)}
	return newConsumer(cl, cfg.Topic, s, h, opts...)
}

func newConsumer(cl client, topic string, s retry.Strategy, h notificationHandler, opts ...Option) *Consumer {
	if s.Attempts < 1 {
		s.Attempts = 1
	}

	c := &Consumer{
		client:   cl,
		handler:  h,
		topic:    topic,
		strategy: s,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Consume continuously fetches messages from Kafka, processes them using the handler,
// and commits offsets after successful processing. It returns nil on context
// cancellation.
//
// Handling is retried with the strategy. A message that still fails is
// forwarded to the dead-letter topic and committed; without a dead-letter
// topic, or when forwarding fails too, Consume stops with ErrUnhandled before
// any later offset is committed, so the message is redelivered on restart.
func (c *Consumer) Consume(ctx context.Context) error {
	zlog.Logger.Info().
		Str("topic", c.topic).
		Msg("starting consumer")

	for {
		// Exit if context is canceled (graceful shutdown).
		if ctx.Err() != nil {
			zlog.Logger.Info().Msg("shutdown signal received, stopping consumer")
			return nil
		}

		// Fetch a message from Kafka with retries.
		var msg kafka.Message
		err := retry.Do(func() error {
			var fetchErr error
			msg, fetchErr = c.client.Fetch(ctx)
			return fetchErr
		}, c.strategy)

		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			zlog.Logger.Err(err).Msg("failed to fetch message")
			time.Sleep(fetchBackoff)
			continue
		}

		if err := c.handle(ctx, msg); err != nil {
			// Interrupted by shutdown: left uncommitted for redelivery.
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		// Commit the message with retries. A later commit covers this offset.
		err = retry.Do(func() error {
			return c.client.Commit(ctx, msg)
		}, c.strategy)
		if err != nil {
			zlog.Logger.Err(err).Int64("offset", msg.Offset).Msg("failed to commit message after retries")
			continue
		}

		zlog.Logger.Info().
			Int64("offset", msg.Offset).
			Msg("notification committed")
	}
}

// handle runs the handler with retries and parks the message when it keeps failing.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	err := retry.Do(func() error {
		return c.handler.Handle(ctx, msg)
	}, c.strategy)
	if err == nil {
		return nil
	}

	zlog.Logger.Err(err).
		Int64("offset", msg.Offset).
		Str("message", string(msg.Value)).
		Msg("failed to process notification")

	if c.deadLetter == nil {
		return fmt.Errorf("%w: offset %d: %w", ErrUnhandled, msg.Offset, err)
	}

	if dlErr := c.deadLetter.Forward(ctx, msg); dlErr != nil {
		return fmt.Errorf("%w: offset %d: dead letter: %w", ErrUnhandled, msg.Offset, errors.Join(err, dlErr))
	}

	zlog.Logger.Warn().
		Int64("offset", msg.Offset).
		Msg("notification forwarded to dead-letter topic")

	return nil
}

// Close closes the underlying Kafka reader.
func (c *Consumer) Close() error {
	return c.client.Close()
}
