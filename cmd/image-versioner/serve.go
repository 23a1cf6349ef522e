package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-versioner/internal/api/handlers/derivative"
	"github.com/aliskhannn/image-versioner/internal/api/router"
	"github.com/aliskhannn/image-versioner/internal/api/server"
	"github.com/aliskhannn/image-versioner/internal/app"
	"github.com/aliskhannn/image-versioner/internal/infra/kafka/consumer"
	"github.com/aliskhannn/image-versioner/internal/infra/kafka/producer"
	"github.com/aliskhannn/image-versioner/internal/kafka/handlers/notification"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Consume bucket notifications from Kafka and serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			// Context & signals: used for graceful shutdown on system interrupts.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			// Kafka consumer for object-created notifications.
			var wg sync.WaitGroup
			var c *consumer.Consumer
			var dl *producer.Producer
			var consumeErr error
			if cfg.Kafka.Enabled() {
				var consumerOpts []consumer.Option
				if cfg.Kafka.DeadLetterTopic != "" {
					dl = producer.New(cfg.Kafka.Brokers, cfg.Kafka.DeadLetterTopic, a.Strategy)
					consumerOpts = append(consumerOpts, consumer.WithDeadLetter(dl))
				}

				c = consumer.New(&cfg.Kafka, a.Strategy, notification.NewHandler(a.Ingest), consumerOpts...)
				wg.Add(1)
				go func() {
					defer wg.Done()
					if consumeErr = c.Consume(ctx); consumeErr != nil {
						zlog.Logger.Error().Err(consumeErr).Msg("consumer stopped")
						stop()
					}
				}()
			} else {
				zlog.Logger.Warn().Msg("kafka is not configured, consumer disabled")
			}

			// Start HTTP server in a separate goroutine.
			var s *http.Server
			if cfg.Server.HTTPPort != "" {
				h := derivative.NewHandler(a.Service, a.Catalog, cfg.Storage.Bucket)
				s = server.New(cfg.Server.HTTPPort, router.Setup(h), cfg.Pipeline.InvocationTimeout)
				go func() {
					zlog.Logger.Info().Str("addr", s.Addr).Msg("starting server")
					if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						zlog.Logger.Error().Err(err).Msg("server stopped")
						stop()
					}
				}()
			}

			// Block until context is canceled (SIGINT/SIGTERM).
			<-ctx.Done()
			zlog.Logger.Info().Msg("context done")

			// Wait for Kafka consumer goroutine to finish.
			wg.Wait()
			if c != nil {
				if err := c.Close(); err != nil {
					zlog.Logger.Error().Err(err).Msg("failed to close kafka consumer client")
				}
			}
			if dl != nil {
				if err := dl.Client.Close(); err != nil {
					zlog.Logger.Error().Err(err).Msg("failed to close kafka dead-letter client")
				}
			}

			if s == nil {
				return consumeErr
			}

			// Graceful shutdown with timeout for HTTP server.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			zlog.Logger.Info().Msg("shutting down server")
			if err := s.Shutdown(shutdownCtx); err != nil {
				zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
			}
			if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
				zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
			}

			return consumeErr
		},
	}
}
