// Package app assembles the derivative pipeline from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-versioner/internal/catalog"
	"github.com/aliskhannn/image-versioner/internal/config"
	"github.com/aliskhannn/image-versioner/internal/infra/kafka/producer"
	"github.com/aliskhannn/image-versioner/internal/ingest"
	"github.com/aliskhannn/image-versioner/internal/magick"
	"github.com/aliskhannn/image-versioner/internal/model"
	"github.com/aliskhannn/image-versioner/internal/orchestrator"
	"github.com/aliskhannn/image-versioner/internal/persister"
	"github.com/aliskhannn/image-versioner/internal/processor"
	"github.com/aliskhannn/image-versioner/internal/service/derivative"
	"github.com/aliskhannn/image-versioner/internal/storage/awss3"
	"github.com/aliskhannn/image-versioner/internal/storage/file"
	"github.com/aliskhannn/image-versioner/internal/transcoder"
)

// objectStorage is what the pipeline needs from a storage backend.
type objectStorage interface {
	Get(ctx context.Context, bucket, key string) (model.Object, error)
	Put(ctx context.Context, bucket, key string, body []byte, opts model.PutOptions) error
}

// engine inspects and resizes local images.
type engine interface {
	Identify(ctx context.Context, path string) (model.Metadata, error)
	Resize(ctx context.Context, opts model.ResizeOptions) error
}

// App holds the wired pipeline.
type App struct {
	Config   *config.Config
	Strategy retry.Strategy
	Catalog  *catalog.Catalog
	Service  *derivative.Service
	Ingest   *ingest.Handler

	producer *producer.Producer
}

// New builds every component named by cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Retry strategy for uploads, Kafka and other external calls.
	strategy := retry.Strategy{
		Attempts: cfg.Retry.Attempts,
		Delay:    cfg.Retry.Delay,
		Backoff:  cfg.Retry.Backoff,
	}

	cat, err := catalog.New(cfg.Pipeline.Versions)
	if err != nil {
		return nil, err
	}

	st, err := newStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	eng, err := newEngine(cfg.Engine)
	if err != nil {
		return nil, err
	}

	gw := persister.New(st, strategy,
		persister.WithCacheMaxAge(cfg.Pipeline.CacheMaxAge),
		persister.WithExpiresIn(cfg.Pipeline.ExpiresIn),
	)
	orch := orchestrator.New(cat, transcoder.New(eng), gw)

	a := &App{
		Config:   cfg,
		Strategy: strategy,
		Catalog:  cat,
	}

	opts := []derivative.Option{
		derivative.WithWorkDir(cfg.Pipeline.WorkDir),
		derivative.WithTimeout(cfg.Pipeline.InvocationTimeout),
	}
	if cfg.Kafka.CompletionTopic != "" && len(cfg.Kafka.Brokers) > 0 {
		a.producer = producer.New(cfg.Kafka.Brokers, cfg.Kafka.CompletionTopic, strategy)
		opts = append(opts, derivative.WithNotifier(a.producer))
	}

	a.Service = derivative.NewService(st, eng, orch, opts...)

	var skip []string
	if cfg.Pipeline.SkipDerived {
		skip = cat.Names()
	}
	a.Ingest = ingest.NewHandler(a.Service, skip...)

	zlog.Logger.Info().
		Str("storage", cfg.Storage.Driver).
		Str("engine", cfg.Engine.Driver).
		Strs("versions", cat.Names()).
		Msg("pipeline ready")

	return a, nil
}

// Close releases the clients held by the app.
func (a *App) Close() {
	if a.producer == nil {
		return
	}
	if err := a.producer.Client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close kafka producer client")
	}
}

func newStorage(ctx context.Context, cfg config.Storage) (objectStorage, error) {
	switch cfg.Driver {
	case "minio":
		st, err := file.NewStorage(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.Region, cfg.UseSSL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to storage: %w", err)
		}
		if cfg.Bucket != "" {
			if err := st.EnsureBucket(ctx, cfg.Bucket); err != nil {
				return nil, err
			}
		}
		return st, nil
	case "s3":
		st, err := awss3.NewStorage(ctx, awss3.Options{
			Region:       cfg.Region,
			Endpoint:     cfg.Endpoint,
			AccessKey:    cfg.AccessKey,
			SecretKey:    cfg.SecretKey,
			UsePathStyle: cfg.UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to configure s3: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func newEngine(cfg config.Engine) (engine, error) {
	switch cfg.Driver {
	case "magick":
		var opts []magick.Option
		if cfg.IdentifyBinary != "" {
			opts = append(opts, magick.WithIdentifyBinary(cfg.IdentifyBinary))
		}
		if cfg.ConvertBinary != "" {
			opts = append(opts, magick.WithConvertBinary(cfg.ConvertBinary))
		}
		return magick.New(opts...), nil
	case "native":
		return processor.New(), nil
	default:
		return nil, fmt.Errorf("unknown engine driver %q", cfg.Driver)
	}
}
