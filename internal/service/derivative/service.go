// Package derivative runs one invocation of the derivative pipeline: fetch the
// source, validate it, estimate the re-encode quality and hand the catalog to
// the orchestrator.
package derivative

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-versioner/internal/ingest"
	"github.com/aliskhannn/image-versioner/internal/model"
	"github.com/aliskhannn/image-versioner/internal/quality"
)

// sourceStorage defines the interface for fetching source objects.
type sourceStorage interface {
	Get(ctx context.Context, bucket, key string) (model.Object, error)
}

// identifier defines the interface for inspecting a local image.
type identifier interface {
	Identify(ctx context.Context, path string) (model.Metadata, error)
}

// runner defines the interface for rendering and publishing all versions.
type runner interface {
	Run(ctx context.Context, source model.SourceImage, quality float64, bucket string) ([]model.DerivedAsset, error)
}

// notifier defines the interface for announcing finished invocations.
type notifier interface {
	Publish(ctx context.Context, event model.CompletionEvent) error
}

// Service generates and publishes the derivatives of uploaded images.
type Service struct {
	storage      sourceStorage
	identifier   identifier
	orchestrator runner
	notifier     notifier
	workDir      string
	timeout      time.Duration
	now          func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier publishes a completion event after each successful invocation.
func WithNotifier(n notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithWorkDir sets the directory invocation work dirs are created in.
// Defaults to the system temp dir.
func WithWorkDir(dir string) Option {
	return func(s *Service) { s.workDir = dir }
}

// WithTimeout bounds a whole invocation. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// NewService creates a Service.
func NewService(st sourceStorage, id identifier, o runner, opts ...Option) *Service {
	s := &Service{
		storage:      st,
		identifier:   id,
		orchestrator: o,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process generates every catalog version of bucket/key and publishes them.
// It either publishes the full set or returns an error; local files created
// for the invocation are removed before it returns.
func (s *Service) Process(ctx context.Context, bucket, key string) (model.Result, error) {
	id := uuid.New()
	log := zlog.Logger.With().
		Str("invocation", id.String()).
		Str("bucket", bucket).
		Str("key", key).
		Logger()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	source, err := ingest.ParseKey(bucket, key)
	if err != nil {
		return model.Result{}, err
	}

	// Fetch the original and check what it is before touching the disk.
	obj, err := s.storage.Get(ctx, bucket, key)
	if err != nil {
		return model.Result{}, fmt.Errorf("%w: %w", model.ErrSourceFetch, err)
	}

	// Published derivatives land in the same bucket and must not be derived again.
	if v := obj.DerivedVersion(); v != "" {
		log.Info().Str("version", v).Msg("skipping published derivative")
		return model.Result{}, fmt.Errorf("%w: %s is the %s version", model.ErrDerivedSource, key, v)
	}

	source.ContentType, err = ingest.ResolveMediaType(obj.ContentType, obj.Body)
	if err != nil {
		log.Warn().Str("content_type", obj.ContentType).Msg("rejecting unsupported source")
		return model.Result{}, err
	}

	// Every file of this invocation lives under its own work dir.
	dir, err := os.MkdirTemp(s.workDir, "invocation-"+id.String()+"-")
	if err != nil {
		return model.Result{}, fmt.Errorf("create work dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("cleanup warning: failed to remove work dir")
		}
	}()

	source.Path = filepath.Join(dir, "source."+source.Ext)
	if err := os.WriteFile(source.Path, obj.Body, 0o600); err != nil {
		return model.Result{}, fmt.Errorf("write source: %w", err)
	}

	source.Metadata, err = s.identifier.Identify(ctx, source.Path)
	if err != nil {
		if !errors.Is(err, model.ErrIdentify) {
			err = fmt.Errorf("%w: %w", model.ErrIdentify, err)
		}
		return model.Result{}, err
	}

	q, err := quality.FromMetadata(source.Metadata)
	if err != nil {
		return model.Result{}, err
	}

	log.Info().
		Str("format", source.Metadata.Format).
		Str("source_quality", source.Metadata.Quality).
		Float64("quality", q).
		Msg("quality setting")

	assets, err := s.orchestrator.Run(ctx, source, q, bucket)
	if err != nil {
		return model.Result{}, err
	}

	result := model.Result{
		InvocationID: id,
		Bucket:       bucket,
		SourceKey:    key,
		Quality:      q,
		Derivatives:  assets,
	}

	log.Info().Int("derivatives", len(assets)).Msg("invocation completed")

	s.notify(ctx, result)

	return result, nil
}

func (s *Service) notify(ctx context.Context, r model.Result) {
	if s.notifier == nil {
		return
	}

	event := model.CompletionEvent{
		InvocationID: r.InvocationID,
		Bucket:       r.Bucket,
		SourceKey:    r.SourceKey,
		Quality:      r.Quality,
		Derivatives:  r.Derivatives,
		CompletedAt:  s.now().UTC(),
	}

	if err := s.notifier.Publish(ctx, event); err != nil {
		zlog.Logger.Error().
			Err(err).
			Str("invocation", r.InvocationID.String()).
			Msg("failed to publish completion event")
	}
}
