// Package orchestrator fans the catalog out over the transcoder, then fans the
// produced artifacts out over the persistence gateway.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-versioner/internal/model"
)

// transcoder defines the interface for rendering one version.
type transcoder interface {
	Transcode(ctx context.Context, source model.SourceImage, spec model.VersionSpec, quality float64) (model.DerivedAsset, error)
}

// persister defines the interface for publishing one rendered version.
type persister interface {
	Persist(ctx context.Context, asset model.DerivedAsset, bucket string) error
}

// versionSource defines the source of versions to render.
type versionSource interface {
	Versions() []model.VersionSpec
}

// Orchestrator runs the transcode and persist stages of an invocation.
type Orchestrator struct {
	catalog    versionSource
	transcoder transcoder
	persister  persister
}

// New creates an Orchestrator.
func New(c versionSource, t transcoder, p persister) *Orchestrator {
	return &Orchestrator{catalog: c, transcoder: t, persister: p}
}

// Run renders every catalog version of source and publishes them to bucket.
//
// Both stages wait for every task before returning, so no engine call or
// upload is left running. If any version fails to render nothing is
// published. Artifacts left behind by a failed transcode stage live in the
// invocation work dir and are removed by its owner.
func (o *Orchestrator) Run(ctx context.Context, source model.SourceImage, quality float64, bucket string) ([]model.DerivedAsset, error) {
	versions := o.catalog.Versions()
	if len(versions) == 0 {
		return nil, nil
	}

	assets, err := o.transcodeAll(ctx, source, versions, quality)
	if err != nil {
		return nil, fmt.Errorf("transcode stage: %w", err)
	}

	zlog.Logger.Info().
		Str("key", source.Key).
		Int("versions", len(assets)).
		Msg("all versions rendered")

	if err := o.persistAll(ctx, assets, bucket); err != nil {
		return nil, fmt.Errorf("persist stage: %w", err)
	}

	return assets, nil
}

func (o *Orchestrator) transcodeAll(ctx context.Context, source model.SourceImage, versions []model.VersionSpec, quality float64) ([]model.DerivedAsset, error) {
	p := pool.NewWithResults[model.DerivedAsset]().
		WithErrors().
		WithMaxGoroutines(len(versions))

	for _, spec := range versions {
		p.Go(func() (model.DerivedAsset, error) {
			return o.transcoder.Transcode(ctx, source, spec, quality)
		})
	}

	return p.Wait()
}

func (o *Orchestrator) persistAll(ctx context.Context, assets []model.DerivedAsset, bucket string) error {
	p := pool.New().
		WithErrors().
		WithMaxGoroutines(len(assets))

	for _, asset := range assets {
		p.Go(func() error {
			return o.persister.Persist(ctx, asset, bucket)
		})
	}

	return p.Wait()
}
