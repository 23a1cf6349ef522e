// Package persister publishes local derivatives to object storage.
package persister

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-versioner/internal/model"
)

// ContentType is the content type of every published derivative.
const ContentType = "image/jpeg"

const (
	DefaultCacheMaxAge = 365 * 24 * time.Hour
	DefaultExpiresIn   = 7 * 24 * time.Hour
)

// putter defines the interface for writing objects to storage.
type putter interface {
	Put(ctx context.Context, bucket, key string, body []byte, opts model.PutOptions) error
}

// Gateway uploads derivatives and removes their local artifacts.
type Gateway struct {
	storage     putter
	strategy    retry.Strategy
	cacheMaxAge time.Duration
	expiresIn   time.Duration
	now         func() time.Time
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithCacheMaxAge sets the Cache-Control max-age of published objects.
func WithCacheMaxAge(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.cacheMaxAge = d
		}
	}
}

// WithExpiresIn sets how far in the future the Expires header points.
func WithExpiresIn(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.expiresIn = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

// New creates a Gateway writing through s and retrying uploads with strategy.
// Every upload is attempted at least once.
func New(s putter, strategy retry.Strategy, opts ...Option) *Gateway {
	if strategy.Attempts < 1 {
		strategy.Attempts = 1
	}

	g := &Gateway{
		storage:     s,
		strategy:    strategy,
		cacheMaxAge: DefaultCacheMaxAge,
		expiresIn:   DefaultExpiresIn,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Persist uploads asset to bucket under asset.Key as a public JPEG.
// The local artifact is removed afterwards whatever the outcome; a failed
// removal is only logged.
func (g *Gateway) Persist(ctx context.Context, asset model.DerivedAsset, bucket string) error {
	defer g.cleanup(asset)

	body, err := os.ReadFile(asset.Path)
	if err != nil {
		return &model.UploadError{Version: asset.Version, Key: asset.Key, Err: fmt.Errorf("read artifact: %w", err)}
	}

	opts := model.PutOptions{
		ContentType:  ContentType,
		CacheControl: fmt.Sprintf("max-age=%d", int64(g.cacheMaxAge/time.Second)),
		Expires:      g.now().Add(g.expiresIn).UTC(),
		PublicRead:   true,
		Metadata:     map[string]string{model.DerivedMetadataKey: asset.Version},
	}

	err = retry.Do(func() error {
		return g.storage.Put(ctx, bucket, asset.Key, body, opts)
	}, g.strategy)
	if err != nil {
		return &model.UploadError{Version: asset.Version, Key: asset.Key, Err: err}
	}

	zlog.Logger.Info().
		Str("version", asset.Version).
		Str("bucket", bucket).
		Str("key", asset.Key).
		Msg("derivative published")

	return nil
}

func (g *Gateway) cleanup(asset model.DerivedAsset) {
	if err := os.Remove(asset.Path); err != nil && !os.IsNotExist(err) {
		zlog.Logger.Warn().
			Err(err).
			Str("version", asset.Version).
			Str("path", asset.Path).
			Msg("cleanup warning: failed to remove local artifact")
	}
}
