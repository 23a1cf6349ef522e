// Package ingest validates object-created notifications and hands each source
// to the derivative service.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-versioner/internal/model"
)

// service defines the interface for generating derivatives of one source.
type service interface {
	Process(ctx context.Context, bucket, key string) (model.Result, error)
}

// Handler dispatches storage notifications to the derivative service.
type Handler struct {
	service         service
	derivedPrefixes []string
}

// NewHandler creates a Handler. Published derivatives are recognised by their
// metadata tag and skipped by the service. Passing versions additionally skips
// objects whose file name starts with "{version}_" without fetching them; use
// it only when uploads never carry such names.
func NewHandler(s service, versions ...string) *Handler {
	prefixes := make([]string, 0, len(versions))
	for _, v := range versions {
		prefixes = append(prefixes, v+"_")
	}

	return &Handler{service: s, derivedPrefixes: prefixes}
}

// HandleEvent processes every object-created record in the event.
// Records are processed one after another; all failures are returned joined
// so the host marks the delivery as failed.
func (h *Handler) HandleEvent(ctx context.Context, event events.S3Event) error {
	var errs []error

	for _, record := range event.Records {
		if record.EventName != "" && !strings.Contains(record.EventName, "ObjectCreated") {
			zlog.Logger.Debug().
				Str("event", record.EventName).
				Msg("ignoring non object-created record")
			continue
		}

		bucket := record.S3.Bucket.Name
		key, err := DecodeKey(record.S3.Object.Key)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if h.isDerived(key) {
			zlog.Logger.Info().
				Str("bucket", bucket).
				Str("key", key).
				Msg("skipping derived object")
			continue
		}

		_, err = h.service.Process(ctx, bucket, key)
		switch {
		case errors.Is(err, model.ErrDerivedSource):
			// Our own output; nothing to do.
		case err != nil:
			errs = append(errs, fmt.Errorf("process %s/%s: %w", bucket, key, err))
		}
	}

	return errors.Join(errs...)
}

func (h *Handler) isDerived(key string) bool {
	file := path.Base(key)
	for _, p := range h.derivedPrefixes {
		if strings.HasPrefix(file, p) {
			return true
		}
	}
	return false
}
