// Package transcoder renders one catalog version of a source image into a
// local JPEG artifact.
package transcoder

import (
	"context"
	"path/filepath"

	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-versioner/internal/model"
)

// OutputFormat is the format every derivative is re-encoded to.
const OutputFormat = "jpg"

// strippedProfiles are the embedded profiles removed from every derivative.
var strippedProfiles = []string{"icc", "xmp"}

// resizer defines the resize-and-reencode capability of an image engine.
type resizer interface {
	Resize(ctx context.Context, opts model.ResizeOptions) error
}

// Transcoder produces derivatives next to the local copy of the source.
type Transcoder struct {
	resizer resizer
}

// New creates a Transcoder backed by the given engine.
func New(r resizer) *Transcoder {
	return &Transcoder{resizer: r}
}

// Transcode renders spec from source at the given quality. The artifact is
// written to the directory holding source.Path. Engine failures are returned
// as *model.TranscodeError.
func (t *Transcoder) Transcode(ctx context.Context, source model.SourceImage, spec model.VersionSpec, quality float64) (model.DerivedAsset, error) {
	fileName := source.DerivedFileName(spec.Name)
	asset := model.DerivedAsset{
		Version: spec.Name,
		Path:    filepath.Join(filepath.Dir(source.Path), fileName),
		Key:     source.DerivedKey(spec.Name),
		Quality: quality,
	}

	opts := model.ResizeOptions{
		SrcPath:       source.Path,
		DstPath:       asset.Path,
		Width:         spec.Width,
		Quality:       quality,
		Format:        OutputFormat,
		Progressive:   true,
		StripProfiles: append([]string(nil), strippedProfiles...),
	}
	if spec.Height != nil {
		h := *spec.Height
		opts.Height = &h
	}

	if err := t.resizer.Resize(ctx, opts); err != nil {
		return model.DerivedAsset{}, &model.TranscodeError{Version: spec.Name, Err: err}
	}

	zlog.Logger.Debug().
		Str("version", spec.Name).
		Str("path", asset.Path).
		Float64("quality", quality).
		Msg("version rendered")

	return asset, nil
}
