// Package processor is the pure Go image engine. It inspects and resizes
// images with imaging and needs no external tools.
//
// The Go JPEG encoder writes baseline scans only and never embeds profiles,
// so progressive output is not available here and every profile is dropped.
package processor

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"strconv"

	"github.com/disintegration/imaging"

	"github.com/aliskhannn/image-versioner/internal/model"
)

// losslessQuality is reported for formats without lossy compression.
const losslessQuality = "100"

// Processor implements Identify and Resize on top of imaging.
type Processor struct {
	filter imaging.ResampleFilter
}

// New creates a Processor using the Lanczos filter.
func New() *Processor {
	return &Processor{filter: imaging.Lanczos}
}

// Identify reports format, dimensions and compression quality of the image at path.
func (p *Processor) Identify(_ context.Context, path string) (model.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Metadata{}, fmt.Errorf("%w: %w", model.ErrIdentify, err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return model.Metadata{}, fmt.Errorf("%w: decode header: %w", model.ErrIdentify, err)
	}

	md := model.Metadata{
		Format:  format,
		Width:   cfg.Width,
		Height:  cfg.Height,
		Quality: losslessQuality,
	}

	if format == "jpeg" {
		if _, err := f.Seek(0, 0); err != nil {
			return model.Metadata{}, fmt.Errorf("%w: %w", model.ErrIdentify, err)
		}
		q, err := estimateJPEGQuality(f)
		if err != nil {
			return model.Metadata{}, fmt.Errorf("%w: %w", model.ErrIdentify, err)
		}
		md.Quality = strconv.Itoa(q)
	}

	return md, nil
}

// Resize decodes opts.SrcPath, scales it and writes a JPEG to opts.DstPath.
// Without a height the aspect ratio follows the width; with one the image is
// scaled to fit inside the box.
func (p *Processor) Resize(_ context.Context, opts model.ResizeOptions) error {
	if opts.Format != "jpg" && opts.Format != "jpeg" {
		return fmt.Errorf("%w: unsupported output format %q", model.ErrResize, opts.Format)
	}
	if opts.Width <= 0 {
		return fmt.Errorf("%w: invalid width %d", model.ErrResize, opts.Width)
	}

	src, err := imaging.Open(opts.SrcPath, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("%w: open source: %w", model.ErrResize, err)
	}

	width, height := targetSize(src.Bounds().Dx(), src.Bounds().Dy(), opts.Width, opts.Height)
	resized := imaging.Resize(src, width, height, p.filter)

	// JPEG has no alpha channel; flatten onto white.
	flat := imaging.New(resized.Bounds().Dx(), resized.Bounds().Dy(), color.White)
	flat = imaging.Overlay(flat, resized, image.Pt(0, 0), 1.0)

	dst, err := os.Create(opts.DstPath)
	if err != nil {
		return fmt.Errorf("%w: create artifact: %w", model.ErrResize, err)
	}

	if err := imaging.Encode(dst, flat, imaging.JPEG, imaging.JPEGQuality(jpegQuality(opts.Quality))); err != nil {
		dst.Close()
		return fmt.Errorf("%w: encode: %w", model.ErrResize, err)
	}

	if err := dst.Close(); err != nil {
		return fmt.Errorf("%w: close artifact: %w", model.ErrResize, err)
	}

	return nil
}

// targetSize returns the output dimensions for a source of srcW x srcH.
func targetSize(srcW, srcH, width int, height *int) (int, int) {
	if height == nil {
		return width, 0
	}

	ratio := math.Min(float64(width)/float64(srcW), float64(*height)/float64(srcH))

	w := int(math.Round(float64(srcW) * ratio))
	h := int(math.Round(float64(srcH) * ratio))

	return max(w, 1), max(h, 1)
}

// jpegQuality maps a 0–1 quality to the encoder's 1–100 scale.
func jpegQuality(q float64) int {
	return min(max(int(math.Round(q*100)), 1), 100)
}
