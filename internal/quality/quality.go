// Package quality derives the JPEG re-encode quality of derivatives from the
// compression quality detected in the source image.
package quality

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aliskhannn/image-versioner/internal/model"
)

// Threshold is the source quality at or below which derivatives are
// re-encoded at maximum quality.
const Threshold = 0.75

// Parse normalises a quality report to the 0–1 range.
// Engines report quality on the 1–100 scale ("92" -> 0.92, "1" -> 0.01).
func Parse(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: quality is missing", model.ErrInvalidMetadata)
	}

	q, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: quality %q is not a number", model.ErrInvalidMetadata, raw)
	}
	if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 || q > 100 {
		return 0, fmt.Errorf("%w: quality %q is out of range", model.ErrInvalidMetadata, raw)
	}
	return q / 100, nil
}

// Estimate returns the re-encode quality for a source of the given quality.
//
// Sources at or below Threshold already have headroom and get 1.0. Above it
// the result is Threshold + (1 - q), which falls towards Threshold as the
// source approaches lossless.
func Estimate(sourceQuality float64) (float64, error) {
	if math.IsNaN(sourceQuality) || math.IsInf(sourceQuality, 0) {
		return 0, fmt.Errorf("%w: quality is not a number", model.ErrInvalidMetadata)
	}
	if sourceQuality <= 0 || sourceQuality > 1 {
		return 0, fmt.Errorf("%w: quality %v is out of range (0, 1]", model.ErrInvalidMetadata, sourceQuality)
	}

	if sourceQuality <= Threshold {
		return 1.0, nil
	}

	return Threshold + (1.0 - sourceQuality), nil
}

// FromMetadata parses and estimates in one step.
func FromMetadata(md model.Metadata) (float64, error) {
	q, err := Parse(md.Quality)
	if err != nil {
		return 0, err
	}
	return Estimate(q)
}
