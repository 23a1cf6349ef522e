// Package magick drives the ImageMagick command line tools as the image engine.
package magick

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/aliskhannn/image-versioner/internal/model"
)

const (
	defaultIdentify = "identify"
	defaultConvert  = "convert"
)

var commandContext = exec.CommandContext

// Engine runs identify and convert.
type Engine struct {
	identify string
	convert  string
}

// Option configures an Engine.
type Option func(*Engine)

// WithIdentifyBinary overrides the identify executable.
func WithIdentifyBinary(path string) Option {
	return func(e *Engine) {
		if path = strings.TrimSpace(path); path != "" {
			e.identify = path
		}
	}
}

// WithConvertBinary overrides the convert executable.
func WithConvertBinary(path string) Option {
	return func(e *Engine) {
		if path = strings.TrimSpace(path); path != "" {
			e.convert = path
		}
	}
}

// New creates an Engine using the binaries found on PATH unless overridden.
func New(opts ...Option) *Engine {
	e := &Engine{identify: defaultIdentify, convert: defaultConvert}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Identify reports format, dimensions and quality of the first frame at path.
func (e *Engine) Identify(ctx context.Context, path string) (model.Metadata, error) {
	if strings.TrimSpace(path) == "" {
		return model.Metadata{}, fmt.Errorf("%w: empty path", model.ErrIdentify)
	}

	cmd := commandContext(ctx, e.identify, "-format", "%m %w %h %Q", path+"[0]")
	output, err := cmd.Output()
	if err != nil {
		return model.Metadata{}, fmt.Errorf("%w: %s: %w%s", model.ErrIdentify, e.identify, err, stderrOf(err))
	}

	return parseIdentify(string(output))
}

// parseIdentify reads "FORMAT WIDTH HEIGHT QUALITY". A missing quality is
// left empty for the caller to reject.
func parseIdentify(output string) (model.Metadata, error) {
	fields := strings.Fields(output)
	if len(fields) < 3 {
		return model.Metadata{}, fmt.Errorf("%w: unexpected identify output %q", model.ErrIdentify, strings.TrimSpace(output))
	}

	width, err := strconv.Atoi(fields[1])
	if err != nil {
		return model.Metadata{}, fmt.Errorf("%w: width %q", model.ErrIdentify, fields[1])
	}
	height, err := strconv.Atoi(fields[2])
	if err != nil {
		return model.Metadata{}, fmt.Errorf("%w: height %q", model.ErrIdentify, fields[2])
	}

	md := model.Metadata{
		Format: strings.ToLower(fields[0]),
		Width:  width,
		Height: height,
	}
	if len(fields) > 3 {
		md.Quality = fields[3]
	}

	return md, nil
}

// Resize runs convert with the arguments built from opts.
func (e *Engine) Resize(ctx context.Context, opts model.ResizeOptions) error {
	args, err := resizeArgs(opts)
	if err != nil {
		return err
	}

	cmd := commandContext(ctx, e.convert, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s: %w: %s", model.ErrResize, e.convert, err, strings.TrimSpace(string(output)))
	}

	return nil
}

func resizeArgs(opts model.ResizeOptions) ([]string, error) {
	if opts.SrcPath == "" || opts.DstPath == "" {
		return nil, fmt.Errorf("%w: source and destination are required", model.ErrResize)
	}
	if opts.Width <= 0 {
		return nil, fmt.Errorf("%w: invalid width %d", model.ErrResize, opts.Width)
	}

	geometry := strconv.Itoa(opts.Width)
	if opts.Height != nil {
		geometry += "x" + strconv.Itoa(*opts.Height)
	}

	args := []string{
		opts.SrcPath + "[0]",
		"-resize", geometry,
		"-quality", strconv.Itoa(quality(opts.Quality)),
	}
	if opts.Progressive {
		args = append(args, "-interlace", "Plane")
	}
	for _, profile := range opts.StripProfiles {
		args = append(args, "+profile", profile)
	}

	format := opts.Format
	if format == "" {
		format = "jpg"
	}
	args = append(args, format+":"+opts.DstPath)

	return args, nil
}

// quality maps a 0–1 quality to ImageMagick's 1–100 scale.
func quality(q float64) int {
	return min(max(int(math.Round(q*100)), 1), 100)
}

func stderrOf(err error) string {
	if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
		return ": " + strings.TrimSpace(string(exitErr.Stderr))
	}
	return ""
}
