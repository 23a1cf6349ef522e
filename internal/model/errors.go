package model

import (
	"errors"
	"fmt"
)

var (
	ErrSourceFetch          = errors.New("source fetch failed")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrInvalidKey           = errors.New("invalid object key")
	ErrIdentify             = errors.New("identify failed")
	ErrInvalidMetadata      = errors.New("invalid image metadata")
	ErrResize               = errors.New("resize failed")
	ErrDerivedSource        = errors.New("source is a published derivative")
)

// TranscodeError reports a version that could not be produced.
type TranscodeError struct {
	Version string
	Err     error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode %s: %v", e.Version, e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// UploadError reports a version that could not be published.
type UploadError struct {
	Version string
	Key     string
	Err     error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s to %s: %v", e.Version, e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
