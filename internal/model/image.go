package model

import (
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SourceImage is the uploaded original an invocation derives versions from.
type SourceImage struct {
	Bucket      string   `json:"bucket"`
	Key         string   `json:"key"`
	BasePath    string   `json:"base_path"` // key without the file name, no trailing slash
	Name        string   `json:"name"`      // file name without extension
	Ext         string   `json:"ext"`       // extension without the leading dot
	ContentType string   `json:"content_type"`
	Path        string   `json:"-"` // local copy inside the invocation work dir
	Metadata    Metadata `json:"metadata"`
}

// Suffix returns the part of the file name after its last underscore,
// or the whole name when it has none.
func (s SourceImage) Suffix() string {
	if i := strings.LastIndex(s.Name, "_"); i >= 0 {
		return s.Name[i+1:]
	}
	return s.Name
}

// DerivedFileName returns "{version}_{suffix}.{ext}".
func (s SourceImage) DerivedFileName(version string) string {
	return version + "_" + s.Suffix() + "." + s.Ext
}

// DerivedKey returns the destination object key of the given version.
// It depends only on the source key and the version name.
func (s SourceImage) DerivedKey(version string) string {
	if s.BasePath == "" {
		return s.DerivedFileName(version)
	}
	return path.Join(s.BasePath, s.DerivedFileName(version))
}

// VersionSpec describes one named target size.
// A nil Height keeps the aspect ratio of the source.
type VersionSpec struct {
	Name   string `mapstructure:"name" json:"name" validate:"required,excludesall=/"`
	Width  int    `mapstructure:"width" json:"width" validate:"gt=0"`
	Height *int   `mapstructure:"height" json:"height,omitempty" validate:"omitempty,gt=0"`
}

// DerivedAsset is one transcoded version waiting for (or after) upload.
type DerivedAsset struct {
	Version string  `json:"version"`
	Path    string  `json:"-"`
	Key     string  `json:"key"`
	Quality float64 `json:"quality"`
}

// Metadata is what the inspector reports about a local image.
type Metadata struct {
	Format  string `json:"format"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Quality string `json:"quality"` // raw report on the 1–100 scale, e.g. "92"; empty when unknown
}

// ResizeOptions are the arguments of a single resize-and-reencode call.
type ResizeOptions struct {
	SrcPath       string
	DstPath       string
	Width         int
	Height        *int
	Quality       float64 // 0–1
	Format        string
	Progressive   bool
	StripProfiles []string // embedded profiles removed from the output
}

// DerivedMetadataKey is the user metadata key that marks a published
// derivative; its value is the version name.
const DerivedMetadataKey = "derivative-version"

// Object is a fetched storage object. Metadata holds user metadata with
// lower-case keys and no "x-amz-meta-" prefix.
type Object struct {
	Body        []byte
	ContentType string
	Metadata    map[string]string
}

// DerivedVersion returns the version an object was published as, or "" for
// an original upload.
func (o Object) DerivedVersion() string {
	return o.Metadata[DerivedMetadataKey]
}

// PutOptions control how a derivative is published.
type PutOptions struct {
	ContentType  string
	CacheControl string
	Expires      time.Time
	PublicRead   bool
	Metadata     map[string]string // user metadata, keys without prefix
}

// Result summarises a successful invocation.
type Result struct {
	InvocationID uuid.UUID      `json:"invocation_id"`
	Bucket       string         `json:"bucket"`
	SourceKey    string         `json:"source_key"`
	Quality      float64        `json:"quality"`
	Derivatives  []DerivedAsset `json:"derivatives"`
}
