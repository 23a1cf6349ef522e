package ingest

import (
	"fmt"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/aliskhannn/image-versioner/internal/model"
)

// supportedMediaTypes maps accepted content types to their format name.
var supportedMediaTypes = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/gif":  "gif",
}

const genericMediaType = "application/octet-stream"

// ResolveMediaType checks the declared content type of a source against the
// supported set. Missing or generic declarations are resolved by sniffing body.
func ResolveMediaType(declared string, body []byte) (string, error) {
	mediaType := normalizeMediaType(declared)

	if mediaType == "" || mediaType == genericMediaType {
		mediaType = normalizeMediaType(mimetype.Detect(body).String())
	}

	if _, ok := supportedMediaTypes[mediaType]; !ok {
		return "", fmt.Errorf("%w: %q (declared %q)", model.ErrUnsupportedMediaType, mediaType, declared)
	}

	return mediaType, nil
}

// SupportedMediaTypes lists the accepted content types.
func SupportedMediaTypes() []string {
	types := make([]string, 0, len(supportedMediaTypes))
	for t := range supportedMediaTypes {
		types = append(types, t)
	}
	return types
}

func normalizeMediaType(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(v); err == nil {
		return mt
	}
	return v
}
