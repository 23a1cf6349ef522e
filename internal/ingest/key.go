package ingest

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aliskhannn/image-versioner/internal/model"
)

// DecodeKey undoes the URL encoding of keys in storage notifications,
// where spaces arrive as "+".
func DecodeKey(raw string) (string, error) {
	key, err := url.QueryUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("%w: decode %q: %v", model.ErrInvalidKey, raw, err)
	}
	return key, nil
}

// ParseKey splits an object key into base path, file name and extension.
// The extension is everything after the last dot of the file name.
func ParseKey(bucket, key string) (model.SourceImage, error) {
	if key == "" || strings.HasSuffix(key, "/") {
		return model.SourceImage{}, fmt.Errorf("%w: %q has no file name", model.ErrInvalidKey, key)
	}

	base, file := path.Split(key)

	dot := strings.LastIndex(file, ".")
	if dot <= 0 || dot == len(file)-1 {
		return model.SourceImage{}, fmt.Errorf("%w: %q has no extension", model.ErrInvalidKey, key)
	}

	return model.SourceImage{
		Bucket:   bucket,
		Key:      key,
		BasePath: strings.TrimSuffix(base, "/"),
		Name:     file[:dot],
		Ext:      file[dot+1:],
	}, nil
}
