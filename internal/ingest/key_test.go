package ingest

import (
	"errors"
	"testing"

	"github.com/aliskhannn/image-versioner/internal/model"
)

func TestDecodeKey(t *testing.T) {
	tests := map[string]string{
		"uploads/photo_001.jpg":             "uploads/photo_001.jpg",
		"uploads/my+holiday/photo_001.jpg":  "uploads/my holiday/photo_001.jpg",
		"uploads/caf%C3%A9/photo%20001.png": "uploads/café/photo 001.png",
		"a%2Bb/photo_1.gif":                 "a+b/photo_1.gif",
	}

	for raw, want := range tests {
		got, err := DecodeKey(raw)
		if err != nil {
			t.Fatalf("DecodeKey(%q) returned error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("DecodeKey(%q) = %q, expected %q", raw, got, want)
		}
	}

	if _, err := DecodeKey("bad%zzkey.jpg"); !errors.Is(err, model.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey for malformed escape, got %v", err)
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		key      string
		basePath string
		name     string
		ext      string
	}{
		{key: "users/42/photo_001.jpg", basePath: "users/42", name: "photo_001", ext: "jpg"},
		{key: "photo_001.png", basePath: "", name: "photo_001", ext: "png"},
		{key: "a/my.photo_9.JPEG", basePath: "a", name: "my.photo_9", ext: "JPEG"},
	}

	for _, tt := range tests {
		src, err := ParseKey("media", tt.key)
		if err != nil {
			t.Fatalf("ParseKey(%q) returned error: %v", tt.key, err)
		}
		if src.Bucket != "media" || src.Key != tt.key {
			t.Fatalf("expected identity to be kept, got %+v", src)
		}
		if src.BasePath != tt.basePath || src.Name != tt.name || src.Ext != tt.ext {
			t.Fatalf("ParseKey(%q) = (%q, %q, %q), expected (%q, %q, %q)",
				tt.key, src.BasePath, src.Name, src.Ext, tt.basePath, tt.name, tt.ext)
		}
	}
}

func TestParseKeyRejectsMalformedKeys(t *testing.T) {
	for _, key := range []string{"", "uploads/", "uploads/photo", "uploads/.jpg", "uploads/photo."} {
		if _, err := ParseKey("media", key); !errors.Is(err, model.ErrInvalidKey) {
			t.Fatalf("ParseKey(%q): expected ErrInvalidKey, got %v", key, err)
		}
	}
}
