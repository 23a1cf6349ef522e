package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aliskhannn/image-versioner/internal/config"
)

func loadDefaults(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("STORAGE_ENDPOINT", "localhost:9000")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"), true)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return cfg
}

func TestNewWiresDefaults(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.Engine.Driver = "native"

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer a.Close()

	if a.Catalog.Len() != 8 {
		t.Fatalf("expected 8 versions, got %d", a.Catalog.Len())
	}
	if a.Service == nil || a.Ingest == nil {
		t.Fatal("expected service and ingest handler to be wired")
	}
	if a.producer != nil {
		t.Fatal("expected no producer without a completion topic")
	}
	if a.Strategy.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", a.Strategy.Attempts)
	}
}

func TestNewRejectsUnknownDrivers(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{name: "storage", mutate: func(c *config.Config) { c.Storage.Driver = "ftp" }, want: "storage driver"},
		{name: "engine", mutate: func(c *config.Config) { c.Engine.Driver = "vips" }, want: "engine driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadDefaults(t)
			tt.mutate(cfg)

			_, err := New(context.Background(), cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q error, got %v", tt.want, err)
			}
		})
	}
}
