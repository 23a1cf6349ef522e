package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aliskhannn/image-versioner/internal/model"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestVersionsCommandPrintsConfiguredCatalog(t *testing.T) {
	path := writeConfig(t, `
storage:
  endpoint: localhost:9000
pipeline:
  versions:
    - name: thumb
      width: 100
      height: 100
    - name: web
      width: 225
`)

	out, err := runCLI(t, "versions", "--config", path)
	if err != nil {
		t.Fatalf("versions: %v", err)
	}

	for _, want := range []string{"thumb", "100", "web", "225", "auto"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "xxhdpi") {
		t.Fatalf("expected configured catalog only, got:\n%s", out)
	}
}

func TestExplicitConfigMustExist(t *testing.T) {
	_, err := runCLI(t, "versions", "--config", filepath.Join(t.TempDir(), "missing.yml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestProcessRequiresKey(t *testing.T) {
	_, err := runCLI(t, "process", "--bucket", "media")
	if err == nil || !strings.Contains(err.Error(), "key") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestRenderVersionsMarksAutoHeight(t *testing.T) {
	h := 100
	out := renderVersions(nil)
	if !strings.Contains(out, "Version") || strings.Contains(out, "VERSION") {
		t.Fatalf("expected header as written, got:\n%s", out)
	}

	out = renderVersions([]model.VersionSpec{{Name: "thumb", Width: 100, Height: &h}, {Name: "web", Width: 225}})
	lines := strings.Split(out, "\n")
	var web string
	for _, l := range lines {
		if strings.Contains(l, "web") {
			web = l
		}
	}
	if !strings.Contains(web, "auto") {
		t.Fatalf("expected auto height for web, got %q", web)
	}
}
