package driver

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadManifestBasic(t *testing.T) {
	path := writeManifest(t, `
name: demo
main: src/main.wf
on_error: continue
max_depth: 64
log:
  level: debug
  format: json
prelude:
  - path: lib/setup.wf
  - git: https://example.com/scripts.git
    tag: v1.0.0
    file: defaults.wf
`)

	manifest, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest returned error: %v", err)
	}
	if manifest.Name != "demo" || manifest.Main != "src/main.wf" {
		t.Fatalf("unexpected manifest %#v", manifest)
	}
	if manifest.OnError != OnErrorContinue || manifest.MaxDepth != 64 {
		t.Fatalf("unexpected policy/depth: %q %d", manifest.OnError, manifest.MaxDepth)
	}
	if manifest.Log.Level != "debug" || manifest.Log.Format != "json" {
		t.Fatalf("unexpected log config %#v", manifest.Log)
	}
	if got, want := manifest.MainPath(), filepath.Join(filepath.Dir(path), "src", "main.wf"); got != want {
		t.Fatalf("MainPath = %q, want %q", got, want)
	}
	if len(manifest.Prelude) != 2 {
		t.Fatalf("expected 2 preludes, got %#v", manifest.Prelude)
	}
	if manifest.Prelude[0].IsGit() || manifest.Prelude[0].Path != "lib/setup.wf" {
		t.Fatalf("path prelude not parsed: %#v", manifest.Prelude[0])
	}
	git := manifest.GitPreludes()
	if len(git) != 1 || git[0].Tag != "v1.0.0" || git[0].File != "defaults.wf" {
		t.Fatalf("git prelude not parsed: %#v", git)
	}
	if got := git[0].Describe(); got != "https://example.com/scripts.git@v1.0.0:defaults.wf" {
		t.Fatalf("Describe = %q", got)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	path := writeManifest(t, `
name: demo
main: main.wf
`)
	manifest, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest returned error: %v", err)
	}
	if manifest.OnError != OnErrorStop || manifest.MaxDepth != 0 {
		t.Fatalf("unexpected defaults %#v", manifest)
	}
	if manifest.Log.Level != "info" || manifest.Log.Format != "text" {
		t.Fatalf("unexpected log defaults %#v", manifest.Log)
	}
}

func TestLoadManifestValidation(t *testing.T) {
	path := writeManifest(t, `
name: ""
on_error: retry
max_depth: -1
log:
  level: loud
prelude:
  - {}
  - path: a.wf
    tag: v1
  - git: https://example.com/x.git
  - git: https://example.com/y.git
    rev: abc
    branch: main
    file: y.wf
`)

	_, err := LoadManifest(path)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	msg := err.Error()
	wantFragments := []string{
		"name must be provided",
		"main must be provided",
		`on_error must be stop or continue, got "retry"`,
		"max_depth must not be negative",
		`log.level "loud"`,
		"prelude[0]: must specify path or git",
		"prelude[1]: path preludes cannot specify rev, tag, branch or file",
		"prelude[2]: git preludes require rev, tag, or branch",
		"prelude[2]: git preludes require file",
		"prelude[3]: git preludes accept only one of rev, tag, branch",
	}
	for _, fragment := range wantFragments {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("validation error missing fragment %q: %s", fragment, msg)
		}
	}
}

func TestLoadManifestRejectsUnknownFields(t *testing.T) {
	path := writeManifest(t, `
name: demo
main: main.wf
targets:
  app: main.wf
`)
	if _, err := LoadManifest(path); err == nil || !strings.Contains(err.Error(), "targets") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestLoadManifestEmpty(t *testing.T) {
	path := writeManifest(t, "")
	if _, err := LoadManifest(path); err == nil || !strings.Contains(err.Error(), "is empty") {
		t.Fatalf("expected empty manifest error, got %v", err)
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	path := writeManifest(t, `
name: demo
main: main.wf
`)
	nested := filepath.Join(filepath.Dir(path), "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	found, err := FindManifest(nested)
	if err != nil {
		t.Fatalf("FindManifest: %v", err)
	}
	if found != path {
		t.Fatalf("FindManifest = %q, want %q", found, path)
	}

	script := filepath.Join(nested, "main.wf")
	writeFile(t, script, "x = 1")
	if found, err := FindManifest(script); err != nil || found != path {
		t.Fatalf("FindManifest from file = %q, %v", found, err)
	}
}

func TestFindManifestMissing(t *testing.T) {
	if _, err := FindManifest(t.TempDir()); !errors.Is(err, ErrManifestNotFound) {
		t.Fatalf("expected ErrManifestNotFound, got %v", err)
	}
}

func writeManifest(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestFileName)
	if err := os.WriteFile(path, []byte(strings.TrimSpace(contents)+"\n"), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(strings.TrimSpace(contents)+"\n"), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}
