package driver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Source is one chunk of program text handed to the parser.
type Source struct {
	Name string
	Text string
}

// ReadSource loads a script from disk.
func ReadSource(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Source{Name: path, Text: string(data)}, nil
}

// Loader resolves manifest preludes to source text. Git preludes use the
// lockfile pin when one exists and are resolved live otherwise.
type Loader struct {
	manifest *Manifest
	lock     *Lockfile
	fetcher  *GitFetcher
	logger   *slog.Logger
}

// NewLoader returns a loader for manifest. lock and fetcher may be nil when
// the manifest has no git preludes.
func NewLoader(manifest *Manifest, lock *Lockfile, fetcher *GitFetcher, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{manifest: manifest, lock: lock, fetcher: fetcher, logger: logger}
}

// Prelude returns the sources to evaluate before main, in manifest order.
func (l *Loader) Prelude(ctx context.Context) ([]Source, error) {
	sources := make([]Source, 0, len(l.manifest.Prelude))
	for _, spec := range l.manifest.Prelude {
		src, err := l.load(ctx, spec)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// Main returns the manifest entry script.
func (l *Loader) Main() (Source, error) {
	return ReadSource(l.manifest.MainPath())
}

func (l *Loader) load(ctx context.Context, spec *PreludeSpec) (Source, error) {
	if !spec.IsGit() {
		path := l.manifest.ResolvePath(spec.Path)
		l.logger.Debug("loading prelude", "path", path)
		return ReadSource(path)
	}
	if l.fetcher == nil {
		return Source{}, fmt.Errorf("prelude %s: git fetcher unavailable", spec.Describe())
	}

	if locked, ok := l.lock.Find(spec); ok {
		path, err := l.fetcher.Checkout(ctx, locked)
		if err != nil {
			return Source{}, fmt.Errorf("prelude %s: %w", spec.Describe(), err)
		}
		src, err := ReadSource(path)
		if err != nil {
			return Source{}, err
		}
		src.Name = spec.Describe()
		return src, nil
	}

	l.logger.Warn("prelude not in lockfile, resolving live; run `wistful fetch` to pin it",
		"prelude", spec.Describe(), "lockfile", filepath.Base(l.manifest.LockfilePath()))
	locked, err := l.fetcher.Fetch(ctx, spec)
	if err != nil {
		return Source{}, err
	}
	src, err := ReadSource(l.fetcher.SourcePath(locked))
	if err != nil {
		return Source{}, err
	}
	src.Name = spec.Describe()
	return src, nil
}

// FetchAll resolves every git prelude of manifest into lock, replacing stale
// entries. It returns the number of preludes fetched.
func FetchAll(ctx context.Context, manifest *Manifest, lock *Lockfile, fetcher *GitFetcher) (int, error) {
	count := 0
	for _, spec := range manifest.GitPreludes() {
		src, err := fetcher.Fetch(ctx, spec)
		if err != nil {
			return count, err
		}
		lock.Put(src)
		count++
	}
	return count, nil
}
