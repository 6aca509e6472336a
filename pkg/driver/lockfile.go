package driver

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LockfileName is written next to the manifest by `wistful fetch`.
const LockfileName = "wistful.lock"

// Lockfile models the wistful.lock contents.
type Lockfile struct {
	Path      string
	Project   string
	Generated string
	Tool      string
	Sources   []*LockedSource
}

// LockedSource pins one git prelude to the commit it resolved to.
type LockedSource struct {
	Git      string
	Ref      string
	Commit   string
	File     string
	Checksum string
}

// NewLockfile constructs a lockfile with metadata seeded for the provided project.
func NewLockfile(project, tool string) *Lockfile {
	return &Lockfile{
		Project:   strings.TrimSpace(project),
		Generated: time.Now().UTC().Format(time.RFC3339),
		Tool:      strings.TrimSpace(tool),
		Sources:   []*LockedSource{},
	}
}

// Find returns the entry recorded for spec, if any.
func (l *Lockfile) Find(spec *PreludeSpec) (*LockedSource, bool) {
	if l == nil || !spec.IsGit() {
		return nil, false
	}
	ref := refDescriptor(spec)
	for _, src := range l.Sources {
		if src != nil && src.Git == spec.Git && src.Ref == ref && src.File == spec.File {
			return src, true
		}
	}
	return nil, false
}

// Put records src, replacing an entry for the same repository, ref and file.
func (l *Lockfile) Put(src *LockedSource) {
	for i, existing := range l.Sources {
		if existing != nil && existing.Git == src.Git && existing.Ref == src.Ref && existing.File == src.File {
			l.Sources[i] = src
			return
		}
	}
	l.Sources = append(l.Sources, src)
}

// LoadLockfile parses wistful.lock from disk.
func LoadLockfile(path string) (*Lockfile, error) {
	if path == "" {
		return nil, fmt.Errorf("lockfile: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var raw lockfileDisk
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("lockfile: parse %s: %w", abs, err)
	}

	lock := raw.toLockfile()
	lock.Path = abs
	return lock, nil
}

// WriteLockfile serialises the lockfile back to disk, refreshing metadata.
func WriteLockfile(lock *Lockfile, path string) error {
	if lock == nil {
		return fmt.Errorf("lockfile: nil lockfile")
	}
	if path == "" {
		if lock.Path == "" {
			return fmt.Errorf("lockfile: missing path")
		}
		path = lock.Path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}

	if lock.Generated == "" {
		lock.Generated = time.Now().UTC().Format(time.RFC3339)
	}
	lock.Path = abs
	lock.normalize()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(lock.toDisk()); err != nil {
		return fmt.Errorf("lockfile: marshal %s: %w", abs, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("lockfile: encoder close: %w", err)
	}
	if err := os.WriteFile(abs, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("lockfile: write %s: %w", abs, err)
	}
	return nil
}

func (l *Lockfile) normalize() {
	kept := l.Sources[:0]
	for _, src := range l.Sources {
		if src == nil {
			continue
		}
		src.Git = strings.TrimSpace(src.Git)
		src.Ref = strings.TrimSpace(src.Ref)
		src.Commit = strings.TrimSpace(src.Commit)
		src.File = strings.TrimSpace(src.File)
		src.Checksum = strings.TrimSpace(src.Checksum)
		kept = append(kept, src)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Git != kept[j].Git {
			return kept[i].Git < kept[j].Git
		}
		if kept[i].Ref != kept[j].Ref {
			return kept[i].Ref < kept[j].Ref
		}
		return kept[i].File < kept[j].File
	})
	l.Sources = kept
}

type lockfileDisk struct {
	Project   string           `yaml:"project"`
	Generated string           `yaml:"generated"`
	Tool      string           `yaml:"tool"`
	Sources   []lockfileSource `yaml:"sources"`
}

type lockfileSource struct {
	Git      string `yaml:"git"`
	Ref      string `yaml:"ref"`
	Commit   string `yaml:"commit"`
	File     string `yaml:"file"`
	Checksum string `yaml:"checksum"`
}

func (l *Lockfile) toDisk() lockfileDisk {
	sources := make([]lockfileSource, 0, len(l.Sources))
	for _, src := range l.Sources {
		sources = append(sources, lockfileSource(*src))
	}
	return lockfileDisk{
		Project:   l.Project,
		Generated: l.Generated,
		Tool:      l.Tool,
		Sources:   sources,
	}
}

func (d lockfileDisk) toLockfile() *Lockfile {
	lock := &Lockfile{
		Project:   strings.TrimSpace(d.Project),
		Generated: strings.TrimSpace(d.Generated),
		Tool:      strings.TrimSpace(d.Tool),
		Sources:   make([]*LockedSource, 0, len(d.Sources)),
	}
	for _, src := range d.Sources {
		s := LockedSource(src)
		lock.Sources = append(lock.Sources, &s)
	}
	lock.normalize()
	return lock
}
