package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestFileName is the project manifest looked up by FindManifest.
const ManifestFileName = "wistful.yml"

// ErrManifestNotFound is returned when no manifest exists in any parent directory.
var ErrManifestNotFound = errors.New("manifest: wistful.yml not found")

// ErrorPolicy decides what a run does after a failing statement.
type ErrorPolicy string

const (
	OnErrorStop     ErrorPolicy = "stop"
	OnErrorContinue ErrorPolicy = "continue"
)

// IsValid reports whether the policy is recognised.
func (p ErrorPolicy) IsValid() bool {
	switch p {
	case OnErrorStop, OnErrorContinue:
		return true
	default:
		return false
	}
}

// Manifest represents the parsed contents of wistful.yml.
type Manifest struct {
	Path     string
	Dir      string
	Name     string
	Main     string
	OnError  ErrorPolicy
	MaxDepth int
	Log      LogConfig
	Prelude  []*PreludeSpec
}

// LogConfig selects the logger built by the CLI.
type LogConfig struct {
	Level  string
	Format string
}

// PreludeSpec names a script evaluated before main. Exactly one of Path and
// Git is set; git preludes pin a revision and name the file to run.
type PreludeSpec struct {
	Path   string
	Git    string
	Rev    string
	Tag    string
	Branch string
	File   string
}

// IsGit reports whether the prelude is fetched from a repository.
func (p *PreludeSpec) IsGit() bool {
	return p != nil && p.Git != ""
}

// Describe renders the prelude for logs and error messages.
func (p *PreludeSpec) Describe() string {
	if p == nil {
		return "<nil prelude>"
	}
	if !p.IsGit() {
		return p.Path
	}
	ref := p.Rev
	if ref == "" {
		ref = p.Tag
	}
	if ref == "" {
		ref = p.Branch
	}
	return fmt.Sprintf("%s@%s:%s", p.Git, ref, p.File)
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// LoadManifest parses wistful.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", absPath)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}

	manifest := raw.toManifest(absPath)
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

// FindManifest walks up from start until it finds wistful.yml.
func FindManifest(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("manifest: resolve %s: %w", start, err)
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, ManifestFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrManifestNotFound
		}
		dir = parent
	}
}

// ResolvePath interprets rel relative to the manifest directory.
func (m *Manifest) ResolvePath(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(m.Dir, rel)
}

// MainPath returns the absolute path of the entry script.
func (m *Manifest) MainPath() string {
	return m.ResolvePath(m.Main)
}

// LockfilePath returns where `wistful fetch` records resolved preludes.
func (m *Manifest) LockfilePath() string {
	return filepath.Join(m.Dir, LockfileName)
}

// GitPreludes returns the preludes that need fetching, in manifest order.
func (m *Manifest) GitPreludes() []*PreludeSpec {
	var out []*PreludeSpec
	for _, p := range m.Prelude {
		if p.IsGit() {
			out = append(out, p)
		}
	}
	return out
}

func (m *Manifest) validate() error {
	var errs ValidationError
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	if m.Main == "" {
		errs.Issues = append(errs.Issues, "main must be provided")
	}
	if !m.OnError.IsValid() {
		errs.Issues = append(errs.Issues, fmt.Sprintf("on_error must be stop or continue, got %q", m.OnError))
	}
	if m.MaxDepth < 0 {
		errs.Issues = append(errs.Issues, "max_depth must not be negative")
	}
	switch m.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs.Issues = append(errs.Issues, fmt.Sprintf("log.level %q is not one of debug, info, warn, error", m.Log.Level))
	}
	switch m.Log.Format {
	case "text", "json":
	default:
		errs.Issues = append(errs.Issues, fmt.Sprintf("log.format %q is not one of text, json", m.Log.Format))
	}
	for i, p := range m.Prelude {
		for _, issue := range p.validate() {
			errs.Issues = append(errs.Issues, fmt.Sprintf("prelude[%d]: %s", i, issue))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func (p *PreludeSpec) validate() []string {
	var errs []string
	if p == nil {
		return []string{"entry must not be empty"}
	}
	switch {
	case p.Path == "" && p.Git == "":
		errs = append(errs, "must specify path or git")
	case p.Path != "" && p.Git != "":
		errs = append(errs, "path and git are mutually exclusive")
	}
	refs := 0
	for _, ref := range []string{p.Rev, p.Tag, p.Branch} {
		if ref != "" {
			refs++
		}
	}
	if p.Path != "" && (refs > 0 || p.File != "") {
		errs = append(errs, "path preludes cannot specify rev, tag, branch or file")
	}
	if p.Git != "" {
		if refs == 0 {
			errs = append(errs, "git preludes require rev, tag, or branch")
		}
		if refs > 1 {
			errs = append(errs, "git preludes accept only one of rev, tag, branch")
		}
		if p.File == "" {
			errs = append(errs, "git preludes require file")
		}
	}
	return errs
}

type manifestFile struct {
	Name     string        `yaml:"name"`
	Main     string        `yaml:"main"`
	OnError  string        `yaml:"on_error"`
	MaxDepth int           `yaml:"max_depth"`
	Log      logYAML       `yaml:"log"`
	Prelude  []preludeYAML `yaml:"prelude"`
}

type logYAML struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type preludeYAML struct {
	Path   string `yaml:"path"`
	Git    string `yaml:"git"`
	Rev    string `yaml:"rev"`
	Tag    string `yaml:"tag"`
	Branch string `yaml:"branch"`
	File   string `yaml:"file"`
}

func (mf manifestFile) toManifest(path string) *Manifest {
	m := &Manifest{
		Path:     path,
		Dir:      filepath.Dir(path),
		Name:     strings.TrimSpace(mf.Name),
		Main:     strings.TrimSpace(mf.Main),
		OnError:  ErrorPolicy(strings.ToLower(strings.TrimSpace(mf.OnError))),
		MaxDepth: mf.MaxDepth,
		Log: LogConfig{
			Level:  strings.ToLower(strings.TrimSpace(mf.Log.Level)),
			Format: strings.ToLower(strings.TrimSpace(mf.Log.Format)),
		},
	}
	if m.OnError == "" {
		m.OnError = OnErrorStop
	}
	if m.Log.Level == "" {
		m.Log.Level = "info"
	}
	if m.Log.Format == "" {
		m.Log.Format = "text"
	}
	for _, p := range mf.Prelude {
		m.Prelude = append(m.Prelude, &PreludeSpec{
			Path:   strings.TrimSpace(p.Path),
			Git:    strings.TrimSpace(p.Git),
			Rev:    strings.TrimSpace(p.Rev),
			Tag:    strings.TrimSpace(p.Tag),
			Branch: strings.TrimSpace(p.Branch),
			File:   strings.TrimSpace(p.File),
		})
	}
	return m
}
