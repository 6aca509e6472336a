package driver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// HomeEnv overrides the cache root used for fetched preludes.
const HomeEnv = "WISTFUL_HOME"

// ErrChecksumMismatch is returned when a cached prelude no longer matches its lock entry.
var ErrChecksumMismatch = errors.New("prelude checksum mismatch")

// ResolveHome returns $WISTFUL_HOME, falling back to ~/.wistful.
func ResolveHome() (string, error) {
	if home := strings.TrimSpace(os.Getenv(HomeEnv)); home != "" {
		return filepath.Abs(home)
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home: %w", err)
	}
	return filepath.Join(userHome, ".wistful"), nil
}

// GitFetcher clones prelude repositories into a per-commit checkout cache.
type GitFetcher struct {
	cacheDir string
	logger   *slog.Logger
}

// NewGitFetcher caches checkouts under home/git.
func NewGitFetcher(home string, logger *slog.Logger) *GitFetcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &GitFetcher{cacheDir: filepath.Join(home, "git"), logger: logger}
}

// Fetch resolves spec's rev, tag or branch to a commit, makes sure that commit
// is checked out in the cache and returns the lock entry describing it.
func (g *GitFetcher) Fetch(ctx context.Context, spec *PreludeSpec) (*LockedSource, error) {
	if !spec.IsGit() {
		return nil, fmt.Errorf("prelude %s: git URL required", spec.Describe())
	}
	revisions, err := gitRevisionsFromSpec(spec)
	if err != nil {
		return nil, fmt.Errorf("prelude %s: %w", spec.Describe(), err)
	}

	baseDir := g.repoDir(spec.Git)
	commit, err := g.ensureCheckout(ctx, baseDir, spec.Git, func(repo *git.Repository) (plumbing.Hash, error) {
		var lastErr error
		for _, rev := range revisions {
			hash, err := repo.ResolveRevision(rev)
			if err == nil {
				return *hash, nil
			}
			lastErr = err
		}
		return plumbing.ZeroHash, fmt.Errorf("resolve revision %s: %w", refDescriptor(spec), lastErr)
	})
	if err != nil {
		return nil, err
	}

	src := &LockedSource{
		Git:    spec.Git,
		Ref:    refDescriptor(spec),
		Commit: commit,
		File:   spec.File,
	}
	src.Checksum, err = fileChecksum(g.SourcePath(src))
	if err != nil {
		return nil, fmt.Errorf("prelude %s: %w", spec.Describe(), err)
	}
	g.logger.Info("fetched prelude", "git", src.Git, "ref", src.Ref, "commit", src.Commit, "file", src.File)
	return src, nil
}

// Checkout makes sure the locked commit is present in the cache and still
// matches the recorded checksum. It returns the path of the prelude file.
func (g *GitFetcher) Checkout(ctx context.Context, src *LockedSource) (string, error) {
	if src == nil || src.Commit == "" {
		return "", fmt.Errorf("locked prelude: missing commit")
	}
	baseDir := g.repoDir(src.Git)
	if _, err := os.Stat(filepath.Join(baseDir, src.Commit)); err != nil {
		want := plumbing.NewHash(src.Commit)
		if _, err := g.ensureCheckout(ctx, baseDir, src.Git, func(*git.Repository) (plumbing.Hash, error) {
			return want, nil
		}); err != nil {
			return "", err
		}
	}
	path := g.SourcePath(src)
	if src.Checksum != "" {
		sum, err := fileChecksum(path)
		if err != nil {
			return "", err
		}
		if sum != src.Checksum {
			return "", fmt.Errorf("%s: %w", path, ErrChecksumMismatch)
		}
	}
	return path, nil
}

// SourcePath returns where the locked prelude file lives in the cache.
func (g *GitFetcher) SourcePath(src *LockedSource) string {
	return filepath.Join(g.repoDir(src.Git), src.Commit, filepath.FromSlash(src.File))
}

func (g *GitFetcher) repoDir(url string) string {
	return filepath.Join(g.cacheDir, sanitizePathSegment(url))
}

type resolveFunc func(*git.Repository) (plumbing.Hash, error)

// ensureCheckout clones url into a scratch directory, checks out the commit
// chosen by resolve and moves it to baseDir/<commit>. An existing checkout of
// the same commit is reused.
func (g *GitFetcher) ensureCheckout(ctx context.Context, baseDir, url string, resolve resolveFunc) (string, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", err
	}
	tmpDir, err := os.MkdirTemp(baseDir, "git-fetch-*")
	if err != nil {
		return "", err
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	g.logger.Debug("cloning prelude repository", "git", url)
	repo, err := git.PlainCloneContext(ctx, tmpDir, false, &git.CloneOptions{
		URL:               url,
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
	})
	if err != nil {
		return "", fmt.Errorf("git clone %s: %w", url, err)
	}

	hash, err := resolve(repo)
	if err != nil {
		return "", err
	}
	targetDir := filepath.Join(baseDir, hash.String())
	if _, err := os.Stat(targetDir); err == nil {
		return hash.String(), nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{
		Hash:  hash,
		Force: true,
	}); err != nil {
		return "", fmt.Errorf("git checkout %s: %w", hash, err)
	}
	if err := os.Rename(tmpDir, targetDir); err != nil {
		return "", err
	}
	return hash.String(), nil
}

// gitRevisionsFromSpec lists the revisions to try in order. Branches fall back
// to the remote-tracking ref since a fresh clone only has the default branch locally.
func gitRevisionsFromSpec(spec *PreludeSpec) ([]plumbing.Revision, error) {
	if rev := strings.TrimSpace(spec.Rev); rev != "" {
		return []plumbing.Revision{plumbing.Revision(rev)}, nil
	}
	if tag := strings.TrimSpace(spec.Tag); tag != "" {
		return []plumbing.Revision{plumbing.Revision("refs/tags/" + tag)}, nil
	}
	if branch := strings.TrimSpace(spec.Branch); branch != "" {
		return []plumbing.Revision{
			plumbing.Revision("refs/heads/" + branch),
			plumbing.Revision("refs/remotes/origin/" + branch),
		}, nil
	}
	return nil, fmt.Errorf("git preludes require rev, tag, or branch")
}

func refDescriptor(spec *PreludeSpec) string {
	switch {
	case spec.Rev != "":
		return "rev:" + spec.Rev
	case spec.Tag != "":
		return "tag:" + spec.Tag
	case spec.Branch != "":
		return "branch:" + spec.Branch
	default:
		return ""
	}
}

func fileChecksum(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func sanitizePathSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "head"
	}
	var b strings.Builder
	for _, r := range segment {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
