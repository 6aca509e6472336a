package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func initGitRepo(t *testing.T, dir string, files map[string]string) (*git.Repository, string) {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	hash := commitFiles(t, repo, dir, files, "init")
	return repo, hash
}

func commitFiles(t *testing.T, repo *git.Repository, dir string, files map[string]string, message string) string {
	t.Helper()
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	for name, contents := range files {
		writeFile(t, filepath.Join(dir, name), contents)
		if _, err := worktree.Add(name); err != nil {
			t.Fatalf("Add %s: %v", name, err)
		}
	}
	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Wistful CLI",
			Email: "wistful@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return hash.String()
}

func TestGitFetcherResolvesTagAndRev(t *testing.T) {
	repoDir := t.TempDir()
	repo, first := initGitRepo(t, repoDir, map[string]string{"defaults.wf": "limit = 10"})
	head, err := repo.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if _, err := repo.CreateTag("v1.0.0", head.Hash(), nil); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	second := commitFiles(t, repo, repoDir, map[string]string{"defaults.wf": "limit = 20"}, "bump")

	fetcher := NewGitFetcher(t.TempDir(), nil)
	ctx := context.Background()

	tagged, err := fetcher.Fetch(ctx, &PreludeSpec{Git: repoDir, Tag: "v1.0.0", File: "defaults.wf"})
	if err != nil {
		t.Fatalf("Fetch tag: %v", err)
	}
	if tagged.Commit != first || tagged.Ref != "tag:v1.0.0" || tagged.Checksum == "" {
		t.Fatalf("unexpected tag lock entry %#v", tagged)
	}
	assertFileContents(t, fetcher.SourcePath(tagged), "limit = 10\n")

	pinned, err := fetcher.Fetch(ctx, &PreludeSpec{Git: repoDir, Rev: second, File: "defaults.wf"})
	if err != nil {
		t.Fatalf("Fetch rev: %v", err)
	}
	if pinned.Commit != second {
		t.Fatalf("rev resolved to %s, want %s", pinned.Commit, second)
	}
	assertFileContents(t, fetcher.SourcePath(pinned), "limit = 20\n")
}

func TestGitFetcherCheckoutVerifiesChecksum(t *testing.T) {
	repoDir := t.TempDir()
	initGitRepo(t, repoDir, map[string]string{"lib/setup.wf": "ready = true"})

	fetcher := NewGitFetcher(t.TempDir(), nil)
	ctx := context.Background()
	locked, err := fetcher.Fetch(ctx, &PreludeSpec{Git: repoDir, Branch: "master", File: "lib/setup.wf"})
	if err != nil {
		t.Fatalf("Fetch branch: %v", err)
	}

	path, err := fetcher.Checkout(ctx, locked)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	assertFileContents(t, path, "ready = true\n")

	if err := os.WriteFile(path, []byte("ready = false\n"), 0o644); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	if _, err := fetcher.Checkout(ctx, locked); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected checksum mismatch, got %v", err)
	}
}

func TestGitFetcherUnknownRevision(t *testing.T) {
	repoDir := t.TempDir()
	initGitRepo(t, repoDir, map[string]string{"a.wf": "x = 1"})
	fetcher := NewGitFetcher(t.TempDir(), nil)
	_, err := fetcher.Fetch(context.Background(), &PreludeSpec{Git: repoDir, Tag: "missing", File: "a.wf"})
	if err == nil {
		t.Fatalf("expected unknown tag to fail")
	}
}

func TestResolveHomeHonoursEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)
	home, err := ResolveHome()
	if err != nil {
		t.Fatalf("ResolveHome: %v", err)
	}
	if home != dir {
		t.Fatalf("ResolveHome = %q, want %q", home, dir)
	}
}

func assertFileContents(t *testing.T, path, want string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if string(data) != want {
		t.Fatalf("%s = %q, want %q", path, data, want)
	}
}
