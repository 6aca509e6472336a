package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mjkstrm/wistful/pkg/driver"
)

const watchDebounce = 100 * time.Millisecond

func runWatch(args []string) int {
	opts, rest, err := parseRunFlags("watch", args)
	if err != nil {
		return 2
	}
	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, "wistful watch requires exactly one source file")
		return 2
	}
	entry, err := filepath.Abs(rest[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	manifest, err := loadManifestFrom(entry)
	if err != nil && !errors.Is(err, driver.ErrManifestNotFound) {
		fmt.Fprintf(os.Stderr, "failed to read manifest for %s: %v\n", rest[0], err)
		return 1
	}
	opts.merge(manifest)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start watcher: %v\n", err)
		return 1
	}
	defer watcher.Close()
	// Editors often replace files on save, so watch the directory.
	if err := watcher.Add(filepath.Dir(entry)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to watch %s: %v\n", filepath.Dir(entry), err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rerun := func() {
		fmt.Fprintf(os.Stderr, "--- running %s\n", rest[0])
		executeFile(ctx, entry, manifest, opts)
	}
	rerun()
	if err := watchLoop(ctx, watcher, entry, watchDebounce, rerun); err != nil {
		fmt.Fprintf(os.Stderr, "watch failed: %v\n", err)
		return 1
	}
	return 0
}

// watchLoop calls rerun once per burst of changes to target until ctx ends.
func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, target string, debounce time.Duration, rerun func()) error {
	target = filepath.Clean(target)
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		case <-timer.C:
			rerun()
		}
	}
}
