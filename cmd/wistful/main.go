package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/mjkstrm/wistful/pkg/driver"
	"github.com/mjkstrm/wistful/pkg/runtime"
)

const cliToolVersion = "wistful 0.1.0-dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "--help", "-h", "help":
		printUsage(os.Stdout)
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return 0
	case "run":
		return runEntry(args[1:])
	case "repl":
		return runRepl(args[1:])
	case "watch":
		return runWatch(args[1:])
	case "fetch":
		return runFetch(args[1:])
	default:
		return runEntry(args)
	}
}

// runOptions holds the flags shared by run, watch and repl. Flags that were
// set explicitly win over manifest values.
type runOptions struct {
	continueOnError bool
	maxDepth        int
	logLevel        string
	logJSON         bool
	quiet           bool

	set map[string]bool
}

func parseRunFlags(name string, args []string) (*runOptions, []string, error) {
	opts := &runOptions{set: map[string]bool{}}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.BoolVar(&opts.continueOnError, "continue", false, "keep running after a failing statement")
	fs.IntVar(&opts.maxDepth, "max-depth", 0, "maximum expression and block nesting (0 = unbounded)")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	fs.BoolVar(&opts.logJSON, "log-json", false, "emit logs as JSON")
	fs.BoolVar(&opts.quiet, "q", false, "do not print statement results")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, fs.Args(), nil
}

// merge fills every flag that was not set explicitly from the manifest.
func (o *runOptions) merge(m *driver.Manifest) {
	if m == nil {
		return
	}
	if !o.set["continue"] {
		o.continueOnError = m.OnError == driver.OnErrorContinue
	}
	if !o.set["max-depth"] {
		o.maxDepth = m.MaxDepth
	}
	if !o.set["log-level"] {
		o.logLevel = m.Log.Level
	}
	if !o.set["log-json"] {
		o.logJSON = m.Log.Format == "json"
	}
}

func (o *runOptions) policy() driver.ErrorPolicy {
	if o.continueOnError {
		return driver.OnErrorContinue
	}
	return driver.OnErrorStop
}

func (o *runOptions) newRunner(logger *slog.Logger) *driver.Runner {
	return driver.NewRunner(
		driver.WithPolicy(o.policy()),
		driver.WithMaxDepth(o.maxDepth),
		driver.WithLogger(logger),
	)
}

func runEntry(args []string) int {
	opts, rest, err := parseRunFlags("run", args)
	if err != nil {
		return 2
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if len(rest) == 0 {
		manifest, err := loadManifestFrom(".")
		if err != nil {
			if errors.Is(err, driver.ErrManifestNotFound) {
				fmt.Fprintln(os.Stderr, "wistful run requires a source file (wistful.yml not found)")
				return 2
			}
			fmt.Fprintf(os.Stderr, "failed to load manifest: %v\n", err)
			return 1
		}
		opts.merge(manifest)
		return executeProject(ctx, manifest, opts)
	}

	if len(rest) > 1 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %s\n", strings.Join(rest[1:], " "))
		return 2
	}

	entry := rest[0]
	manifest, err := loadManifestFrom(entry)
	if err != nil && !errors.Is(err, driver.ErrManifestNotFound) {
		fmt.Fprintf(os.Stderr, "failed to read manifest for %s: %v\n", entry, err)
		return 1
	}
	opts.merge(manifest)
	return executeFile(ctx, entry, manifest, opts)
}

// executeFile runs entry after the preludes of the manifest next to it, if any.
func executeFile(ctx context.Context, entry string, manifest *driver.Manifest, opts *runOptions) int {
	logger, err := newLogger(opts.logLevel, opts.logJSON, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	runner := opts.newRunner(logger)

	var sources []driver.Source
	if manifest != nil {
		loader, err := newLoader(manifest, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		prelude, err := loader.Prelude(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load prelude: %v\n", err)
			return 1
		}
		sources = prelude
	}
	src, err := driver.ReadSource(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load program: %v\n", err)
		return 1
	}
	sources = append(sources, src)

	for i, src := range sources {
		res, err := runner.RunSource(src)
		if i == len(sources)-1 && !opts.quiet {
			printResults(os.Stdout, res)
		}
		if err != nil {
			reportRun(os.Stderr, res, err)
			return 1
		}
	}
	return 0
}

func executeProject(ctx context.Context, manifest *driver.Manifest, opts *runOptions) int {
	logger, err := newLogger(opts.logLevel, opts.logJSON, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	loader, err := newLoader(manifest, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	results, err := opts.newRunner(logger).RunProject(ctx, loader)
	if len(results) == len(manifest.Prelude)+1 && !opts.quiet {
		printResults(os.Stdout, results[len(results)-1])
	}
	if err != nil {
		var last *driver.Result
		if len(results) > 0 {
			last = results[len(results)-1]
		}
		reportRun(os.Stderr, last, err)
		return 1
	}
	return 0
}

func runFetch(args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return 2
	}
	logger, err := newLogger(*logLevel, false, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	manifest, err := loadManifestFrom(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load manifest: %v\n", err)
		return 1
	}
	if len(manifest.GitPreludes()) == 0 {
		fmt.Fprintln(os.Stdout, "no git preludes to fetch")
		return 0
	}

	home, err := driver.ResolveHome()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	lock, err := loadLockfileForManifest(manifest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if lock == nil {
		lock = driver.NewLockfile(manifest.Name, cliToolVersion)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	count, err := driver.FetchAll(ctx, manifest, lock, driver.NewGitFetcher(home, logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch failed: %v\n", err)
		return 1
	}
	if err := driver.WriteLockfile(lock, manifest.LockfilePath()); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stdout, "fetched %d git prelude(s) into %s\n", count, manifest.LockfilePath())
	return 0
}

func loadManifestFrom(start string) (*driver.Manifest, error) {
	path, err := driver.FindManifest(start)
	if err != nil {
		return nil, err
	}
	return driver.LoadManifest(path)
}

func newLoader(manifest *driver.Manifest, logger *slog.Logger) (*driver.Loader, error) {
	lock, err := loadLockfileForManifest(manifest)
	if err != nil {
		return nil, err
	}
	var fetcher *driver.GitFetcher
	if len(manifest.GitPreludes()) > 0 {
		home, err := driver.ResolveHome()
		if err != nil {
			return nil, err
		}
		fetcher = driver.NewGitFetcher(home, logger)
	}
	return driver.NewLoader(manifest, lock, fetcher, logger), nil
}

func loadLockfileForManifest(manifest *driver.Manifest) (*driver.Lockfile, error) {
	lock, err := driver.LoadLockfile(manifest.LockfilePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read lockfile %s: %w", manifest.LockfilePath(), err)
	}
	if lock.Project != manifest.Name {
		return nil, fmt.Errorf("lockfile project %q does not match manifest name %q", lock.Project, manifest.Name)
	}
	return lock, nil
}

func printResults(w io.Writer, res *driver.Result) {
	if res == nil {
		return
	}
	for _, st := range res.Statements {
		if st.Err != nil || st.Value == nil {
			continue
		}
		if _, empty := st.Value.(runtime.EmptyValue); empty {
			continue
		}
		fmt.Fprintln(w, runtime.Format(st.Value))
	}
}

// reportRun prints each failing statement when the run continued past
// failures, or the single error that stopped it.
func reportRun(w io.Writer, res *driver.Result, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, driver.ErrStatementsFailed) && res != nil {
		for _, st := range res.Statements {
			if st.Err != nil {
				fmt.Fprintf(w, "%s: %v\n", res.Source, st.Err)
			}
		}
	}
	fmt.Fprintf(w, "%v\n", err)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  wistful [run] [flags] <file>")
	fmt.Fprintln(w, "  wistful run [flags]            run main from wistful.yml")
	fmt.Fprintln(w, "  wistful repl [flags]")
	fmt.Fprintln(w, "  wistful watch [flags] <file>")
	fmt.Fprintln(w, "  wistful fetch                  pin git preludes into wistful.lock")
	fmt.Fprintln(w, "  wistful --version")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -continue         keep running after a failing statement")
	fmt.Fprintln(w, "  -max-depth N      maximum nesting depth (0 = unbounded)")
	fmt.Fprintln(w, "  -log-level LEVEL  debug, info, warn, error")
	fmt.Fprintln(w, "  -log-json         emit logs as JSON")
	fmt.Fprintln(w, "  -q                do not print statement results")
}
