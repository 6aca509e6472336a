package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/mjkstrm/wistful/pkg/driver"
	"github.com/mjkstrm/wistful/pkg/parser"
	"github.com/mjkstrm/wistful/pkg/runtime"
)

const (
	replBanner  = "wistful REPL. :vars lists bindings, :quit exits."
	promptMain  = "wistful> "
	promptCont  = "    ...> "
	historyFile = "history"
)

func runRepl(args []string) int {
	opts, rest, err := parseRunFlags("repl", args)
	if err != nil {
		return 2
	}
	if len(rest) > 0 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %s\n", strings.Join(rest, " "))
		return 2
	}
	logger, err := newLogger(opts.logLevel, opts.logJSON, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	opts.continueOnError = true
	session := &replSession{
		runner:   opts.newRunner(logger),
		maxDepth: opts.maxDepth,
		out:      os.Stdout,
		errOut:   os.Stderr,
	}

	fmt.Fprintln(os.Stdout, replBanner)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if home, err := driver.ResolveHome(); err == nil {
		histPath := filepath.Join(home, historyFile)
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if err := os.MkdirAll(home, 0o755); err != nil {
				return
			}
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	for {
		code, ok := readByParseProbe(ln, session.maxDepth)
		if !ok {
			fmt.Fprintln(os.Stdout)
			return 0
		}
		if strings.TrimSpace(code) != "" {
			ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		}
		if session.handle(code) {
			return 0
		}
	}
}

// readByParseProbe keeps prompting while the accumulated input parses as
// incomplete, so blocks can span lines.
func readByParseProbe(ln *liner.State, maxDepth int) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if _, perr := parser.ParseSource(src, parser.WithMaxDepth(maxDepth)); parser.IsIncomplete(perr) {
			continue
		}
		return src, true
	}
}

// replSession evaluates chunks on one runner so bindings persist between inputs.
type replSession struct {
	runner   *driver.Runner
	maxDepth int
	out      io.Writer
	errOut   io.Writer
	chunks   int
}

// handle runs one chunk of input and reports whether the session should end.
func (s *replSession) handle(code string) bool {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, ":") {
		switch strings.ToLower(trimmed) {
		case ":quit", ":q":
			return true
		case ":vars":
			s.printVars()
		default:
			fmt.Fprintln(s.out, "unknown command. Type :vars or :quit.")
		}
		return false
	}

	s.chunks++
	res, err := s.runner.RunSource(driver.Source{Name: fmt.Sprintf("<repl:%d>", s.chunks), Text: code})
	printResults(s.out, res)
	reportRun(s.errOut, res, err)
	return false
}

func (s *replSession) printVars() {
	env := s.runner.Interpreter().Environment()
	bindings := env.Snapshot()
	for _, name := range env.Keys() {
		fmt.Fprintf(s.out, "%s = %s\n", name, runtime.Format(bindings[name]))
	}
}
