// Package runner expands a resolved set of files and delivers the results:
// to stdout, back in place, into an output tree, or as a diff in check mode.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/olehluchkiv/functrait/internal/expand"
	"github.com/olehluchkiv/functrait/internal/resolver"
)

// Expander is the part of expand.Expander the runner needs.
type Expander interface {
	Expand(ctx context.Context, name string, src []byte) (*expand.Result, error)
}

// Options selects where results go. Write, Check and Output are mutually
// exclusive; with none set, expanded files are printed to Stdout.
type Options struct {
	Write  bool
	Check  bool
	Output string
	Jobs   int
	Stdout io.Writer
}

// Summary counts what a run did.
type Summary struct {
	Files       int
	Traits      int
	Failed      int
	Modified    []string
	Diagnostics []Diagnostic
}

// Diagnostic is a trait that could not be expanded. Path is relative to
// the crate root.
type Diagnostic struct {
	Path  string
	Trait string
	Line  int
	Error string
}

type fileResult struct {
	path string
	src  []byte
	res  *expand.Result
}

// Run expands every file in in. Files are processed concurrently and
// delivered in the order of in.Files.
func Run(ctx context.Context, exp Expander, in *resolver.Input, opts Options, logger *slog.Logger) (*Summary, error) {
	logger = logger.With("component", "runner")
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.NumCPU()
	}

	results := make([]fileResult, len(in.Files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Jobs)
	for i, path := range in.Files {
		g.Go(func() error {
			src, err := os.ReadFile(path)
			if err != nil {
				return errors.Wrapf(err, "reading %s", path)
			}
			res, err := exp.Expand(gctx, path, src)
			if err != nil {
				return err
			}
			results[i] = fileResult{path: path, src: src, res: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sum := &Summary{Files: len(results)}
	for _, fr := range results {
		sum.Traits += len(fr.res.Reports)
		for _, rep := range fr.res.Reports {
			if rep.Error != "" {
				sum.Failed++
				sum.Diagnostics = append(sum.Diagnostics, Diagnostic{
					Path:  relPath(in.Root, fr.path),
					Trait: rep.Trait,
					Line:  rep.Line,
					Error: rep.Error,
				})
				logger.Warn("trait not expanded", "file", fr.path, "trait", rep.Trait, "line", rep.Line, "error", rep.Error)
			}
		}
		if fr.res.Changed() {
			sum.Modified = append(sum.Modified, fr.path)
		}
	}

	var err error
	switch {
	case opts.Check:
		err = check(results, in.Root, opts.Stdout)
	case opts.Write:
		err = writeInPlace(results, logger)
	case opts.Output != "":
		err = writeOutput(results, in, opts.Output, logger)
	default:
		err = printResults(results, in.Root, opts.Stdout)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("run complete",
		"files", sum.Files,
		"traits", sum.Traits,
		"failed", sum.Failed,
		"modified", len(sum.Modified))
	return sum, nil
}

func (o Options) validate() error {
	n := 0
	for _, set := range []bool{o.Write, o.Check, o.Output != ""} {
		if set {
			n++
		}
	}
	if n > 1 {
		return errors.WithHint(
			errors.New("conflicting output modes"),
			"use at most one of -write, -check and -output")
	}
	return nil
}

func check(results []fileResult, root string, w io.Writer) error {
	for _, fr := range results {
		if !fr.res.Changed() {
			continue
		}
		if _, err := io.WriteString(w, Diff(relPath(root, fr.path), fr.src, fr.res.Output)); err != nil {
			return errors.Wrap(err, "writing diff")
		}
	}
	return nil
}

func writeInPlace(results []fileResult, logger *slog.Logger) error {
	for _, fr := range results {
		if !fr.res.Changed() {
			continue
		}
		if err := writeFile(fr.path, fr.res.Output); err != nil {
			return err
		}
		logger.Info("rewrote file", "file", fr.path)
	}
	return nil
}

// writeOutput writes to a single file when the run covers one source and
// output names a .rs file, and mirrors the tree under in.Root otherwise.
func writeOutput(results []fileResult, in *resolver.Input, output string, logger *slog.Logger) error {
	if len(results) == 1 && filepath.Ext(output) == ".rs" {
		if err := writeFile(output, results[0].res.Output); err != nil {
			return err
		}
		logger.Info("wrote output", "file", output)
		return nil
	}

	for _, fr := range results {
		dest := filepath.Join(output, relPath(in.Root, fr.path))
		if err := writeFile(dest, fr.res.Output); err != nil {
			return err
		}
		logger.Debug("wrote output", "file", dest)
	}
	logger.Info("wrote output tree", "dir", output, "files", len(results))
	return nil
}

func printResults(results []fileResult, root string, w io.Writer) error {
	for _, fr := range results {
		if len(results) > 1 {
			if !fr.res.Changed() {
				continue
			}
			if _, err := fmt.Fprintf(w, "// %s\n", relPath(root, fr.path)); err != nil {
				return errors.Wrap(err, "writing output")
			}
		}
		if _, err := w.Write(fr.res.Output); err != nil {
			return errors.Wrap(err, "writing output")
		}
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", path)
	}
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(path)
	}
	return rel
}
