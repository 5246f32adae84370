package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"

	"github.com/olehluchkiv/functrait/internal/config"
	"github.com/olehluchkiv/functrait/internal/expand"
	"github.com/olehluchkiv/functrait/internal/logging"
	"github.com/olehluchkiv/functrait/internal/resolver"
	"github.com/olehluchkiv/functrait/internal/runner"
	"github.com/olehluchkiv/functrait/internal/server"
	"github.com/olehluchkiv/functrait/internal/watch"
)

func main() {
	// Use a custom FlagSet so we can parse all args regardless of position.
	// Go's default flag.Parse stops at the first non-flag argument, which
	// breaks "functrait ./src -check". We reorder args so flags come first,
	// then positional args.
	flags, positional := reorderArgs(os.Args[1:])

	fs := flag.NewFlagSet("functrait", flag.ExitOnError)
	configPath := fs.String("config", "", "config file (default: "+config.FileName+" in the crate root)")
	attribute := fs.String("attribute", "", "marker attribute name (overrides config)")
	capabilityPath := fs.String("capability-path", "", "path prefix for Fn, FnMut and FnOnce (overrides config)")
	output := fs.String("output", "", "write expanded sources to this file or directory")
	write := fs.Bool("write", false, "rewrite source files in place")
	check := fs.Bool("check", false, "print a diff of pending expansions without writing")
	watchFlag := fs.Bool("watch", false, "re-run whenever a source file changes")
	jobs := fs.Int("jobs", runtime.NumCPU(), "files expanded concurrently")
	serve := fs.Bool("serve", false, "start the HTTP playground")
	port := fs.Int("port", 8080, "HTTP server port")
	noBrowser := fs.Bool("no-browser", false, "skip auto-opening browser")
	logFile := fs.String("log-file", "", "log file path (overrides config)")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error (overrides config)")

	if err := fs.Parse(flags); err != nil {
		os.Exit(1)
	}
	positional = append(positional, fs.Args()...)

	input := ""
	if len(positional) > 0 {
		input = positional[0]
	}
	if input == "" && !*serve {
		fmt.Fprintln(os.Stderr, "Usage: functrait [flags] <file-dir-or-url>")
		fmt.Fprintln(os.Stderr, "       functrait -serve [flags]")
		fs.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath, input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	overrides := map[string]string{
		"attribute":       *attribute,
		"capability-path": *capabilityPath,
		"log-file":        *logFile,
		"log-level":       *logLevel,
	}
	fs.Visit(func(f *flag.Flag) {
		applyOverride(cfg, f.Name, overrides[f.Name])
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid settings: %v\n", err)
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level %q: %v\n", cfg.LogLevel, err)
		os.Exit(1)
	}

	logger, logCleanup, err := logging.Setup(cfg.LogFile, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logging: %v\n", err)
		os.Exit(1)
	}
	defer logCleanup()
	if cfg.Path != "" {
		logger.Info("loaded config", "path", cfg.Path)
	}

	// Setup signal handling with context cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	exp := expand.New(cfg.Attribute, cfg.GeneratorOptions(), logger)

	if *serve {
		fmt.Printf("Starting playground on http://localhost:%d\n", *port)
		if err := server.Serve(ctx, exp, *port, !*noBrowser, logger); err != nil {
			logger.Error("server error", "error", err)
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	in, err := resolver.Resolve(ctx, input, logger)
	if err != nil {
		logger.Error("failed to resolve input", "error", err)
		fmt.Fprintf(os.Stderr, "Error resolving input: %v\n", errorWithHints(err))
		os.Exit(1)
	}

	opts := runner.Options{Write: *write, Check: *check, Output: *output, Jobs: *jobs}
	if in.Remote && opts.Write {
		fmt.Fprintln(os.Stderr, "Error: -write is not allowed for remote inputs; use -output")
		os.Exit(1)
	}

	if *watchFlag {
		if in.Remote {
			fmt.Fprintln(os.Stderr, "Error: -watch needs a local input")
			os.Exit(1)
		}
		if err := watchAndRun(ctx, exp, input, opts, logger); err != nil {
			logger.Error("watch failed", "error", err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", errorWithHints(err))
			os.Exit(1)
		}
		return
	}

	sum, err := runner.Run(ctx, exp, in, opts, logger)
	if err != nil {
		logger.Error("run failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", errorWithHints(err))
		os.Exit(1)
	}
	code := report(os.Stderr, sum)
	logCleanup()
	os.Exit(code)
}

// watchAndRun runs once, then again after every settled change, resolving
// the input afresh each time so new files are picked up.
func watchAndRun(ctx context.Context, exp *expand.Expander, input string, opts runner.Options, logger *slog.Logger) error {
	once := func(ctx context.Context) error {
		in, err := resolver.Resolve(ctx, input, logger)
		if err != nil {
			return err
		}
		sum, err := runner.Run(ctx, exp, in, opts, logger)
		if err != nil {
			return err
		}
		report(os.Stderr, sum)
		return nil
	}
	if err := once(ctx); err != nil {
		return err
	}

	root := input
	if info, err := os.Stat(input); err == nil && !info.IsDir() {
		root = filepath.Dir(input)
	}
	if opts.Output != "" && within(root, opts.Output) {
		return errors.WithHint(
			errors.Newf("output %s is inside the watched tree %s", opts.Output, root),
			"choose an output location outside the sources")
	}
	w, err := watch.New(root, watch.DefaultDebounce, once, logger)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

func within(root, path string) bool {
	absRoot, err1 := filepath.Abs(root)
	absPath, err2 := filepath.Abs(path)
	if err1 != nil || err2 != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// report prints a one-line summary to stderr and returns the exit code:
// 1 when any trait produced a diagnostic.
// report prints one line per diagnostic and a summary to w, and returns
// the exit code for the run.
func report(w io.Writer, sum *runner.Summary) int {
	for _, d := range sum.Diagnostics {
		pterm.Fprintln(w, fmt.Sprintf("%s:%d: %s %s: %s",
			d.Path, d.Line, pterm.Red("error:"), pterm.Bold.Sprint(d.Trait), d.Error))
	}

	failed := pterm.Green("0 failed")
	if sum.Failed > 0 {
		failed = pterm.Red(fmt.Sprintf("%d failed", sum.Failed))
	}
	pterm.Fprintln(w, fmt.Sprintf("%d files, %d traits, %s, %d modified",
		sum.Files, sum.Traits, failed, len(sum.Modified)))
	if sum.Failed > 0 {
		return 1
	}
	return 0
}

// loadConfig reads the explicit config file, or looks for one in the crate
// root of a local input, falling back to defaults.
func loadConfig(path, input string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.Find(configDir(input))
}

// configDir picks where to look for the config file: the crate root of a
// local input, else the working directory.
func configDir(input string) string {
	dir := "."
	if input != "" && !strings.Contains(input, "://") {
		dir = input
		if info, err := os.Stat(input); err == nil && !info.IsDir() {
			dir = filepath.Dir(input)
		}
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	if root, err := resolver.FindCrateRoot(dir); err == nil {
		return root
	}
	return dir
}

func applyOverride(cfg *config.Config, name, value string) {
	switch name {
	case "attribute":
		cfg.Attribute = value
	case "capability-path":
		cfg.CapabilityPath = value
	case "log-file":
		cfg.LogFile = value
	case "log-level":
		cfg.LogLevel = value
	}
}

func errorWithHints(err error) string {
	msg := err.Error()
	for _, hint := range errors.GetAllHints(err) {
		msg += "\nhint: " + hint
	}
	return msg
}

// reorderArgs separates flags and positional arguments so flags can appear
// in any position (before or after the positional path argument).
// Flags that take a value (e.g., -output out/) consume the next arg.
func reorderArgs(args []string) (flags, positional []string) {
	// Set of flags that take a value argument
	valueFlagSet := map[string]bool{
		"-config": true, "-attribute": true, "-capability-path": true,
		"-output": true, "-jobs": true, "-port": true,
		"-log-file": true, "-log-level": true,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			flags = append(flags, arg)
			// Check if this flag takes a value (and it's not using = syntax)
			if !strings.Contains(arg, "=") && valueFlagSet[arg] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, arg)
		}
	}
	return flags, positional
}
