package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"updatedirdates/internal/config"
	"updatedirdates/internal/logging"
	"updatedirdates/internal/progress"
	"updatedirdates/internal/reconcile"
	"updatedirdates/internal/render"
	"updatedirdates/internal/report"
)

// version is the application version, set via ldflags.
var version = "dev"

const (
	exitFailure     = 1
	exitInterrupted = 130
)

var (
	execute     bool
	verbosity   int
	configPath  string
	excludes    []string
	writeReport bool
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "updatedirdates [flags] DIRECTORY...",
	Short: "Update directory modification dates to reflect latest files",
	Long: `Update directory modification dates to reflect the latest files they contain.

Directories are evaluated bottom-up. A directory whose date trails its newest
content by more than one second is reported, and updated when --execute is set.

Examples:
  updatedirdates /path/to/directory        # Dry run on directory
  updatedirdates -x /path/to/directory     # Actually update dates
  updatedirdates -v 2 -x /path/to/dir      # Verbose output with updates
  updatedirdates -v 0 -x /path/to/dir      # Quiet mode with updates`,
	Version:       version,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if verbosity < 0 || verbosity > 2 {
			return fmt.Errorf("invalid verbosity %d (choose from 0, 1, 2)", verbosity)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		stdout := colorable.NewColorableStdout()
		opts := runOptions{
			out:   stdout,
			color: isTerminal(os.Stdout) && os.Getenv("NO_COLOR") == "",
		}
		// The live counter only replaces per-directory lines, so it is
		// shown in quiet mode only.
		if verbosity == 0 && isTerminal(os.Stderr) {
			opts.progress = progress.New(colorable.NewColorableStderr())
		}
		return run(cmd.Context(), args, opts)
	},
}

func init() {
	rootCmd.Flags().BoolVarP(&execute, "execute", "x", false, "Actually update directory dates (default: dry run only)")
	rootCmd.Flags().IntVarP(&verbosity, "verbosity", "v", 0, "Verbosity level: 0=quiet, 1=first level dirs, 2=all dirs")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file path")
	rootCmd.Flags().StringSliceVarP(&excludes, "exclude", "e", nil, "Additional patterns to exclude (comma-separated)")
	rootCmd.Flags().BoolVar(&writeReport, "report", false, "Write a JSON report of the run to the report directory")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Diagnostic log level: trace, debug, info, warn, error, off")
}

type runOptions struct {
	out      io.Writer
	color    bool
	progress *progress.Counter
}

// exitError carries a process exit code once the failure has been reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func run(ctx context.Context, args []string, opts runOptions) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Exclude = append(cfg.Exclude, excludes...)
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logger := logging.New("updatedirdates", level)

	roots := make([]string, 0, len(args))
	for _, arg := range args {
		// Convert to absolute path
		abs, err := filepath.Abs(arg)
		if err != nil {
			abs = arg
		}
		roots = append(roots, abs)
	}
	logger.Debug().Strs("roots", roots).Strs("exclude", cfg.Exclude).Bool("execute", execute).Msg("starting run")

	console := render.NewConsole(opts.out, render.Options{
		Verbosity: verbosity,
		Color:     opts.color,
		Roots:     roots,
		Progress:  opts.progress,
	})
	sinks := []reconcile.Sink{console}

	var recorder *report.Recorder
	if writeReport {
		recorder = report.NewRecorder()
		sinks = append(sinks, recorder)
	}

	r := reconcile.New(afero.NewOsFs(), reconcile.Tee(sinks...), reconcile.Options{
		Execute: execute,
		Exclude: cfg.Exclude,
		Logger:  &logger,
	})

	stats, err := r.Run(ctx, roots)
	switch {
	case errors.Is(err, context.Canceled):
		console.Errorf("Operation interrupted by user")
		return &exitError{code: exitInterrupted, err: err}
	case errors.Is(err, reconcile.ErrNoValidRoots):
		console.Errorf("No valid directories to process")
		return &exitError{code: exitFailure, err: err}
	case err != nil:
		return err
	}

	console.Summary(stats)

	if recorder != nil {
		rep := recorder.Report(roots, stats)
		path := report.DefaultPath(cfg.ReportDir, rep)
		if err := report.Save(rep, path); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		logger.Info().Str("path", path).Msg("report written")
		console.Printf("Report: %s", path)
	}

	return nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.code)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitFailure)
}
