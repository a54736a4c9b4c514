// Package render prints reconcile events and run statistics for people.
package render

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/dustin/go-humanize"

	"updatedirdates/internal/progress"
	"updatedirdates/internal/reconcile"
	"updatedirdates/internal/walker"
)

const timeLayout = "2006-01-02 15:04:05"

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

type Options struct {
	// Verbosity 0 prints no directory lines, 1 prints the roots and their
	// immediate children, 2 prints every directory.
	Verbosity int
	Color     bool
	Roots     []string
	// Progress, when set, is advanced for every directory event.
	Progress *progress.Counter
}

// Console is a reconcile.Sink writing human readable lines.
type Console struct {
	out   io.Writer
	opts  Options
	roots map[string]bool
}

func NewConsole(out io.Writer, opts Options) *Console {
	roots := make(map[string]bool, len(opts.Roots))
	for _, root := range opts.Roots {
		roots[root] = true
	}
	return &Console{out: out, opts: opts, roots: roots}
}

func (c *Console) shows(depth int) bool {
	return c.opts.Verbosity >= 2 || (c.opts.Verbosity >= 1 && depth <= 1)
}

func (c *Console) Directory(ev reconcile.Event) {
	if c.opts.Progress != nil {
		c.opts.Progress.Increment(ev.Path, ev.Decision.Changes())
	}

	// Failed directories are reported through their error event.
	if ev.Decision == reconcile.Error || !c.shows(ev.Depth) {
		return
	}

	counts := fmt.Sprintf(" (dirs:%d files:%d)", ev.Subdirs, ev.Files)
	switch ev.Decision {
	case reconcile.WouldUpdate, reconcile.Updated:
		action := "Would update"
		if ev.Decision == reconcile.Updated {
			action = "Updating"
		}
		c.println(colorCyan, "%s %s: %s -> %s%s",
			action, ev.Path, formatTime(ev.OldStamp), formatTime(*ev.NewStamp), counts)
		if ev.Decision == reconcile.Updated {
			c.println(colorGreen, "Updated %s", ev.Path)
		}
	default:
		c.println("", "Directory OK: %s (%s)%s", ev.Path, formatTime(ev.OldStamp), counts)
	}
}

// Error prints failures of roots as errors and everything else as
// warnings, at every verbosity.
func (c *Console) Error(err *walker.EntryError) {
	if c.roots[err.Path] && !isMutation(err) {
		c.println(colorRed, "ERROR: %s", describeRoot(err))
		return
	}
	c.println(colorYellow, "WARNING: %s", describe(err))
}

func describeRoot(err *walker.EntryError) string {
	switch {
	case errors.Is(err, walker.ErrNotDirectory):
		return "Path is not a directory: " + err.Path
	case err.Kind == walker.NotFound:
		return "Directory does not exist: " + err.Path
	case err.Kind == walker.PermissionDenied:
		return "Directory is not readable: " + err.Path
	default:
		return fmt.Sprintf("Error reading directory %s: %s", err.Path, cause(err))
	}
}

func describe(err *walker.EntryError) string {
	switch err.Kind {
	case walker.PermissionDenied:
		if isMutation(err) {
			return "Failed to update " + err.Path + ": permission denied"
		}
		return "Permission denied: " + err.Path
	case walker.NotFound:
		return "No longer exists: " + err.Path
	case walker.MutationFailed:
		return fmt.Sprintf("Failed to update %s: %s", err.Path, cause(err))
	default:
		return fmt.Sprintf("Could not read %s: %s", err.Path, cause(err))
	}
}

func isMutation(err *walker.EntryError) bool {
	if err.Kind == walker.MutationFailed {
		return true
	}
	var pathErr *fs.PathError
	return errors.As(err.Err, &pathErr) && pathErr.Op == "chtimes"
}

// cause drops the operation and path that fs.PathError adds.
func cause(err *walker.EntryError) string {
	var pathErr *fs.PathError
	if errors.As(err.Err, &pathErr) {
		return pathErr.Err.Error()
	}
	return err.Err.Error()
}

// Summary prints the final statistics of a run.
func (c *Console) Summary(st *reconcile.Stats) {
	if c.opts.Progress != nil {
		c.opts.Progress.Finish()
	}

	n := humanize.Comma(int64(st.Changed))
	switch {
	case !st.Execute && st.Changed == 0:
		c.println(colorGreen, "No directory dates need updating.")
	case !st.Execute && st.Changed == 1:
		c.println(colorCyan, "1 directory date would be updated.")
	case !st.Execute:
		c.println(colorCyan, "%s directory dates would be updated.", n)
	case st.Changed == 0:
		c.println(colorGreen, "No directory dates needed updating.")
	case st.Changed == 1:
		c.println(colorGreen, "1 directory date was updated.")
	default:
		c.println(colorGreen, "%s directory dates were updated.", n)
	}

	if st.FailedUpdates > 0 {
		c.println(colorYellow, "%s directory dates could not be updated.", humanize.Comma(int64(st.FailedUpdates)))
	}
	if problems := st.Problems(); problems > 0 {
		c.println(colorYellow, "%s errors, %s warnings.",
			humanize.Comma(int64(st.Errors)), humanize.Comma(int64(st.Warnings)))
	}
	if c.opts.Verbosity >= 1 {
		c.println("", "Scanned %s directories and %s files.",
			humanize.Comma(int64(st.Visited)), humanize.Comma(int64(st.Files)))
	}
	if c.opts.Verbosity >= 1 || st.Changed > 0 {
		c.println("", "Execution time: %.2f seconds", st.Elapsed.Seconds())
	}
}

// Errorf prints a run level failure.
func (c *Console) Errorf(format string, args ...any) {
	c.println(colorRed, "ERROR: "+format, args...)
}

// Printf prints an uncolored line.
func (c *Console) Printf(format string, args ...any) {
	c.println("", format, args...)
}

func (c *Console) println(color, format string, args ...any) {
	if c.opts.Progress != nil {
		c.opts.Progress.Finish()
	}

	msg := fmt.Sprintf(format, args...)
	if c.opts.Color && color != "" {
		msg = color + msg + colorReset
	}
	fmt.Fprintln(c.out, msg)
}

func formatTime(t time.Time) string {
	return t.Local().Format(timeLayout)
}
