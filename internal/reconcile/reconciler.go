// Package reconcile decides, per directory, whether its modification stamp
// trails its content and applies or reports the correction.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"updatedirdates/internal/walker"
)

// ErrNoValidRoots is returned when none of the supplied roots could be walked.
var ErrNoValidRoots = errors.New("no valid directories to process")

type Options struct {
	// Execute applies corrections. Without it the run is a dry run.
	Execute bool
	Exclude []string
	// Logger receives diagnostics. Nil disables them.
	Logger *zerolog.Logger
}

type Reconciler struct {
	fs   afero.Fs
	sink Sink
	opts Options
	log  zerolog.Logger
}

func New(fsys afero.Fs, sink Sink, opts Options) *Reconciler {
	if sink == nil {
		sink = Discard
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Reconciler{fs: fsys, sink: sink, opts: opts, log: log}
}

// Run walks each root in order and returns the merged statistics. Invalid
// roots are reported individually; the run fails with ErrNoValidRoots only
// when no root was valid. Cancellation stops the run before the next
// directory and returns the statistics gathered so far.
func (r *Reconciler) Run(ctx context.Context, roots []string) (*Stats, error) {
	start := time.Now()
	total := &Stats{Execute: r.opts.Execute}

	valid := 0
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			total.Elapsed = time.Since(start)
			return total, err
		}

		st, err := r.runRoot(ctx, root)
		total.Merge(st)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				total.Elapsed = time.Since(start)
				return total, ctxErr
			}
			continue
		}
		valid++
	}

	total.Elapsed = time.Since(start)
	if valid == 0 {
		return total, ErrNoValidRoots
	}
	return total, nil
}

func (r *Reconciler) runRoot(ctx context.Context, root string) (Stats, error) {
	st := Stats{Execute: r.opts.Execute, Roots: 1}
	log := r.log.With().Str("root", root).Logger()
	log.Debug().Bool("execute", r.opts.Execute).Msg("walking root")

	v := &visitor{
		ctx:   ctx,
		r:     r,
		root:  root,
		stats: &st,
		log:   log,
	}

	err := walker.Walk(ctx, r.fs, root, walker.Options{Exclude: r.opts.Exclude}, v)
	if err == nil {
		return st, nil
	}

	var entryErr *walker.EntryError
	if errors.As(err, &entryErr) {
		st.Errors++
		st.InvalidRoots++
		log.Warn().Err(entryErr.Err).Str("kind", string(entryErr.Kind)).Msg("invalid root")
		r.sink.Error(entryErr)
	}
	return st, fmt.Errorf("walk %s: %w", root, err)
}

type visitor struct {
	ctx   context.Context
	r     *Reconciler
	root  string
	stats *Stats
	log   zerolog.Logger
}

func (v *visitor) VisitError(err *walker.EntryError) {
	v.stats.Warnings++
	v.log.Warn().Err(err.Err).Str("path", err.Path).Str("kind", string(err.Kind)).Msg("entry skipped")
	v.r.sink.Error(err)
}

func (v *visitor) VisitDir(d *walker.Dir) {
	// Nothing is evaluated or touched once the run is cancelled.
	if v.ctx.Err() != nil {
		return
	}

	v.stats.Visited++
	ev := Event{
		Root:  v.root,
		Path:  d.Path,
		Depth: d.Depth,
	}

	if d.Err != nil {
		ev.Decision = Error
		v.r.sink.Directory(ev)
		return
	}

	v.stats.Files += d.Files
	v.stats.Subdirs += d.Subdirs
	ev.OldStamp = d.ModTime
	ev.Files = d.Files
	ev.Subdirs = d.Subdirs

	decision, target := Decide(d.ModTime, d.Resolved(), v.r.opts.Execute)
	ev.Decision = decision
	if decision.Changes() {
		ev.NewStamp = &target
	}

	if decision == Updated {
		if err := v.r.apply(d.Path, target); err != nil {
			v.stats.Warnings++
			v.stats.FailedUpdates++
			v.log.Warn().Err(err.Err).Str("path", d.Path).Str("kind", string(err.Kind)).Msg("update failed")
			v.r.sink.Error(err)
			ev.Decision = Error
			v.r.sink.Directory(ev)
			return
		}
	}

	if decision.Changes() {
		v.stats.Changed++
	}
	v.log.Debug().
		Str("path", d.Path).
		Str("decision", string(ev.Decision)).
		Time("old", d.ModTime).
		Int("files", d.Files).
		Int("subdirs", d.Subdirs).
		Msg("directory")
	v.r.sink.Directory(ev)
}

// apply sets the modification time of path. The access time is left as is.
func (r *Reconciler) apply(path string, target time.Time) *walker.EntryError {
	err := r.fs.Chtimes(path, time.Time{}, target)
	if err == nil {
		return nil
	}

	kind := walker.MutationFailed
	if errors.Is(err, fs.ErrPermission) {
		kind = walker.PermissionDenied
	}
	return &walker.EntryError{Path: path, Kind: kind, Err: err}
}
