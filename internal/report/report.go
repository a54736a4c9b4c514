// Package report records the outcome of a run as a JSON document.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"updatedirdates/internal/hash"
	"updatedirdates/internal/reconcile"
	"updatedirdates/internal/walker"
)

const Generator = "updatedirdates"

type ErrorRecord struct {
	Path    string           `json:"path"`
	Kind    walker.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

type Report struct {
	Generator   string            `json:"generator"`
	RunID       string            `json:"run_id"`
	Created     time.Time         `json:"created"`
	Mode        string            `json:"mode"`
	Roots       []string          `json:"roots"`
	Elapsed     string            `json:"elapsed"`
	Stats       reconcile.Stats   `json:"stats"`
	Directories []reconcile.Event `json:"directories"`
	Errors      []ErrorRecord     `json:"errors"`
}

// Recorder is a reconcile.Sink that keeps every directory that changed or
// failed, and every error.
type Recorder struct {
	runID       string
	directories []reconcile.Event
	errors      []ErrorRecord
}

func NewRecorder() *Recorder {
	return &Recorder{
		runID:       uuid.NewString(),
		directories: make([]reconcile.Event, 0),
		errors:      make([]ErrorRecord, 0),
	}
}

func (r *Recorder) Directory(ev reconcile.Event) {
	if ev.Decision == reconcile.OK {
		return
	}
	r.directories = append(r.directories, ev)
}

func (r *Recorder) Error(err *walker.EntryError) {
	r.errors = append(r.errors, ErrorRecord{
		Path:    err.Path,
		Kind:    err.Kind,
		Message: err.Err.Error(),
	})
}

// Report assembles the document for a finished run.
func (r *Recorder) Report(roots []string, stats *reconcile.Stats) *Report {
	mode := "dry-run"
	if stats.Execute {
		mode = "execute"
	}
	return &Report{
		Generator:   Generator,
		RunID:       r.runID,
		Created:     time.Now(),
		Mode:        mode,
		Roots:       roots,
		Elapsed:     stats.Elapsed.Round(time.Millisecond).String(),
		Stats:       *stats,
		Directories: r.directories,
		Errors:      r.errors,
	}
}

// DefaultPath names the report after a fingerprint of its roots and run id.
func DefaultPath(dir string, rep *Report) string {
	parts := append([]string{rep.RunID}, rep.Roots...)
	return filepath.Join(dir, hash.Fingerprint(parts...)+".json")
}

func Save(rep *Report, path string) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	// Ensure output directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &rep, nil
}
