// Package memfs builds in-memory directory trees with fixed stamps for tests.
package memfs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// At returns the stamp sec seconds after the epoch, to millisecond precision.
func At(sec float64) time.Time {
	return time.UnixMilli(int64(sec*1000 + 0.5))
}

func New() afero.Fs {
	return afero.NewMemMapFs()
}

// File creates path (and its parents) and stamps it with mtime.
func File(t *testing.T, fsys afero.Fs, path string, mtime time.Time) {
	t.Helper()
	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := afero.WriteFile(fsys, path, []byte("content"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if err := fsys.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("Failed to stamp file: %v", err)
	}
}

// Dir creates path if needed and stamps it with mtime. Call it after the
// files below path have been created.
func Dir(t *testing.T, fsys afero.Fs, path string, mtime time.Time) {
	t.Helper()
	if err := fsys.MkdirAll(path, 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := fsys.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("Failed to stamp directory: %v", err)
	}
}

// ModTime returns the current stamp of path.
func ModTime(t *testing.T, fsys afero.Fs, path string) time.Time {
	t.Helper()
	info, err := fsys.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat %s: %v", path, err)
	}
	return info.ModTime()
}

// FaultFs fails Open and Chtimes for selected paths.
type FaultFs struct {
	afero.Fs
	OpenErr    map[string]error
	ChtimesErr map[string]error
}

func NewFaultFs(base afero.Fs) *FaultFs {
	return &FaultFs{
		Fs:         base,
		OpenErr:    make(map[string]error),
		ChtimesErr: make(map[string]error),
	}
}

func (f *FaultFs) Open(name string) (afero.File, error) {
	if err, ok := f.OpenErr[filepath.Clean(name)]; ok {
		return nil, &os.PathError{Op: "open", Path: name, Err: err}
	}
	return f.Fs.Open(name)
}

func (f *FaultFs) Chtimes(name string, atime, mtime time.Time) error {
	if err, ok := f.ChtimesErr[filepath.Clean(name)]; ok {
		return &os.PathError{Op: "chtimes", Path: name, Err: err}
	}
	return f.Fs.Chtimes(name, atime, mtime)
}
