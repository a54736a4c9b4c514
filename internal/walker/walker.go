package walker

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"updatedirdates/internal/stamp"
)

// Dir is one visited directory. ChildMax only holds contributions from
// subdirectories that were opened successfully.
type Dir struct {
	Path     string
	Depth    int
	ModTime  time.Time
	Files    int
	Subdirs  int
	FileMax  stamp.Max
	ChildMax stamp.Max

	// Err is set when the directory could not be opened. Nothing else but
	// Path and Depth is meaningful then.
	Err *EntryError
}

// Resolved returns the latest content time implied by the directory's files
// and the resolved values of its subdirectories.
func (d *Dir) Resolved() stamp.Max {
	return stamp.Resolve(d.FileMax, d.ChildMax)
}

// Visitor receives directories in post-order and entry errors as they occur.
type Visitor interface {
	VisitDir(d *Dir)
	VisitError(err *EntryError)
}

type Options struct {
	Exclude []string
}

type frame struct {
	dir     *Dir
	pending []string // subdirectories still to visit, last is next
}

type walker struct {
	fs      afero.Fs
	root    string
	exclude []string
	visitor Visitor
}

// Walk visits every directory below root, children before parents. Entry
// failures are handed to the visitor and never stop the walk. An error is
// returned only when root itself cannot be walked or ctx is cancelled.
func Walk(ctx context.Context, fsys afero.Fs, root string, opts Options, v Visitor) error {
	info, err := fsys.Stat(root)
	if err != nil {
		return newEntryError(root, err)
	}
	if !info.IsDir() {
		return &EntryError{Path: root, Kind: NotFound, Err: ErrNotDirectory}
	}

	w := &walker{
		fs:      fsys,
		root:    root,
		exclude: opts.Exclude,
		visitor: v,
	}

	top, entryErr := w.open(root, 0)
	if entryErr != nil {
		return entryErr
	}

	stack := []*frame{top}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		cur := stack[len(stack)-1]
		if n := len(cur.pending); n > 0 {
			next := cur.pending[n-1]
			cur.pending = cur.pending[:n-1]

			child, entryErr := w.open(next, cur.dir.Depth+1)
			if entryErr != nil {
				v.VisitError(entryErr)
				v.VisitDir(&Dir{Path: next, Depth: cur.dir.Depth + 1, Err: entryErr})
				continue
			}
			stack = append(stack, child)
			continue
		}

		stack = stack[:len(stack)-1]
		v.VisitDir(cur.dir)
		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			parent.dir.ChildMax.Merge(cur.dir.Resolved())
		}
	}

	return nil
}

// open reads a directory's own stamp and classifies its immediate entries.
// A partially failed listing is reported and the entries that were read
// are still used.
func (w *walker) open(path string, depth int) (*frame, *EntryError) {
	f, err := w.fs.Open(path)
	if err != nil {
		return nil, newEntryError(path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, newEntryError(path, err)
	}

	entries, err := f.Readdir(-1)
	if err != nil {
		if len(entries) == 0 {
			return nil, newEntryError(path, err)
		}
		w.visitor.VisitError(newEntryError(path, err))
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() > entries[j].Name()
	})

	dir := &Dir{
		Path:    path,
		Depth:   depth,
		ModTime: info.ModTime(),
	}
	fr := &frame{dir: dir}

	for _, entry := range entries {
		entryPath := filepath.Join(path, entry.Name())
		if w.excluded(entryPath, entry.IsDir()) {
			continue
		}

		// Symlinks and special files are leaves: their own stamp counts
		// but they are never followed.
		if entry.IsDir() {
			dir.Subdirs++
			fr.pending = append(fr.pending, entryPath)
			continue
		}
		dir.Files++
		dir.FileMax.Observe(entry.ModTime())
	}

	return fr, nil
}

func (w *walker) excluded(path string, isDir bool) bool {
	if len(w.exclude) == 0 {
		return false
	}
	relPath, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	return shouldExclude(filepath.ToSlash(relPath), isDir, w.exclude)
}

func shouldExclude(relPath string, isDir bool, exclusions []string) bool {
	base := relPath
	if i := strings.LastIndex(relPath, "/"); i >= 0 {
		base = relPath[i+1:]
	}

	for _, pattern := range exclusions {
		// Directory exclusions end with /
		if strings.HasSuffix(pattern, "/") {
			if !isDir {
				continue
			}
			dirPattern := strings.TrimSuffix(pattern, "/")
			if matched, _ := doublestar.Match(dirPattern, base); matched {
				return true
			}
			if matched, _ := doublestar.Match(dirPattern, relPath); matched {
				return true
			}
			continue
		}

		if matched, err := doublestar.Match(pattern, base); err == nil && matched {
			return true
		}
		if strings.Contains(pattern, "/") {
			if matched, err := doublestar.Match(pattern, relPath); err == nil && matched {
				return true
			}
		}
	}
	return false
}
