package render

import (
	"bytes"
	"io/fs"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"updatedirdates/internal/reconcile"
	"updatedirdates/internal/walker"
)

func event(path string, depth int, decision reconcile.Decision) reconcile.Event {
	ev := reconcile.Event{
		Root:     "/R",
		Path:     path,
		Decision: decision,
		OldStamp: time.Unix(1500, 0),
		Files:    2,
		Subdirs:  1,
		Depth:    depth,
	}
	if decision.Changes() {
		target := time.Unix(2000, 0)
		ev.NewStamp = &target
	}
	return ev
}

func TestConsole_VerbosityFilter(t *testing.T) {
	events := []reconcile.Event{
		event("/R/a/b", 2, reconcile.OK),
		event("/R/a", 1, reconcile.WouldUpdate),
		event("/R", 0, reconcile.OK),
	}

	cases := []struct {
		verbosity int
		want      []string
		notWant   []string
	}{
		{0, nil, []string{"/R/a/b", "/R/a", "Directory OK: /R "}},
		{1, []string{"Would update /R/a:", "Directory OK: /R "}, []string{"/R/a/b"}},
		{2, []string{"Directory OK: /R/a/b", "Would update /R/a:", "Directory OK: /R "}, nil},
	}

	for _, tc := range cases {
		var buf bytes.Buffer
		c := NewConsole(&buf, Options{Verbosity: tc.verbosity, Roots: []string{"/R"}})
		for _, ev := range events {
			c.Directory(ev)
		}

		out := buf.String()
		for _, s := range tc.want {
			if !strings.Contains(out, s) {
				t.Errorf("verbosity %d: expected %q in output %q", tc.verbosity, s, out)
			}
		}
		for _, s := range tc.notWant {
			if strings.Contains(out, s) {
				t.Errorf("verbosity %d: did not expect %q in output %q", tc.verbosity, s, out)
			}
		}
	}
}

func TestConsole_UpdateLine(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, Options{Verbosity: 2})

	c.Directory(event("/R/a", 1, reconcile.Updated))

	want := "Updating /R/a: " + formatTime(time.Unix(1500, 0)) + " -> " +
		formatTime(time.Unix(2000, 0)) + " (dirs:1 files:2)\nUpdated /R/a\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestConsole_Color(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, Options{Verbosity: 1, Color: true})

	c.Directory(event("/R/a", 1, reconcile.WouldUpdate))
	if !strings.HasPrefix(buf.String(), colorCyan) || !strings.Contains(buf.String(), colorReset) {
		t.Errorf("expected cyan line, got %q", buf.String())
	}

	buf.Reset()
	c.Directory(event("/R", 0, reconcile.OK))
	if strings.Contains(buf.String(), "\033[") {
		t.Errorf("ok lines should be plain, got %q", buf.String())
	}
}

func TestConsole_ErrorsAtEveryVerbosity(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, Options{Verbosity: 0, Roots: []string{"/missing", "/file", "/R"}})

	c.Error(&walker.EntryError{Path: "/missing", Kind: walker.NotFound, Err: fs.ErrNotExist})
	c.Error(&walker.EntryError{Path: "/file", Kind: walker.NotFound, Err: walker.ErrNotDirectory})
	c.Error(&walker.EntryError{Path: "/R/locked", Kind: walker.PermissionDenied,
		Err: &os.PathError{Op: "open", Path: "/R/locked", Err: fs.ErrPermission}})
	c.Error(&walker.EntryError{Path: "/R", Kind: walker.MutationFailed,
		Err: &os.PathError{Op: "chtimes", Path: "/R", Err: syscall.EROFS}})
	c.Error(&walker.EntryError{Path: "/R", Kind: walker.PermissionDenied,
		Err: &os.PathError{Op: "chtimes", Path: "/R", Err: fs.ErrPermission}})
	c.Directory(event("/R/locked", 1, reconcile.Error))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		"ERROR: Directory does not exist: /missing",
		"ERROR: Path is not a directory: /file",
		"WARNING: Permission denied: /R/locked",
		"WARNING: Failed to update /R: " + syscall.EROFS.Error(),
		"WARNING: Failed to update /R: permission denied",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestConsole_Summary(t *testing.T) {
	cases := []struct {
		stats reconcile.Stats
		want  string
	}{
		{reconcile.Stats{}, "No directory dates need updating."},
		{reconcile.Stats{Changed: 1}, "1 directory date would be updated."},
		{reconcile.Stats{Changed: 1234}, "1,234 directory dates would be updated."},
		{reconcile.Stats{Execute: true}, "No directory dates needed updating."},
		{reconcile.Stats{Execute: true, Changed: 1}, "1 directory date was updated."},
		{reconcile.Stats{Execute: true, Changed: 3}, "3 directory dates were updated."},
	}

	for _, tc := range cases {
		var buf bytes.Buffer
		NewConsole(&buf, Options{}).Summary(&tc.stats)
		if first := strings.SplitN(buf.String(), "\n", 2)[0]; first != tc.want {
			t.Errorf("expected %q, got %q", tc.want, first)
		}
	}
}

func TestConsole_SummaryDetails(t *testing.T) {
	var buf bytes.Buffer
	st := &reconcile.Stats{
		Execute:       true,
		Changed:       2,
		Visited:       10,
		Files:         1500,
		Warnings:      3,
		Errors:        1,
		FailedUpdates: 1,
		Elapsed:       1500 * time.Millisecond,
	}
	NewConsole(&buf, Options{Verbosity: 1}).Summary(st)

	out := buf.String()
	for _, s := range []string{
		"1 directory dates could not be updated.",
		"1 errors, 3 warnings.",
		"Scanned 10 directories and 1,500 files.",
		"Execution time: 1.50 seconds",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("expected %q in summary %q", s, out)
		}
	}

	buf.Reset()
	NewConsole(&buf, Options{}).Summary(&reconcile.Stats{})
	if strings.Contains(buf.String(), "Execution time") {
		t.Error("quiet run without changes should not print execution time")
	}
}
