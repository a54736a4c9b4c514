package progress

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Counter shows a live count of scanned directories on a single terminal
// line. The total is unknown up front, so there is no bar.
type Counter struct {
	count      int64
	changed    int64
	writer     io.Writer
	mu         sync.Mutex
	current    string
	lastUpdate time.Time
	interval   time.Duration
	rendered   bool
}

func New(w io.Writer) *Counter {
	return &Counter{
		writer:   w,
		interval: 100 * time.Millisecond,
	}
}

// Increment records one scanned directory.
func (c *Counter) Increment(dir string, changed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.count++
	if changed {
		c.changed++
	}
	c.current = dir

	// Update at most every interval to reduce flickering
	now := time.Now()
	if now.Sub(c.lastUpdate) >= c.interval {
		c.lastUpdate = now
		c.render()
	}
}

// render must be called with mu already locked
func (c *Counter) render() {
	// Clear the line and write progress
	fmt.Fprintf(c.writer, "\r\033[K[%s dirs, %s to update] %s",
		humanize.Comma(c.count), humanize.Comma(c.changed), filepath.Base(c.current))
	c.rendered = true
}

// Finish clears the progress line so the summary starts on a clean line.
func (c *Counter) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rendered {
		fmt.Fprint(c.writer, "\r\033[K")
		c.rendered = false
	}
}
