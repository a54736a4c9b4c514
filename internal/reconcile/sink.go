package reconcile

import (
	"time"

	"updatedirdates/internal/walker"
)

// Event is the outcome for one visited directory. NewStamp is set only when
// the decision changes the stamp. Depth is relative to Root.
type Event struct {
	Root     string     `json:"root"`
	Path     string     `json:"path"`
	Decision Decision   `json:"decision"`
	OldStamp time.Time  `json:"old_stamp"`
	NewStamp *time.Time `json:"new_stamp,omitempty"`
	Files    int        `json:"files"`
	Subdirs  int        `json:"subdirs"`
	Depth    int        `json:"depth"`
}

// Sink consumes the events of a run in the order they are produced.
type Sink interface {
	Directory(ev Event)
	Error(err *walker.EntryError)
}

type nopSink struct{}

func (nopSink) Directory(Event)          {}
func (nopSink) Error(*walker.EntryError) {}

// Discard is a Sink that drops everything.
var Discard Sink = nopSink{}

type teeSink []Sink

func (t teeSink) Directory(ev Event) {
	for _, s := range t {
		s.Directory(ev)
	}
}

func (t teeSink) Error(err *walker.EntryError) {
	for _, s := range t {
		s.Error(err)
	}
}

// Tee fans every event out to each sink in order.
func Tee(sinks ...Sink) Sink {
	return teeSink(sinks)
}

// Collector keeps every event in memory.
type Collector struct {
	Events []Event
	Errors []*walker.EntryError
}

func (c *Collector) Directory(ev Event) {
	c.Events = append(c.Events, ev)
}

func (c *Collector) Error(err *walker.EntryError) {
	c.Errors = append(c.Errors, err)
}

// Event returns the event recorded for path.
func (c *Collector) Event(path string) (Event, bool) {
	for _, ev := range c.Events {
		if ev.Path == path {
			return ev, true
		}
	}
	return Event{}, false
}
