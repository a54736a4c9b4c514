package reconcile

import "time"

// Stats accumulates counts across every root of one run. Changed counts
// would-update decisions in a dry run and successful updates otherwise.
type Stats struct {
	Execute bool `json:"execute"`

	Roots         int `json:"roots"`
	InvalidRoots  int `json:"invalid_roots"`
	Visited       int `json:"visited"`
	Changed       int `json:"changed"`
	Files         int `json:"files"`
	Subdirs       int `json:"subdirs"`
	Errors        int `json:"errors"`
	Warnings      int `json:"warnings"`
	FailedUpdates int `json:"failed_updates"`

	Elapsed time.Duration `json:"elapsed_ns"`
}

// Merge adds the counts of other into s.
func (s *Stats) Merge(other Stats) {
	s.Roots += other.Roots
	s.InvalidRoots += other.InvalidRoots
	s.Visited += other.Visited
	s.Changed += other.Changed
	s.Files += other.Files
	s.Subdirs += other.Subdirs
	s.Errors += other.Errors
	s.Warnings += other.Warnings
	s.FailedUpdates += other.FailedUpdates
}

// Problems is the number of errors and warnings seen.
func (s *Stats) Problems() int {
	return s.Errors + s.Warnings
}
