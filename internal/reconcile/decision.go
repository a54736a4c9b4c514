package reconcile

import (
	"time"

	"updatedirdates/internal/stamp"
)

type Decision string

const (
	OK          Decision = "ok"
	WouldUpdate Decision = "would-update"
	Updated     Decision = "updated"
	Error       Decision = "error"
)

// Decide compares a directory's own stamp with its resolved content time.
// Directories are only ever moved forward; an undefined target, a target
// within stamp.Tolerance, or a stamp already ahead of its content is OK.
func Decide(own time.Time, resolved stamp.Max, execute bool) (Decision, time.Time) {
	target, ok := resolved.Time()
	if !ok || !stamp.Behind(own, target) {
		return OK, time.Time{}
	}
	if execute {
		return Updated, target
	}
	return WouldUpdate, target
}

// Changes reports whether the decision moves the directory stamp.
func (d Decision) Changes() bool {
	return d == WouldUpdate || d == Updated
}
