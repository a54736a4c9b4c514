// Package stamp resolves the latest content time of a directory from the
// stamps of its files and the resolved values of its subdirectories.
package stamp

import "time"

// Tolerance absorbs timestamp precision differences between filesystems.
const Tolerance = time.Second

// Max accumulates the latest of a set of stamps. The zero value holds
// nothing and reports undefined.
type Max struct {
	t     time.Time
	valid bool
}

// Observe folds t into the maximum.
func (m *Max) Observe(t time.Time) {
	if !m.valid || t.After(m.t) {
		m.t = t
		m.valid = true
	}
}

// Merge folds another accumulator into m. An undefined other is ignored.
func (m *Max) Merge(other Max) {
	if other.valid {
		m.Observe(other.t)
	}
}

// Time returns the maximum and whether any stamp was observed.
func (m Max) Time() (time.Time, bool) {
	return m.t, m.valid
}

// Defined reports whether any stamp was observed.
func (m Max) Defined() bool {
	return m.valid
}

// Of returns an accumulator holding exactly t.
func Of(t time.Time) Max {
	return Max{t: t, valid: true}
}

// Resolve combines the file maximum and the child maximum of a directory.
// The result is undefined only when both inputs are undefined.
func Resolve(fileMax, childMax Max) Max {
	var out Max
	out.Merge(fileMax)
	out.Merge(childMax)
	return out
}

// Behind reports whether own trails target by more than Tolerance.
// A stamp that is ahead of its target is never considered behind.
func Behind(own, target time.Time) bool {
	return target.Sub(own) > Tolerance
}
