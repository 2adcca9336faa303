// Package queue implements the per-source dedup tracker that prevents
// duplicate notifications across polling cycles.
package queue

// Tracker remembers which item identifiers from one upstream source have
// already been handled. State lives for the process lifetime only and is
// dropped whenever the upstream collection drains, so an item that leaves
// the queue and later reappears is treated as new again.
type Tracker struct {
	seen map[string]struct{}
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{seen: make(map[string]struct{})}
}

// Admit reports whether id has not been seen since the last reset, and
// records it. An id is admitted at most once between resets.
func (t *Tracker) Admit(id string) bool {
	if _, ok := t.seen[id]; ok {
		return false
	}
	t.seen[id] = struct{}{}
	return true
}

// Contains reports whether id is currently tracked.
func (t *Tracker) Contains(id string) bool {
	_, ok := t.seen[id]
	return ok
}

// Reset drops every remembered identifier. Called unconditionally when the
// upstream fetch comes back empty.
func (t *Tracker) Reset() {
	if len(t.seen) == 0 {
		return
	}
	t.seen = make(map[string]struct{})
}

// Len returns the number of tracked identifiers.
func (t *Tracker) Len() int {
	return len(t.seen)
}
