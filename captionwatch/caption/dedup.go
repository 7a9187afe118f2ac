package caption

// Deduplicator gates forwarding: it remembers the last forwarded caption
// and refuses empty candidates and repeats of that value. The zero value
// is ready to use.
//
// A Deduplicator is owned by a single goroutine; it is not safe for
// concurrent use.
type Deduplicator struct {
	last string
}

// ShouldForward reports whether candidate must be forwarded. On true, the
// candidate becomes the remembered value before ShouldForward returns.
func (d *Deduplicator) ShouldForward(candidate string) bool {
	if candidate == "" || candidate == d.last {
		return false
	}
	d.last = candidate
	return true
}

// Last returns the most recently accepted caption, or "".
func (d *Deduplicator) Last() string { return d.last }
