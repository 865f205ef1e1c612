package types

// Timestamp is a Lamport timestamp. Combat ownership is decided by comparing
// timestamps, never wall clock time.
type Timestamp uint64

// Clock is a Lamport clock. It is not safe for concurrent use and is expected
// to be owned by a single session actor.
type Clock struct {
	now Timestamp
}

// Now returns the last issued or observed timestamp.
func (c *Clock) Now() Timestamp {
	return c.now
}

// Tick advances the clock and returns the new timestamp.
func (c *Clock) Tick() Timestamp {
	c.now++
	return c.now
}

// Observe merges a remote timestamp into the clock.
func (c *Clock) Observe(remote Timestamp) {
	c.now = max(c.now, remote) + 1
}
