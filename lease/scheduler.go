// Package lease implements advertise-and-expire presence: an Advertiser that
// periodically announces an entity with randomized intervals, and a Directory
// that tracks announced entities until their lease runs out.
package lease

import (
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/seehuhn/mt19937"
)

// Scheduler draws randomized intervals and arms timers. Every lease, announce
// and heartbeat site shares one Scheduler per node.
type Scheduler struct {
	clock clockwork.Clock

	mu  sync.Mutex
	rng *rand.Rand
}

// SchedulerOpt configures a Scheduler.
type SchedulerOpt func(*Scheduler)

// WithClock overrides the real clock.
func WithClock(clock clockwork.Clock) SchedulerOpt {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithSeed makes interval draws reproducible.
func WithSeed(seed int64) SchedulerOpt {
	return func(s *Scheduler) {
		s.rng = newRand(seed)
	}
}

// NewScheduler creates a scheduler seeded from the wall clock.
func NewScheduler(opts ...SchedulerOpt) *Scheduler {
	s := &Scheduler{
		clock: clockwork.NewRealClock(),
		rng:   newRand(time.Now().UnixNano()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newRand(seed int64) *rand.Rand {
	src := mt19937.New()
	src.Seed(seed)
	return rand.New(src)
}

// Clock returns the clock used to arm timers.
func (s *Scheduler) Clock() clockwork.Clock {
	return s.clock
}

// NormalBounds returns the half-open range [0.2L, 0.4L) used between announcements.
func NormalBounds(lease time.Duration) (time.Duration, time.Duration) {
	return lease / 5, lease * 2 / 5
}

// FastBounds returns the half-open range [0.02L, 0.04L) used after a request for speed.
func FastBounds(lease time.Duration) (time.Duration, time.Duration) {
	return lease / 50, lease * 2 / 50
}

// Interval draws the delay until the next occurrence for a lease.
func (s *Scheduler) Interval(lease time.Duration, fast bool) time.Duration {
	lo, hi := NormalBounds(lease)
	if fast {
		lo, hi = FastBounds(lease)
	}
	return s.uniform(lo, hi)
}

// Jitter draws a duration from [base-spread, base+spread).
func (s *Scheduler) Jitter(base, spread time.Duration) time.Duration {
	if spread <= 0 {
		return base
	}
	return s.uniform(base-spread, base+spread)
}

func (s *Scheduler) uniform(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + time.Duration(s.rng.Int63n(int64(hi-lo)))
}

// AfterFunc arms a timer on the scheduler's clock.
func (s *Scheduler) AfterFunc(d time.Duration, f func()) clockwork.Timer {
	return s.clock.AfterFunc(d, f)
}
