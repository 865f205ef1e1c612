package lease

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-sessionmesh/common/types"
)

// AnnounceFunc publishes that ref is alive. It is called without holding any
// advertiser lock.
type AnnounceFunc func(ref types.Stamp)

// AdvertiserOpt configures an Advertiser.
type AdvertiserOpt func(*Advertiser)

// WithAdvertiserLogger sets the logger.
func WithAdvertiserLogger(logger *zap.Logger) AdvertiserOpt {
	return func(a *Advertiser) {
		a.logger = logger
	}
}

// Advertiser periodically announces that an entity is alive. Several members
// may advertise the same group: observing a peer's announcement for the group
// postpones our own, so in steady state a single member keeps broadcasting.
type Advertiser struct {
	logger   *zap.Logger
	sched    *Scheduler
	self     types.Stamp
	announce AnnounceFunc

	mu      sync.Mutex
	ref     types.Stamp
	lease   time.Duration
	running bool
	timer   clockwork.Timer
	due     time.Time
	// gen invalidates callbacks of timers that were replaced.
	gen uint64
}

// NewAdvertiser creates an advertiser. self identifies this advertiser among
// members of the same group; announcements from self are never suppressing.
func NewAdvertiser(sched *Scheduler, self types.Stamp, announce AnnounceFunc, opts ...AdvertiserOpt) *Advertiser {
	a := &Advertiser{
		logger:   zap.NewNop(),
		sched:    sched,
		self:     self,
		announce: announce,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start begins periodic announcement of ref. The first announcement happens
// after a regular interval. Starting a running advertiser switches it to ref.
func (a *Advertiser) Start(ref types.Stamp, lease time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ref = ref
	a.lease = lease
	a.running = true
	a.rescheduleLocked(false)
	a.logger.Debug("advertiser started",
		zap.Stringer("ref", ref),
		zap.Duration("lease", lease),
	)
}

// Observe handles an announcement for ref made by from. An announcement for
// our group by another advertiser replaces the pending one with a fresh
// regular interval.
func (a *Advertiser) Observe(ref, from types.Stamp) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running || ref != a.ref || from == a.self {
		return
	}
	announceSuppressed.Inc()
	a.rescheduleLocked(false)
}

// RequestFast reschedules the next announcement within [0.02L, 0.04L).
func (a *Advertiser) RequestFast() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return
	}
	announceFast.Inc()
	a.rescheduleLocked(true)
}

// Stop cancels pending announcements.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return
	}
	a.running = false
	a.gen++
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.due = time.Time{}
	a.logger.Debug("advertiser stopped", zap.Stringer("ref", a.ref))
}

// Running is true between Start and Stop.
func (a *Advertiser) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// NextDue returns when the next announcement is scheduled. It returns the
// zero time if the advertiser is stopped.
func (a *Advertiser) NextDue() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.due
}

func (a *Advertiser) rescheduleLocked(fast bool) {
	if a.timer != nil {
		a.timer.Stop()
	}
	a.gen++
	gen := a.gen
	delay := a.sched.Interval(a.lease, fast)
	a.due = a.sched.Clock().Now().Add(delay)
	a.timer = a.sched.AfterFunc(delay, func() { a.fire(gen) })
}

func (a *Advertiser) fire(gen uint64) {
	a.mu.Lock()
	if !a.running || gen != a.gen {
		a.mu.Unlock()
		return
	}
	ref := a.ref
	// armed before announcing, the echo of our own announcement is ignored anyway
	a.rescheduleLocked(false)
	a.mu.Unlock()

	announceSent.Inc()
	a.announce(ref)
}
