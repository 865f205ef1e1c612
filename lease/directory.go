package lease

import (
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-sessionmesh/common/types"
)

// Event is a change in a Directory.
type Event uint8

const (
	// Added is raised for a previously unseen entity.
	Added Event = iota + 1
	// Renamed is raised when a known entity is announced with a new name.
	Renamed
	// Removed is raised when the lease of an entity expires.
	Removed
)

func (e Event) String() string {
	switch e {
	case Added:
		return "added"
	case Renamed:
		return "renamed"
	case Removed:
		return "removed"
	}
	return "unknown"
}

// Entry is a record of a remote entity.
type Entry struct {
	Ref     types.Stamp
	Name    string
	Expires time.Time
}

// Listener receives directory events. It is called without holding any
// directory lock, in the order the events happened for a single entity.
type Listener func(Event, Entry)

// DirectoryOpt configures a Directory.
type DirectoryOpt func(*Directory)

// WithDirectoryLogger sets the logger.
func WithDirectoryLogger(logger *zap.Logger) DirectoryOpt {
	return func(d *Directory) {
		d.logger = logger
	}
}

// WithJitter spreads every lease uniformly over [lease-spread, lease+spread).
func WithJitter(spread time.Duration) DirectoryOpt {
	return func(d *Directory) {
		d.jitter = spread
	}
}

// WithName labels the directory in logs and metrics.
func WithName(name string) DirectoryOpt {
	return func(d *Directory) {
		d.name = name
	}
}

type record struct {
	entry Entry
	timer clockwork.Timer
	gen   uint64
}

// Directory tracks remote entities, each with a refreshable expiry.
type Directory struct {
	logger   *zap.Logger
	name     string
	sched    *Scheduler
	lease    time.Duration
	jitter   time.Duration
	listener Listener

	mu      sync.Mutex
	records map[types.Stamp]*record
	stopped bool
	gen     uint64
}

// NewDirectory creates a directory that drops entities not refreshed within lease.
func NewDirectory(sched *Scheduler, lease time.Duration, listener Listener, opts ...DirectoryOpt) *Directory {
	d := &Directory{
		logger:   zap.NewNop(),
		name:     "presence",
		sched:    sched,
		lease:    lease,
		listener: listener,
		records:  make(map[types.Stamp]*record),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// OnAnnouncement inserts or refreshes ref and rearms its expiry.
func (d *Directory) OnAnnouncement(ref types.Stamp, name string) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	rec, exists := d.records[ref]
	var (
		event   Event
		oldName string
	)
	switch {
	case !exists:
		rec = &record{entry: Entry{Ref: ref, Name: name}}
		d.records[ref] = rec
		event = Added
	case rec.entry.Name != name:
		oldName = rec.entry.Name
		rec.entry.Name = name
		event = Renamed
	}
	d.armLocked(rec)
	entry := rec.entry
	d.mu.Unlock()

	if event == 0 {
		return
	}
	directoryEvents.WithLabelValues(d.name, event.String()).Inc()
	d.logger.Debug("presence changed",
		zap.String("directory", d.name),
		zap.Stringer("event", event),
		zap.Stringer("ref", ref),
		zap.String("name", name),
		zap.String("old_name", oldName),
	)
	if d.listener != nil {
		d.listener(event, entry)
	}
}

// Forget drops ref without raising Removed. Used when an entity leaves
// explicitly.
func (d *Directory) Forget(ref types.Stamp) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if rec, exists := d.records[ref]; exists {
		rec.timer.Stop()
		delete(d.records, ref)
	}
}

// Lookup returns the entry for ref.
func (d *Directory) Lookup(ref types.Stamp) (Entry, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, exists := d.records[ref]
	if !exists {
		return Entry{}, false
	}
	return rec.entry, true
}

// List returns all entries sorted by name and then by ref.
func (d *Directory) List() []Entry {
	d.mu.Lock()
	entries := make([]Entry, 0, len(d.records))
	for _, rec := range d.records {
		entries = append(entries, rec.entry)
	}
	d.mu.Unlock()
	slices.SortFunc(entries, func(a, b Entry) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return a.Ref.Compare(b.Ref)
	})
	return entries
}

// Stop cancels every expiry timer and forgets all entries.
func (d *Directory) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for ref, rec := range d.records {
		rec.timer.Stop()
		delete(d.records, ref)
	}
}

func (d *Directory) armLocked(rec *record) {
	if rec.timer != nil {
		rec.timer.Stop()
	}
	d.gen++
	rec.gen = d.gen
	gen, ref := rec.gen, rec.entry.Ref
	lease := d.sched.Jitter(d.lease, d.jitter)
	rec.entry.Expires = d.sched.Clock().Now().Add(lease)
	rec.timer = d.sched.AfterFunc(lease, func() { d.expire(ref, gen) })
}

func (d *Directory) expire(ref types.Stamp, gen uint64) {
	d.mu.Lock()
	rec, exists := d.records[ref]
	if d.stopped || !exists || rec.gen != gen {
		d.mu.Unlock()
		return
	}
	delete(d.records, ref)
	entry := rec.entry
	d.mu.Unlock()

	directoryEvents.WithLabelValues(d.name, Removed.String()).Inc()
	d.logger.Debug("presence expired",
		zap.String("directory", d.name),
		zap.Stringer("ref", ref),
		zap.String("name", entry.Name),
	)
	if d.listener != nil {
		d.listener(Removed, entry)
	}
}
