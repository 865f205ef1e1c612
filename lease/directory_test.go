package lease

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spacemeshos/go-sessionmesh/common/types"
)

type observed struct {
	event Event
	entry Entry
}

func newTestDirectory(t *testing.T, fc clockwork.Clock, opts ...DirectoryOpt) (*Directory, chan observed) {
	ch := make(chan observed, 16)
	sched := NewScheduler(WithClock(fc), WithSeed(3))
	opts = append(opts, WithDirectoryLogger(zaptest.NewLogger(t)))
	dir := NewDirectory(sched, testLease, func(ev Event, entry Entry) {
		ch <- observed{event: ev, entry: entry}
	}, opts...)
	t.Cleanup(dir.Stop)
	return dir, ch
}

func waitEvent(t *testing.T, ch <-chan observed) observed {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(5 * time.Second):
		require.FailNow(t, "timed out waiting for directory event")
	}
	return observed{}
}

func requireNoEvent(t *testing.T, ch <-chan observed) {
	t.Helper()
	select {
	case ev := <-ch:
		require.FailNow(t, "unexpected event", "%v for %v", ev.event, ev.entry.Ref)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDirectoryLifecycle(t *testing.T) {
	fc := clockwork.NewFakeClock()
	dir, ch := newTestDirectory(t, fc)
	ref := types.NewStamp()

	dir.OnAnnouncement(ref, "tavern")
	ev := waitEvent(t, ch)
	require.Equal(t, Added, ev.event)
	require.Equal(t, "tavern", ev.entry.Name)
	require.Equal(t, fc.Now().Add(testLease), ev.entry.Expires)

	dir.OnAnnouncement(ref, "tavern")
	requireNoEvent(t, ch)

	dir.OnAnnouncement(ref, "old tavern")
	ev = waitEvent(t, ch)
	require.Equal(t, Renamed, ev.event)
	require.Equal(t, "old tavern", ev.entry.Name)

	entry, ok := dir.Lookup(ref)
	require.True(t, ok)
	require.Equal(t, "old tavern", entry.Name)

	fc.Advance(testLease)
	ev = waitEvent(t, ch)
	require.Equal(t, Removed, ev.event)
	require.Equal(t, ref, ev.entry.Ref)
	_, ok = dir.Lookup(ref)
	require.False(t, ok)
}

func TestDirectoryRefreshPostponesExpiry(t *testing.T) {
	fc := clockwork.NewFakeClock()
	dir, ch := newTestDirectory(t, fc)
	ref := types.NewStamp()
	dir.OnAnnouncement(ref, "a")
	waitEvent(t, ch)

	for range 5 {
		fc.Advance(testLease - time.Second)
		dir.OnAnnouncement(ref, "a")
	}
	requireNoEvent(t, ch)
	require.Len(t, dir.List(), 1)

	fc.Advance(testLease)
	require.Equal(t, Removed, waitEvent(t, ch).event)
	require.Empty(t, dir.List())
}

func TestDirectoryJitter(t *testing.T) {
	fc := clockwork.NewFakeClock()
	spread := 5 * time.Second
	dir, ch := newTestDirectory(t, fc, WithJitter(spread), WithName("players"))
	for range 20 {
		dir.OnAnnouncement(types.NewStamp(), "p")
		ev := waitEvent(t, ch)
		lease := ev.entry.Expires.Sub(fc.Now())
		require.GreaterOrEqual(t, lease, testLease-spread)
		require.Less(t, lease, testLease+spread)
	}
}

func TestDirectoryForgetAndStop(t *testing.T) {
	fc := clockwork.NewFakeClock()
	dir, ch := newTestDirectory(t, fc)
	first, second := types.NewStamp(), types.NewStamp()
	dir.OnAnnouncement(first, "b")
	dir.OnAnnouncement(second, "a")
	waitEvent(t, ch)
	waitEvent(t, ch)

	list := dir.List()
	require.Len(t, list, 2)
	require.Equal(t, second, list[0].Ref)

	dir.Forget(first)
	dir.Stop()
	fc.Advance(2 * testLease)
	requireNoEvent(t, ch)

	dir.OnAnnouncement(first, "b")
	requireNoEvent(t, ch)
	require.Empty(t, dir.List())
}
