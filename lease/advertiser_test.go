package lease

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spacemeshos/go-sessionmesh/common/types"
)

const testLease = 30 * time.Second

type announcement struct {
	who int
	ref types.Stamp
	at  time.Time
}

func waitAnnouncement(t *testing.T, ch <-chan announcement) announcement {
	t.Helper()
	select {
	case ann := <-ch:
		return ann
	case <-time.After(5 * time.Second):
		require.FailNow(t, "timed out waiting for announcement")
	}
	return announcement{}
}

func requireNoAnnouncement(t *testing.T, ch <-chan announcement) {
	t.Helper()
	select {
	case ann := <-ch:
		require.FailNow(t, "unexpected announcement", "from %d at %v", ann.who, ann.at)
	case <-time.After(50 * time.Millisecond):
	}
}

func requireWithin(t *testing.T, from, due time.Time, lo, hi time.Duration) {
	t.Helper()
	delay := due.Sub(from)
	require.GreaterOrEqual(t, delay, lo)
	require.Less(t, delay, hi)
}

func newTestAdvertiser(t *testing.T, fc clockwork.Clock) (*Advertiser, chan announcement) {
	sched := NewScheduler(WithClock(fc), WithSeed(1))
	ch := make(chan announcement, 8)
	adv := NewAdvertiser(sched, types.NewStamp(), func(ref types.Stamp) {
		ch <- announcement{ref: ref, at: fc.Now()}
	}, WithAdvertiserLogger(zaptest.NewLogger(t)))
	return adv, ch
}

func TestAdvertiserAnnouncesPeriodically(t *testing.T) {
	fc := clockwork.NewFakeClock()
	adv, ch := newTestAdvertiser(t, fc)
	group := types.NewStamp()
	lo, hi := NormalBounds(testLease)

	adv.Start(group, testLease)
	require.True(t, adv.Running())
	for range 5 {
		due := adv.NextDue()
		requireWithin(t, fc.Now(), due, lo, hi)

		fc.Advance(due.Sub(fc.Now()))
		ann := waitAnnouncement(t, ch)
		require.Equal(t, group, ann.ref)
		require.Equal(t, due, ann.at)
	}
}

func TestAdvertiserRequestFast(t *testing.T) {
	fc := clockwork.NewFakeClock()
	adv, ch := newTestAdvertiser(t, fc)
	adv.RequestFast()
	require.True(t, adv.NextDue().IsZero(), "stopped advertiser ignores requests")

	adv.Start(types.NewStamp(), testLease)
	fc.Advance(time.Second)
	adv.RequestFast()
	lo, hi := FastBounds(testLease)
	due := adv.NextDue()
	requireWithin(t, fc.Now(), due, lo, hi)

	fc.Advance(due.Sub(fc.Now()))
	waitAnnouncement(t, ch)

	// after the fast occurrence the regular rule applies again
	lo, hi = NormalBounds(testLease)
	requireWithin(t, fc.Now(), adv.NextDue(), lo, hi)
}

func TestAdvertiserObserve(t *testing.T) {
	fc := clockwork.NewFakeClock()
	adv, ch := newTestAdvertiser(t, fc)
	group := types.NewStamp()
	adv.Start(group, testLease)
	due := adv.NextDue()
	fc.Advance(time.Second)

	t.Run("own echo", func(t *testing.T) {
		adv.Observe(group, adv.self)
		require.Equal(t, due, adv.NextDue())
	})
	t.Run("other group", func(t *testing.T) {
		adv.Observe(types.NewStamp(), types.NewStamp())
		require.Equal(t, due, adv.NextDue())
	})
	t.Run("same group", func(t *testing.T) {
		adv.Observe(group, types.NewStamp())
		lo, hi := NormalBounds(testLease)
		requireWithin(t, fc.Now(), adv.NextDue(), lo, hi)
		require.NotEqual(t, due, adv.NextDue())

		// the discarded timer must not fire
		fc.Advance(due.Sub(fc.Now()))
		if adv.NextDue().After(due) {
			requireNoAnnouncement(t, ch)
		}
	})
}

func TestAdvertiserStop(t *testing.T) {
	fc := clockwork.NewFakeClock()
	adv, ch := newTestAdvertiser(t, fc)
	adv.Start(types.NewStamp(), testLease)
	adv.Stop()
	require.False(t, adv.Running())
	require.True(t, adv.NextDue().IsZero())
	fc.Advance(testLease)
	requireNoAnnouncement(t, ch)
	adv.Stop()
}

func TestAdvertiserSuppression(t *testing.T) {
	fc := clockwork.NewFakeClock()
	sched := NewScheduler(WithClock(fc), WithSeed(42))
	group := types.NewStamp()
	selves := [2]types.Stamp{types.NewStamp(), types.NewStamp()}
	ch := make(chan announcement, 8)

	var advs [2]*Advertiser
	for i := range advs {
		advs[i] = NewAdvertiser(sched, selves[i], func(ref types.Stamp) {
			// the announcement is delivered to every member, including the sender
			advs[0].Observe(ref, selves[i])
			advs[1].Observe(ref, selves[i])
			ch <- announcement{who: i, ref: ref, at: fc.Now()}
		})
		advs[i].Start(group, testLease)
	}

	lo, _ := NormalBounds(testLease)
	var (
		last  time.Time
		count [2]int
	)
	for range 100 {
		next := advs[0].NextDue()
		if due := advs[1].NextDue(); due.Before(next) {
			next = due
		}
		fc.Advance(next.Sub(fc.Now()))
		ann := waitAnnouncement(t, ch)
		count[ann.who]++
		if !last.IsZero() {
			require.GreaterOrEqual(t, ann.at.Sub(last), lo,
				"two announcements for one group closer than the regular interval")
		}
		last = ann.at

		// exactly one advertiser is due first
		require.NotEqual(t, advs[0].NextDue(), advs[1].NextDue())
	}
	require.Equal(t, 100, count[0]+count[1])
}
