package lease

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIntervalBounds(t *testing.T) {
	sched := NewScheduler(WithSeed(101))
	for _, lease := range []time.Duration{
		50 * time.Millisecond,
		time.Second,
		30 * time.Second,
		10 * time.Minute,
	} {
		lo, hi := NormalBounds(lease)
		flo, fhi := FastBounds(lease)
		for range 1000 {
			d := sched.Interval(lease, false)
			require.GreaterOrEqual(t, d, lo)
			require.Less(t, d, hi)

			d = sched.Interval(lease, true)
			require.GreaterOrEqual(t, d, flo)
			require.Less(t, d, fhi)
		}
	}
}

func TestIntervalScenario(t *testing.T) {
	lo, hi := NormalBounds(30 * time.Second)
	require.Equal(t, 6000*time.Millisecond, lo)
	require.Equal(t, 12000*time.Millisecond, hi)

	lo, hi = FastBounds(30 * time.Second)
	require.Equal(t, 600*time.Millisecond, lo)
	require.Equal(t, 1200*time.Millisecond, hi)
}

func TestSeededSchedulersAgree(t *testing.T) {
	a := NewScheduler(WithSeed(5))
	b := NewScheduler(WithSeed(5))
	for range 100 {
		require.Equal(t, a.Interval(time.Minute, false), b.Interval(time.Minute, false))
	}
}

func TestJitter(t *testing.T) {
	sched := NewScheduler(WithSeed(9))
	base, spread := 10*time.Minute, time.Minute
	for range 1000 {
		d := sched.Jitter(base, spread)
		require.GreaterOrEqual(t, d, base-spread)
		require.Less(t, d, base+spread)
	}
	require.Equal(t, base, sched.Jitter(base, 0))
}
