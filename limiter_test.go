package cs4teachers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(max int, window time.Duration) (*LoginLimiter, *time.Time) {
	l := NewLoginLimiter(max, window)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }
	return l, &clock
}

func TestLoginLimiterBlocksAfterMax(t *testing.T) {
	l, _ := newTestLimiter(2, time.Minute)
	defer l.Stop()
	ip := "203.0.113.10"

	assert.True(t, l.Check(ip))
	l.Record(ip)
	assert.True(t, l.Check(ip))
	l.Record(ip)
	assert.False(t, l.Check(ip))
}

func TestLoginLimiterResetsAfterWindow(t *testing.T) {
	l, clock := newTestLimiter(1, time.Minute)
	defer l.Stop()
	ip := "203.0.113.20"

	l.Record(ip)
	assert.False(t, l.Check(ip))

	*clock = clock.Add(61 * time.Second)
	assert.True(t, l.Check(ip))
}

func TestLoginLimiterIsPerIP(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)
	defer l.Stop()

	l.Record("203.0.113.30")
	assert.False(t, l.Check("203.0.113.30"))
	assert.True(t, l.Check("203.0.113.31"))
}

func TestLoginLimiterReset(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)
	defer l.Stop()

	l.Record("203.0.113.40")
	l.Reset("203.0.113.40")
	assert.True(t, l.Check("203.0.113.40"))
}

func TestLoginLimiterSweepDropsExpired(t *testing.T) {
	l, clock := newTestLimiter(3, time.Minute)
	defer l.Stop()

	l.Record("203.0.113.50")
	*clock = clock.Add(2 * time.Minute)
	l.Record("203.0.113.51")
	l.sweep()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.attempts, "203.0.113.50")
	assert.Contains(t, l.attempts, "203.0.113.51")
}

func TestLoginLimiterStopIsIdempotent(t *testing.T) {
	l := NewLoginLimiter(1, time.Minute)
	l.Stop()
	l.Stop()
}
