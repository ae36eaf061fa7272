package conversion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock steps time manually so cool-down transitions are deterministic.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestBreaker(clock *fakeClock) *Breaker {
	return NewBreaker(BreakerConfig{
		FailureThreshold: 50,
		WindowSize:       10,
		MinRequests:      5,
		CoolDown:         30 * time.Second,
		Now:              clock.Now,
	})
}

func TestBreakerStartsClosed(t *testing.T) {
	b := NewBreaker(BreakerConfig{})
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	b := newTestBreaker(clock)

	// Four failures are below the minimum request volume.
	for i := 0; i < 4; i++ {
		assert.True(t, b.Allow())
		b.RecordFailure()
	}
	assert.Equal(t, StateClosed, b.State())

	// The fifth failure reaches the volume and the threshold.
	assert.True(t, b.Allow())
	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreakerStaysClosedUnderThreshold(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	b := newTestBreaker(clock)

	// 4 failures mixed into 6 successes over the 10-call window is 40%.
	for i := 0; i < 6; i++ {
		b.RecordSuccess()
	}
	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreakerMixedWindowAtThreshold(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	b := newTestBreaker(clock)

	// 5 failures and 5 successes is exactly 50%, which opens the breaker.
	for i := 0; i < 5; i++ {
		b.RecordSuccess()
	}
	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	b := newTestBreaker(clock)

	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	assert.Equal(t, StateOpen, b.State())

	// Cool-down has not elapsed: calls are short-circuited.
	clock.Advance(10 * time.Second)
	assert.False(t, b.Allow())

	// Cool-down elapsed: exactly one probe goes through.
	clock.Advance(25 * time.Second)
	assert.True(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())
	assert.False(t, b.Allow())

	// A successful probe closes the breaker and resets the window.
	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	b := newTestBreaker(clock)

	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	clock.Advance(31 * time.Second)
	assert.True(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())

	// The cool-down restarted at the failed probe.
	clock.Advance(29 * time.Second)
	assert.False(t, b.Allow())
	clock.Advance(2 * time.Second)
	assert.True(t, b.Allow())
}

func TestBreakerSuccessResetClearsOldFailures(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	b := newTestBreaker(clock)

	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	clock.Advance(31 * time.Second)
	assert.True(t, b.Allow())
	b.RecordSuccess()

	// Old failures are gone: it takes a fresh run of failures to reopen.
	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	assert.Equal(t, StateClosed, b.State())
	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
}
