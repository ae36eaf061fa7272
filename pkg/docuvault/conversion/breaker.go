package conversion

import (
	"sync"
	"time"
)

// BreakerState is the circuit breaker's externally visible state.
type BreakerState string

const (
	// StateClosed passes calls through while recording their results.
	StateClosed BreakerState = "closed"
	// StateOpen short-circuits every call until the cool-down elapses.
	StateOpen BreakerState = "open"
	// StateHalfOpen admits a single probe call after the cool-down.
	StateHalfOpen BreakerState = "half-open"
)

// BreakerConfig tunes the circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the failure percentage over the window at which the
	// breaker opens (default 50).
	FailureThreshold int
	// WindowSize is how many recent call results the rolling window holds
	// (default 10).
	WindowSize int
	// MinRequests is the minimum number of recorded calls before the
	// threshold is evaluated, so a single early failure cannot open the
	// breaker (default 5).
	MinRequests int
	// CoolDown is how long the breaker stays open before admitting a probe
	// (default 30s).
	CoolDown time.Duration
	// Now overrides the clock; tests use it to step through the cool-down.
	Now func() time.Time
}

// Breaker is a circuit breaker over a sliding window of call results. All
// state lives behind one mutex because every concurrent Convert call shares
// the same instance.
type Breaker struct {
	mu sync.Mutex

	state    BreakerState
	openedAt time.Time

	results []bool // ring buffer of recent results, true = failure
	next    int
	count   int

	failureThreshold int
	minRequests      int
	coolDown         time.Duration
	now              func() time.Time
}

// NewBreaker creates a closed breaker with the given configuration.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 50
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 10
	}
	if cfg.MinRequests <= 0 {
		cfg.MinRequests = 5
	}
	if cfg.CoolDown <= 0 {
		cfg.CoolDown = 30 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Breaker{
		state:            StateClosed,
		results:          make([]bool, cfg.WindowSize),
		failureThreshold: cfg.FailureThreshold,
		minRequests:      cfg.MinRequests,
		coolDown:         cfg.CoolDown,
		now:              cfg.Now,
	}
}

// Allow reports whether a call may go downstream. When the cool-down of an
// open breaker has elapsed, the calling goroutine becomes the half-open probe;
// other callers keep being rejected until the probe resolves.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(b.openedAt) >= b.coolDown {
			b.state = StateHalfOpen
			return true
		}
		return false
	case StateHalfOpen:
		// Probe in flight.
		return false
	}
	return false
}

// RecordSuccess records a successful downstream call. A successful half-open
// probe closes the breaker and resets the window.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.state = StateClosed
		b.reset()
		return
	}
	b.record(false)
}

// RecordFailure records a failed downstream call. A failed half-open probe
// reopens the breaker and restarts the cool-down; in the closed state the
// breaker opens once the windowed failure percentage reaches the threshold.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.open()
		return
	}
	if b.state != StateClosed {
		return
	}

	b.record(true)
	if b.count >= b.minRequests && b.failurePercent() >= b.failureThreshold {
		b.open()
	}
}

// State returns the breaker's current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) record(failure bool) {
	b.results[b.next] = failure
	b.next = (b.next + 1) % len(b.results)
	if b.count < len(b.results) {
		b.count++
	}
}

func (b *Breaker) failurePercent() int {
	if b.count == 0 {
		return 0
	}
	failures := 0
	for i := 0; i < b.count; i++ {
		if b.results[i] {
			failures++
		}
	}
	return failures * 100 / b.count
}

func (b *Breaker) open() {
	b.state = StateOpen
	b.openedAt = b.now()
	b.reset()
}

func (b *Breaker) reset() {
	for i := range b.results {
		b.results[i] = false
	}
	b.next = 0
	b.count = 0
}
