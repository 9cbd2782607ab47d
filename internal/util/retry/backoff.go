package retry

import (
	"math"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// Backoff describes an exponential delay schedule with jitter and a ceiling.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64
	// Jitter is the maximum fraction added on top of each delay
	Jitter float64
}

// Delay returns the delay for the given zero-based attempt.
// The result never exceeds Max, jitter included.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	factor := b.Factor
	if factor < 1 {
		factor = 1
	}

	d := float64(b.Initial) * math.Pow(factor, float64(attempt))
	if b.Max > 0 && d > float64(b.Max) {
		d = float64(b.Max)
	}

	delay := time.Duration(d)
	if b.Jitter > 0 {
		delay = wait.Jitter(delay, b.Jitter)
	}
	if b.Max > 0 && delay > b.Max {
		delay = b.Max
	}
	return delay
}

// Tracker counts consecutive failures per key and hands out backoff delays.
// It is safe for concurrent use.
type Tracker struct {
	backoff Backoff

	mu       sync.Mutex
	attempts map[string]int
}

// NewTracker creates a tracker using the given schedule.
func NewTracker(b Backoff) *Tracker {
	return &Tracker{
		backoff:  b,
		attempts: make(map[string]int),
	}
}

// Next records a failure for key and returns the delay before the next attempt.
func (t *Tracker) Next(key string) time.Duration {
	t.mu.Lock()
	attempt := t.attempts[key]
	t.attempts[key] = attempt + 1
	t.mu.Unlock()

	return t.backoff.Delay(attempt)
}

// Reset forgets the failure history of key.
func (t *Tracker) Reset(key string) {
	t.mu.Lock()
	delete(t.attempts, key)
	t.mu.Unlock()
}

// Attempts returns the number of consecutive failures recorded for key.
func (t *Tracker) Attempts(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts[key]
}
