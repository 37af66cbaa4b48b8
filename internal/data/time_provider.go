package data

import (
	"sync"
	"time"
)

// TimeProvider supplies the clock used for queue timestamps and eligibility checks.
type TimeProvider interface {
	Now() time.Time
}

// storedPrecision is the finest resolution both Postgres timestamptz and the
// SQLite text format keep. Clocks round to it so a value read back compares equal.
const storedPrecision = time.Microsecond

// RealTimeProvider reads the system clock.
type RealTimeProvider struct{}

// Now returns the current UTC time at stored precision.
func (RealTimeProvider) Now() time.Time {
	return time.Now().UTC().Truncate(storedPrecision)
}

// FixedTimeProvider is a manually advanced clock for tests. It is safe for concurrent use.
type FixedTimeProvider struct {
	mu  sync.RWMutex
	now time.Time
}

// NewFixedTimeProvider starts the clock at t.
func NewFixedTimeProvider(t time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{now: t.UTC().Truncate(storedPrecision)}
}

func (f *FixedTimeProvider) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.now
}

// SetTime moves the clock to t.
func (f *FixedTimeProvider) SetTime(t time.Time) {
	f.mu.Lock()
	f.now = t.UTC().Truncate(storedPrecision)
	f.mu.Unlock()
}

// AddTime advances the clock by d. Negative values move it back.
func (f *FixedTimeProvider) AddTime(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d).Truncate(storedPrecision)
	f.mu.Unlock()
}
