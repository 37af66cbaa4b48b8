package data

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealTimeProvider_UTCMicroseconds(t *testing.T) {
	now := RealTimeProvider{}.Now()
	assert.Equal(t, time.UTC, now.Location())
	assert.Zero(t, now.Nanosecond()%int(time.Microsecond))
}

func TestFixedTimeProvider(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 1500, time.FixedZone("EST", -5*3600))
	clock := NewFixedTimeProvider(start)
	assert.Equal(t, time.Date(2024, 1, 1, 17, 0, 0, 1000, time.UTC), clock.Now())

	clock.AddTime(time.Hour)
	assert.Equal(t, 18, clock.Now().Hour())

	clock.SetTime(start.Add(-time.Hour))
	assert.Equal(t, 16, clock.Now().Hour())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.AddTime(time.Minute)
			_ = clock.Now()
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, clock.Now().Minute())
}
