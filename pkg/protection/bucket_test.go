package protection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testTierSet = TierSet{
	Burst:     Tier{Capacity: 2, RefillAmount: 2, Interval: 10 * time.Minute},
	Sustained: Tier{Capacity: 6, RefillAmount: 6, Interval: 24 * time.Hour},
}

func TestBucket_BurstBoundary(t *testing.T) {
	now := time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)
	b := newBucket(testTierSet, now)

	assert.True(t, b.tryConsume(now))
	assert.True(t, b.tryConsume(now))
	assert.False(t, b.tryConsume(now), "third consume within the burst window must fail")
}

func TestBucket_RefillsAfterInterval(t *testing.T) {
	now := time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)
	b := newBucket(testTierSet, now)

	assert.True(t, b.tryConsume(now))
	assert.True(t, b.tryConsume(now))
	assert.False(t, b.tryConsume(now))

	// Just shy of the burst interval: still empty.
	assert.False(t, b.tryConsume(now.Add(10*time.Minute-time.Second)))

	// One full interval later the burst tier is topped back up.
	assert.True(t, b.tryConsume(now.Add(10*time.Minute)))
}

func TestBucket_SustainedTierCapsBurstRefills(t *testing.T) {
	now := time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)
	b := newBucket(testTierSet, now)

	// Drain the sustained tier (capacity 6) across burst windows.
	consumed := 0
	for window := 0; window < 3; window++ {
		at := now.Add(time.Duration(window) * 10 * time.Minute)
		for b.tryConsume(at) {
			consumed++
		}
	}
	assert.Equal(t, 6, consumed)

	// Burst has refilled, sustained has not: still rejected.
	assert.False(t, b.tryConsume(now.Add(30*time.Minute)))

	// A day later both tiers allow traffic again.
	assert.True(t, b.tryConsume(now.Add(24*time.Hour)))
}

func TestBucket_RefillCappedAtCapacity(t *testing.T) {
	now := time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)
	b := newBucket(testTierSet, now)

	// Many idle intervals must not accumulate beyond capacity.
	later := now.Add(100 * 10 * time.Minute)
	assert.True(t, b.tryConsume(later))
	assert.True(t, b.tryConsume(later))
	assert.False(t, b.tryConsume(later))
}

func TestBucket_IdleSince(t *testing.T) {
	now := time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)
	b := newBucket(testTierSet, now)

	b.tryConsume(now)
	assert.Equal(t, time.Hour, b.idleSince(now.Add(time.Hour)))
}
