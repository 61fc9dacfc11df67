package protection

import (
	"sync"
	"time"
)

// Tier is one bandwidth rule of a token bucket: Capacity tokens, topped up
// with RefillAmount tokens every Interval.
type Tier struct {
	Capacity     int64         `mapstructure:"capacity"`
	RefillAmount int64         `mapstructure:"refill_amount"`
	Interval     time.Duration `mapstructure:"interval"`
}

// TierSet pairs the short burst tier with the sustained daily tier enforced
// on every bucket of a dimension.
type TierSet struct {
	Burst     Tier `mapstructure:"burst"`
	Sustained Tier `mapstructure:"sustained"`
}

type tierState struct {
	def        Tier
	tokens     int64
	lastRefill time.Time
}

// bucket enforces all of its tiers simultaneously: a consume takes one token
// from every tier or from none.
type bucket struct {
	mu       sync.Mutex
	tiers    []tierState
	lastUsed time.Time
}

func newBucket(set TierSet, now time.Time) *bucket {
	defs := []Tier{set.Burst, set.Sustained}
	states := make([]tierState, 0, len(defs))
	for _, def := range defs {
		states = append(states, tierState{
			def:        def,
			tokens:     def.Capacity,
			lastRefill: now,
		})
	}
	return &bucket{tiers: states, lastUsed: now}
}

func (b *bucket) tryConsume(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastUsed = now
	for i := range b.tiers {
		b.tiers[i].refill(now)
	}
	for i := range b.tiers {
		if b.tiers[i].tokens < 1 {
			return false
		}
	}
	for i := range b.tiers {
		b.tiers[i].tokens--
	}
	return true
}

func (b *bucket) idleSince(now time.Time) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return now.Sub(b.lastUsed)
}

// refill applies interval-based refills: RefillAmount tokens are added for
// every full Interval elapsed since the last refill, capped at Capacity.
func (t *tierState) refill(now time.Time) {
	if t.def.Interval <= 0 {
		return
	}
	elapsed := now.Sub(t.lastRefill)
	intervals := int64(elapsed / t.def.Interval)
	if intervals <= 0 {
		return
	}
	t.tokens += intervals * t.def.RefillAmount
	if t.tokens > t.def.Capacity {
		t.tokens = t.def.Capacity
	}
	t.lastRefill = t.lastRefill.Add(time.Duration(intervals) * t.def.Interval)
}
