package protection

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Limiter is the only surface the validator needs from the rate limiter.
type Limiter interface {
	TryConsume(dimension Dimension, hashedKey string) bool
}

const registryShards = 32

// Registry is a sharded key -> bucket store with lazy bucket creation.
// Shards keep concurrent traffic under unrelated identifiers from
// serializing on a single lock.
type Registry struct {
	shards       [registryShards]registryShard
	tiers        map[Dimension]TierSet
	timeProvider func() time.Time

	janitorOnce sync.Once
	janitorStop chan struct{}
}

type registryShard struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

type RegistryOpts struct {
	TimeProvider func() time.Time
}

func NewRegistry(tiers map[Dimension]TierSet, opts *RegistryOpts) *Registry {
	timeProvider := time.Now
	if opts != nil && opts.TimeProvider != nil {
		timeProvider = opts.TimeProvider
	}

	r := &Registry{
		tiers:        tiers,
		timeProvider: timeProvider,
		janitorStop:  make(chan struct{}),
	}
	for i := range r.shards {
		r.shards[i].buckets = make(map[string]*bucket)
	}
	return r
}

// TryConsume takes one token from every tier of the key's bucket, creating
// the bucket on first use. It returns false, without consuming anything,
// when any tier is empty.
func (r *Registry) TryConsume(dimension Dimension, hashedKey string) bool {
	set, ok := r.tiers[dimension]
	if !ok {
		// Unknown dimensions are not limited rather than silently sharing
		// a default bucket.
		return true
	}

	now := r.timeProvider()
	key := string(dimension) + ":" + hashedKey
	shard := &r.shards[shardIndex(key)]

	shard.mu.Lock()
	defer shard.mu.Unlock()

	b, ok := shard.buckets[key]
	if !ok {
		b = newBucket(set, now)
		shard.buckets[key] = b
	}

	// Consume under the shard lock: the janitor sweeps under the same
	// lock, so it can never evict a bucket between lookup and consume
	// and strand a spent token on an orphan.
	return b.tryConsume(now)
}

// StartJanitor evicts buckets that have been idle for longer than the
// longest tier interval of any dimension. A bucket full of refilled tokens
// is indistinguishable from a fresh one, so eviction after that point never
// changes observable rate-limit behavior. Callers that want the original
// grow-forever semantics simply never start it.
func (r *Registry) StartJanitor(sweepEvery time.Duration) {
	r.janitorOnce.Do(func() {
		go r.janitorLoop(sweepEvery, r.maxInterval())
	})
}

func (r *Registry) StopJanitor() {
	close(r.janitorStop)
}

func (r *Registry) janitorLoop(sweepEvery, idleAfter time.Duration) {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-r.janitorStop:
			return
		case <-ticker.C:
			r.sweep(idleAfter)
		}
	}
}

func (r *Registry) sweep(idleAfter time.Duration) {
	now := r.timeProvider()
	for i := range r.shards {
		shard := &r.shards[i]
		shard.mu.Lock()
		for key, b := range shard.buckets {
			if b.idleSince(now) > idleAfter {
				delete(shard.buckets, key)
			}
		}
		shard.mu.Unlock()
	}
}

func (r *Registry) maxInterval() time.Duration {
	max := time.Duration(0)
	for _, set := range r.tiers {
		for _, tier := range []Tier{set.Burst, set.Sustained} {
			if tier.Interval > max {
				max = tier.Interval
			}
		}
	}
	return max
}

func (r *Registry) bucketCount() int {
	count := 0
	for i := range r.shards {
		shard := &r.shards[i]
		shard.mu.Lock()
		count += len(shard.buckets)
		shard.mu.Unlock()
	}
	return count
}

func shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % registryShards)
}

// DefaultTierSets returns the built-in per-dimension limits. Identity is the
// tightest cap (a repeat name+email pair is the strongest abuse signal) and
// name the loosest (names collide legitimately).
func DefaultTierSets() map[Dimension]TierSet {
	return map[Dimension]TierSet{
		DimensionIP: {
			Burst:     Tier{Capacity: 3, RefillAmount: 3, Interval: 10 * time.Minute},
			Sustained: Tier{Capacity: 10, RefillAmount: 10, Interval: 24 * time.Hour},
		},
		DimensionEmail: {
			Burst:     Tier{Capacity: 2, RefillAmount: 2, Interval: 10 * time.Minute},
			Sustained: Tier{Capacity: 8, RefillAmount: 8, Interval: 24 * time.Hour},
		},
		DimensionName: {
			Burst:     Tier{Capacity: 4, RefillAmount: 4, Interval: 10 * time.Minute},
			Sustained: Tier{Capacity: 12, RefillAmount: 12, Interval: 24 * time.Hour},
		},
		DimensionIdentity: {
			Burst:     Tier{Capacity: 2, RefillAmount: 2, Interval: 10 * time.Minute},
			Sustained: Tier{Capacity: 6, RefillAmount: 6, Interval: 24 * time.Hour},
		},
	}
}

// TierSetsFromSettings overlays configured limits on the defaults. Settings
// use the generic map shape produced by the config loader, e.g.
//
//	limits:
//	  email:
//	    burst: {capacity: 2, refill_amount: 2, interval: 10m}
func TierSetsFromSettings(settings map[string]interface{}) (map[Dimension]TierSet, error) {
	tiers := DefaultTierSets()
	for name, raw := range settings {
		dimension := Dimension(name)
		if _, ok := tiers[dimension]; !ok {
			return nil, fmt.Errorf("unknown rate limit dimension %q", name)
		}
		set := tiers[dimension]
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
			Result:     &set,
		})
		if err != nil {
			return nil, fmt.Errorf("building decoder for dimension %q: %w", name, err)
		}
		if err := decoder.Decode(raw); err != nil {
			return nil, fmt.Errorf("invalid rate limit settings for dimension %q: %w", name, err)
		}
		tiers[dimension] = set
	}
	if err := validateStrictness(tiers); err != nil {
		return nil, err
	}
	return tiers, nil
}

// validateStrictness enforces the relative ordering of dimension caps:
// identity <= email <= ip <= name, on both tiers.
func validateStrictness(tiers map[Dimension]TierSet) error {
	order := []Dimension{DimensionIdentity, DimensionEmail, DimensionIP, DimensionName}
	for i := 0; i < len(order)-1; i++ {
		tighter, looser := tiers[order[i]], tiers[order[i+1]]
		if tighter.Burst.Capacity > looser.Burst.Capacity ||
			tighter.Sustained.Capacity > looser.Sustained.Capacity {
			return fmt.Errorf(
				"rate limit for %q must be at least as strict as for %q",
				order[i], order[i+1],
			)
		}
	}
	return nil
}
