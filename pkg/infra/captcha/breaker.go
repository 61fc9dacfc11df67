package captcha

import (
	"github.com/sony/gobreaker"
)

// Breaker settings for the siteverify endpoint. Once the provider fails
// this many times in a row, verification errors immediately instead of
// holding every submission open for the full HTTP timeout. After the
// cooldown a couple of trial requests decide whether it closes again.
const (
	breakerTripThreshold  = 5
	breakerHalfOpenProbes = 2
)

type providerBreaker struct {
	cb *gobreaker.CircuitBreaker
}

func newProviderBreaker() *providerBreaker {
	return &providerBreaker{
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "turnstile",
			MaxRequests: breakerHalfOpenProbes,
			Timeout:     breakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerTripThreshold
			},
		}),
	}
}

func (b *providerBreaker) call(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}
