package stats

import "context"

// Store records submission outcomes and exposes the accumulated counters to
// the admin API. Implementations must be safe for concurrent use.
type Store interface {
	RecordOutcome(ctx context.Context, kind string)
	Snapshot(ctx context.Context) (map[string]int64, error)
}
