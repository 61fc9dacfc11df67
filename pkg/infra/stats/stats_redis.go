package stats

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const outcomesKey = "formshield:stats:outcomes"

// RedisStore keeps outcome counters in a Redis hash so they survive restarts
// and aggregate across replicas. Recording is best effort: a Redis hiccup is
// logged and never fails the submission path.
type RedisStore struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisStore(client *redis.Client, logger *logrus.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

func (s *RedisStore) RecordOutcome(ctx context.Context, kind string) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.client.HIncrBy(ctx, outcomesKey, kind, 1).Err(); err != nil {
		s.logger.WithError(err).Warn("failed to record submission outcome")
	}
}

func (s *RedisStore) Snapshot(ctx context.Context) (map[string]int64, error) {
	raw, err := s.client.HGetAll(ctx, outcomesKey).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for kind, value := range raw {
		count, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		out[kind] = count
	}
	return out, nil
}
