package counter

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const keyFileStats = "gameshelf:fs"

// redisRepository keeps download counters in a Redis hash so they survive
// restarts. The hash field is the stable id of an entry (sha1 of its
// relative path), the value an integer counter.
type redisRepository struct {
	cl  *redis.Client
	log *slog.Logger
}

func NewRedisRepository(cl *redis.Client, log *slog.Logger) *redisRepository {
	return &redisRepository{
		cl:  cl,
		log: log.With(slog.String("item", "CounterRepository")),
	}
}

func (r *redisRepository) Inc(ctx context.Context, id string) (int64, error) {
	count, err := r.cl.HIncrBy(ctx, keyFileStats, id, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("cannot increment counter %s: %w", id, err)
	}

	return count, nil
}

func (r *redisRepository) All(ctx context.Context) (map[string]int64, error) {
	raw, err := r.cl.HGetAll(ctx, keyFileStats).Result()
	if err != nil {
		return nil, fmt.Errorf("cannot get counters: %w", err)
	}

	counters := make(map[string]int64, len(raw))
	for id, value := range raw {
		count, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			r.log.Error("Cannot parse counter value", slog.String("id", id), slog.Any("error", err))

			continue
		}

		counters[id] = count
	}

	return counters, nil
}
