package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// UptimeStore keeps the last observed host uptime under a per-host key.
type UptimeStore struct {
	rdb *redis.Client
	key string
}

// NewUptimeStore creates a Redis-backed uptime record for the given host.
func NewUptimeStore(client *Client, hostname string) *UptimeStore {
	return &UptimeStore{rdb: client.rdb, key: uptimeKey(hostname)}
}

func uptimeKey(hostname string) string {
	return fmt.Sprintf("nodewatch:uptime:%s", hostname)
}

// Load returns the stored uptime in seconds. found is false when no record exists.
func (s *UptimeStore) Load(ctx context.Context) (seconds float64, found bool, err error) {
	val, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get failed: %w", err)
	}

	seconds, err = strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid uptime record %q: %w", val, err)
	}
	return seconds, true, nil
}

// Save overwrites the stored uptime. The key never expires.
func (s *UptimeStore) Save(ctx context.Context, seconds float64) error {
	if err := s.rdb.Set(ctx, s.key, strconv.FormatFloat(seconds, 'f', -1, 64), 0).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}
