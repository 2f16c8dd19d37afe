package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gtanker/ercot-spp-sellback/internal/models"
)

// snapshotKey holds the JSON-encoded latest snapshot. One key: this service
// serves exactly one zone and only the last-known price.
const snapshotKey = "ercot:snapshot"

// ErrNoSnapshot is returned when no snapshot has been cached yet.
var ErrNoSnapshot = errors.New("no snapshot in cache")

// SnapshotCache mirrors the latest published snapshot into Redis so
// out-of-process consumers can read current-price state without hitting
// this service's API.
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotCache creates a SnapshotCache. Entries expire after ttl so a
// dead poller cannot serve arbitrarily stale prices from the cache; ttl of
// zero disables expiry.
func NewSnapshotCache(addr, password string, db int, ttl time.Duration) *SnapshotCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &SnapshotCache{rdb: rdb, ttl: ttl}
}

// Ping verifies the Redis connection.
func (c *SnapshotCache) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// SetSnapshot stores the latest snapshot.
func (c *SnapshotCache) SetSnapshot(ctx context.Context, snap *models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := c.rdb.Set(ctx, snapshotKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache snapshot: %w", err)
	}
	return nil
}

// GetSnapshot retrieves the cached snapshot, or ErrNoSnapshot.
func (c *SnapshotCache) GetSnapshot(ctx context.Context) (*models.Snapshot, error) {
	data, err := c.rdb.Get(ctx, snapshotKey).Bytes()
	if err == redis.Nil {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached snapshot: %w", err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached snapshot: %w", err)
	}
	return &snap, nil
}

// Close closes the Redis client.
func (c *SnapshotCache) Close() error {
	return c.rdb.Close()
}
