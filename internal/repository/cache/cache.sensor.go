package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/itsatony/w4b_v3/server/sensorhub/internal/models"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/repository"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

const keyPrefix = "sensorhub:sensor:"

// SensorCache is a read-through redis cache in front of a SensorLookup.
// Only existing sensors are cached, so a sensor created after a miss is seen on the next lookup.
type SensorCache struct {
	client *redis.Client
	next   repository.SensorLookup
	ttl    time.Duration
}

func NewSensorCache(client *redis.Client, next repository.SensorLookup, ttl time.Duration) *SensorCache {
	return &SensorCache{client: client, next: next, ttl: ttl}
}

func sensorKey(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}

// ListByIDs serves hits from redis and resolves misses through the wrapped lookup.
// A redis failure degrades to a direct lookup.
func (c *SensorCache) ListByIDs(ctx context.Context, ids []int64) (map[int64]*models.Sensor, error) {
	if len(ids) == 0 {
		return map[int64]*models.Sensor{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sensorKey(id)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		nuts.L.Warnf("[SensorCache] MGET failed, falling back to database: %v", err)
		return c.next.ListByIDs(ctx, ids)
	}

	found := make(map[int64]*models.Sensor, len(ids))
	missing := make([]int64, 0, len(ids))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		sensor := &models.Sensor{}
		if err := json.Unmarshal([]byte(raw), sensor); err != nil {
			missing = append(missing, ids[i])
			continue
		}
		found[ids[i]] = sensor
	}
	if len(missing) == 0 {
		return found, nil
	}

	loaded, err := c.next.ListByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	if err := c.store(ctx, loaded); err != nil {
		nuts.L.Warnf("[SensorCache] Failed to populate cache: %v", err)
	}
	for id, sensor := range loaded {
		found[id] = sensor
	}
	return found, nil
}

func (c *SensorCache) store(ctx context.Context, sensors map[int64]*models.Sensor) error {
	if len(sensors) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	for id, sensor := range sensors {
		data, err := json.Marshal(sensor)
		if err != nil {
			return fmt.Errorf("json.Marshal: %w", err)
		}
		pipe.Set(ctx, sensorKey(id), data, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("pipe.Exec: %w", err)
	}
	return nil
}

// Invalidate drops the cached entries of the given sensors.
func (c *SensorCache) Invalidate(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sensorKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("client.Del: %w", err)
	}
	return nil
}
