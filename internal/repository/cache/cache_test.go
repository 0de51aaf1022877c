package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/itsatony/w4b_v3/server/sensorhub/internal/models"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/testutil"
)

type stubLookup struct {
	sensors map[int64]*models.Sensor
	calls   [][]int64
	err     error
}

func (s *stubLookup) ListByIDs(_ context.Context, ids []int64) (map[int64]*models.Sensor, error) {
	s.calls = append(s.calls, append([]int64(nil), ids...))
	if s.err != nil {
		return nil, s.err
	}
	found := map[int64]*models.Sensor{}
	for _, id := range ids {
		if sensor, ok := s.sensors[id]; ok {
			found[id] = sensor
		}
	}
	return found, nil
}

func newStub() *stubLookup {
	return &stubLookup{sensors: map[int64]*models.Sensor{
		1: {ID: 1, Name: "one", SensorType: 1},
		2: {ID: 2, Name: "two", SensorType: 2},
	}}
}

func TestSensorCache_MissThenHit(t *testing.T) {
	mr, client := testutil.SetupRedis(t)
	stub := newStub()
	c := NewSensorCache(client, stub, time.Minute)
	ctx := context.Background()

	found, err := c.ListByIDs(ctx, []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("ListByIDs() error = %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("ListByIDs() = %d sensors, want 2", len(found))
	}
	if !mr.Exists("sensorhub:sensor:1") || mr.Exists("sensorhub:sensor:3") {
		t.Errorf("cache keys = %v, want sensor 1 cached and 3 not", mr.Keys())
	}
	if ttl := mr.TTL("sensorhub:sensor:2"); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}

	found, err = c.ListByIDs(ctx, []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("ListByIDs() second call error = %v", err)
	}
	if found[2].Name != "two" {
		t.Errorf("cached sensor 2 = %+v", found[2])
	}
	if len(stub.calls) != 2 || len(stub.calls[1]) != 1 || stub.calls[1][0] != 3 {
		t.Errorf("lookup calls = %v, want second call only for id 3", stub.calls)
	}
}

func TestSensorCache_Invalidate(t *testing.T) {
	mr, client := testutil.SetupRedis(t)
	c := NewSensorCache(client, newStub(), time.Minute)
	ctx := context.Background()

	if _, err := c.ListByIDs(ctx, []int64{1}); err != nil {
		t.Fatalf("ListByIDs() error = %v", err)
	}
	if err := c.Invalidate(ctx, 1); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if mr.Exists("sensorhub:sensor:1") {
		t.Error("sensor 1 still cached after Invalidate()")
	}
}

func TestSensorCache_RedisDownFallsBack(t *testing.T) {
	mr, client := testutil.SetupRedis(t)
	stub := newStub()
	c := NewSensorCache(client, stub, time.Minute)
	mr.Close()

	found, err := c.ListByIDs(context.Background(), []int64{1, 2})
	if err != nil {
		t.Fatalf("ListByIDs() with redis down error = %v", err)
	}
	if len(found) != 2 {
		t.Errorf("ListByIDs() = %d sensors, want 2", len(found))
	}
}

func TestSensorCache_LookupErrorPropagates(t *testing.T) {
	_, client := testutil.SetupRedis(t)
	stub := newStub()
	stub.err = errors.New("db gone")
	c := NewSensorCache(client, stub, time.Minute)

	if _, err := c.ListByIDs(context.Background(), []int64{1}); err == nil {
		t.Error("ListByIDs() error = nil, want lookup error")
	}
}
