package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/itsatony/w4b_v3/server/sensorhub/internal/errors"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/models"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/repository"
)

// BulkCreator persists a batch of events atomically.
type BulkCreator interface {
	BulkCreate(ctx context.Context, events []*models.Event) (int, error)
}

// Writer turns validated records into events for the sensors that resolved.
type Writer struct {
	events  BulkCreator
	recheck repository.SensorLookup
	now     func() time.Time
}

func NewWriter(events BulkCreator) *Writer {
	return &Writer{events: events, now: func() time.Time { return time.Now().UTC() }}
}

// WithRecheck sets the lookup consulted once when the store rejects the batch
// because a resolved sensor no longer exists. It should bypass any cache.
func (w *Writer) WithRecheck(lookup repository.SensorLookup) *Writer {
	w.recheck = lookup
	return w
}

// Write inserts one event per record whose sensor is in sensors and reports the
// rest, in input order. Nothing is written when no record resolved.
func (w *Writer) Write(ctx context.Context, records []Record, sensors map[int64]*models.Sensor) (int, []string, error) {
	return w.write(ctx, records, sensors, w.recheck != nil)
}

func (w *Writer) write(ctx context.Context, records []Record, sensors map[int64]*models.Sensor, recheck bool) (int, []string, error) {
	events := make([]*models.Event, 0, len(records))
	missing := make([]string, 0)
	now := w.now()

	for _, rec := range records {
		sensor, ok := sensors[rec.SensorID]
		if !ok || sensor == nil {
			missing = append(missing, fmt.Sprintf("Sensor ID %d does not exist. Event '%s' skipped.", rec.SensorID, rec.Name))
			continue
		}
		event := &models.Event{
			SensorID:    sensor.ID,
			Name:        rec.Name,
			Temperature: rec.Temperature,
			Humidity:    rec.Humidity,
			CreatedAt:   now,
		}
		if err := event.Validate(); err != nil {
			return 0, nil, fmt.Errorf("event %q for sensor %d: %w", rec.Name, rec.SensorID, err)
		}
		events = append(events, event)
	}

	if len(events) == 0 {
		return 0, missing, nil
	}

	inserted, err := w.events.BulkCreate(ctx, events)
	if err != nil {
		if recheck && sensorVanished(err) {
			fresh, lookupErr := w.recheck.ListByIDs(ctx, eventSensorIDs(events))
			if lookupErr != nil {
				return 0, nil, lookupErr
			}
			return w.write(ctx, records, fresh, false)
		}
		return 0, nil, err
	}
	return inserted, missing, nil
}

// sensorVanished matches the store's foreign key rejection of events.sensor_id.
func sensorVanished(err error) bool {
	apiErr, ok := errors.As(err)
	return ok && apiErr.HasField("sensor")
}

func eventSensorIDs(events []*models.Event) []int64 {
	seen := make(map[int64]bool, len(events))
	ids := make([]int64, 0, len(events))
	for _, e := range events {
		if !seen[e.SensorID] {
			seen[e.SensorID] = true
			ids = append(ids, e.SensorID)
		}
	}
	return ids
}
