package cleanup

import (
	"context"
	"fmt"
	"strconv"

	"github.com/itsatony/w4b_v3/server/sensorhub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Event names emitted after a successful cleanup.
const (
	EventSensorDeleted = "sensor.deleted"
)

// CleanupService coordinates deletion of a sensor and its events
type CleanupService struct {
	sensors repository.SensorRepository
	events  repository.EventRepository
	emitter *nuts.EventEmitter
}

// New creates a new CleanupService
func New(sensors repository.SensorRepository, events repository.EventRepository) *CleanupService {
	return &CleanupService{
		sensors: sensors,
		events:  events,
		emitter: nuts.NewEventEmitter(),
	}
}

// DeleteSensor deletes a sensor and all of its events in one transaction.
func (s *CleanupService) DeleteSensor(ctx context.Context, sensorID int64) error {
	tx, err := s.sensors.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	deleted, err := s.events.DeleteBySensorID(ctx, sensorID, tx)
	if err != nil {
		return fmt.Errorf("failed to delete events: %w", err)
	}

	if err := s.sensors.DeleteTx(ctx, sensorID, tx); err != nil {
		return fmt.Errorf("failed to delete sensor: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	nuts.L.Infof("[Cleanup] Deleted sensor %d with %d events", sensorID, deleted)
	s.emitter.Emit(EventSensorDeleted, strconv.FormatInt(sensorID, 10))
	return nil
}

// OnCleanup registers a callback for cleanup events
func (s *CleanupService) OnCleanup(event string, handler func(id string)) {
	s.emitter.On(event, nuts.NID("cleanup", 8), func(args ...interface{}) {
		if len(args) > 0 {
			if id, ok := args[0].(string); ok {
				handler(id)
			}
		}
	})
}
