package hubservice

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/itsatony/w4b_v3/server/sensorhub/internal/errors"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/models"
)

// SensorService handles sensor-related business logic
type SensorService interface {
	CreateSensor(ctx context.Context, sensor *models.Sensor) error
	GetSensor(ctx context.Context, id int64) (*models.Sensor, error)
	UpdateSensor(ctx context.Context, id int64, sensor *models.Sensor) (*models.Sensor, error)
	PatchSensor(ctx context.Context, id int64, patch models.SensorPatch) (*models.Sensor, error)
	DeleteSensor(ctx context.Context, id int64) error
	ListSensors(ctx context.Context, filters models.SensorFilters) (*models.ListResult[*models.Sensor], error)
	ListSensorEvents(ctx context.Context, id int64, page models.Page) (*models.ListResult[*models.Event], error)
}

var _ SensorService = (*HubService)(nil)

// CreateSensor validates and stores a new sensor. The id is always assigned by the store.
func (s *HubService) CreateSensor(ctx context.Context, sensor *models.Sensor) error {
	sensor.Normalize()
	if err := validateSensor(sensor); err != nil {
		return err
	}

	sensor.ID = 0
	sensor.CreatedAt = time.Now().UTC()
	if err := s.Sensors.Create(ctx, sensor); err != nil {
		return err
	}

	s.Logger.Infof("[HubService] Created sensor %d (%s)", sensor.ID, sensor.Name)
	return nil
}

func (s *HubService) GetSensor(ctx context.Context, id int64) (*models.Sensor, error) {
	return s.Sensors.Get(ctx, id)
}

// UpdateSensor replaces name and sensor_type of an existing sensor.
func (s *HubService) UpdateSensor(ctx context.Context, id int64, sensor *models.Sensor) (*models.Sensor, error) {
	return s.PatchSensor(ctx, id, models.SensorPatch{Name: &sensor.Name, SensorType: &sensor.SensorType})
}

// PatchSensor applies the set fields of patch to an existing sensor.
func (s *HubService) PatchSensor(ctx context.Context, id int64, patch models.SensorPatch) (*models.Sensor, error) {
	existing, err := s.Sensors.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(existing)
	existing.Normalize()
	if err := validateSensor(existing); err != nil {
		return nil, err
	}

	if err := s.Sensors.Update(ctx, existing); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	s.Logger.Infof("[HubService] Updated sensor %d", id)
	return existing, nil
}

// DeleteSensor removes a sensor together with its events.
// DeleteSensor removes the sensor with its events and drops it from the cache
// before returning, so ingestion cannot resolve it afterwards.
func (s *HubService) DeleteSensor(ctx context.Context, id int64) error {
	if err := s.Cleanup.DeleteSensor(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *HubService) ListSensors(ctx context.Context, filters models.SensorFilters) (*models.ListResult[*models.Sensor], error) {
	filters.Clamp()
	count, sensors, err := s.Sensors.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	return &models.ListResult[*models.Sensor]{Count: count, Results: sensors}, nil
}

// ListSensorEvents lists the events of one sensor, newest first.
func (s *HubService) ListSensorEvents(ctx context.Context, id int64, page models.Page) (*models.ListResult[*models.Event], error) {
	if _, err := s.Sensors.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.ListEvents(ctx, models.EventFilters{Page: page, SensorID: &id, Ordering: "-created_at"})
}

func validateSensor(sensor *models.Sensor) error {
	fields := errors.FieldErrors{}
	switch {
	case sensor.Name == "":
		fields.Add("name", "this field is required")
	case utf8.RuneCountInString(sensor.Name) > models.MaxSensorNameLength:
		fields.Add("name", fmt.Sprintf("ensure this field has no more than %d characters", models.MaxSensorNameLength))
	}
	if !sensor.SensorType.Valid() {
		fields.Add("sensor_type", fmt.Sprintf("%d is not a valid choice", sensor.SensorType))
	}
	return validationError("invalid sensor", fields)
}
