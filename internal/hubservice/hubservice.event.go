package hubservice

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/itsatony/w4b_v3/server/sensorhub/internal/errors"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/models"
)

// EventService handles event-related business logic
type EventService interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	UpdateEvent(ctx context.Context, id int64, event *models.Event) (*models.Event, error)
	PatchEvent(ctx context.Context, id int64, patch models.EventPatch) (*models.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
	ListEvents(ctx context.Context, filters models.EventFilters) (*models.ListResult[*models.Event], error)
}

var _ EventService = (*HubService)(nil)

// CreateEvent validates and stores a single event.
func (s *HubService) CreateEvent(ctx context.Context, event *models.Event) error {
	event.Normalize()
	if err := s.validateEvent(ctx, event); err != nil {
		return err
	}

	event.ID = 0
	event.CreatedAt = time.Now().UTC()
	return s.Events.Create(ctx, event)
}

func (s *HubService) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	return s.Events.Get(ctx, id)
}

// UpdateEvent replaces every writable field of an existing event.
func (s *HubService) UpdateEvent(ctx context.Context, id int64, event *models.Event) (*models.Event, error) {
	existing, err := s.Events.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.SensorID = event.SensorID
	existing.Name = event.Name
	existing.Temperature = event.Temperature
	existing.Humidity = event.Humidity
	return s.saveEvent(ctx, existing)
}

// PatchEvent applies the set fields of patch to an existing event.
func (s *HubService) PatchEvent(ctx context.Context, id int64, patch models.EventPatch) (*models.Event, error) {
	existing, err := s.Events.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(existing)
	return s.saveEvent(ctx, existing)
}

func (s *HubService) saveEvent(ctx context.Context, event *models.Event) (*models.Event, error) {
	event.Normalize()
	if err := s.validateEvent(ctx, event); err != nil {
		return nil, err
	}
	if err := s.Events.Update(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *HubService) DeleteEvent(ctx context.Context, id int64) error {
	return s.Events.Delete(ctx, id)
}

func (s *HubService) ListEvents(ctx context.Context, filters models.EventFilters) (*models.ListResult[*models.Event], error) {
	filters.Clamp()
	count, events, err := s.Events.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	return &models.ListResult[*models.Event]{Count: count, Results: events}, nil
}

func (s *HubService) validateEvent(ctx context.Context, event *models.Event) error {
	fields := errors.FieldErrors{}

	if event.SensorID <= 0 {
		fields.Add("sensor", "this field is required")
	} else if _, err := s.Sensors.Get(ctx, event.SensorID); err != nil {
		if !errors.IsNotFound(err) {
			return err
		}
		fields.Add("sensor", fmt.Sprintf("invalid pk %d - object does not exist", event.SensorID))
	}

	switch {
	case event.Name == "":
		fields.Add("name", "this field is required")
	case utf8.RuneCountInString(event.Name) > models.MaxEventNameLength:
		fields.Add("name", fmt.Sprintf("ensure this field has no more than %d characters", models.MaxEventNameLength))
	}

	if t := event.Temperature; t != nil && (*t < models.MinTemperature || *t > models.MaxTemperature) {
		fields.Add("temperature", fmt.Sprintf("ensure this value is between %v and %v", models.MinTemperature, models.MaxTemperature))
	}
	if h := event.Humidity; h != nil && (*h < models.MinHumidity || *h > models.MaxHumidity) {
		fields.Add("humidity", fmt.Sprintf("ensure this value is between %v and %v", models.MinHumidity, models.MaxHumidity))
	}
	if event.Temperature == nil && event.Humidity == nil {
		fields.Add("non_field_errors", "at least one of temperature or humidity is required")
	}

	return validationError("invalid event", fields)
}
