package hubservice

import (
	"context"

	"github.com/itsatony/w4b_v3/server/sensorhub/internal/cleanup"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/errors"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/logging"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/repository"
)

// SensorInvalidator drops cached copies of sensors after they change.
type SensorInvalidator interface {
	Invalidate(ctx context.Context, ids ...int64) error
}

// HubService contains all repositories and service-wide dependencies
type HubService struct {
	Sensors repository.SensorRepository
	Events  repository.EventRepository
	Cleanup *cleanup.CleanupService
	Cache   SensorInvalidator
	Logger  logging.Logger
}

// New creates a new HubService instance
func New(sensors repository.SensorRepository, events repository.EventRepository) *HubService {
	svc := &HubService{
		Sensors: sensors,
		Events:  events,
		Logger:  logging.Default(),
	}
	svc.Cleanup = cleanup.New(sensors, events)
	return svc
}

// Validate checks if all required repositories are initialized
func (s *HubService) Validate() error {
	if s.Sensors == nil {
		return ErrMissingRepository("sensors")
	}
	if s.Events == nil {
		return ErrMissingRepository("events")
	}
	if s.Cleanup == nil {
		return ErrMissingRepository("cleanup")
	}
	return nil
}

func ErrMissingRepository(name string) error {
	return errors.NewInternalError("missing repository: "+name, nil)
}

func (s *HubService) invalidate(ctx context.Context, id int64) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, id); err != nil {
		s.Logger.Warnf("[HubService] Failed to invalidate cached sensor %d: %v", id, err)
	}
}

// validationError returns nil when fields is empty.
func validationError(msg string, fields errors.FieldErrors) error {
	if len(fields) == 0 {
		return nil
	}
	return errors.NewValidationError(msg, nil).WithDetails(fields)
}
