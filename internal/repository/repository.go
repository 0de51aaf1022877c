package repository

import (
	"context"

	"github.com/itsatony/w4b_v3/server/sensorhub/internal/database"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/models"
)

// SensorLookup resolves a set of sensor ids to the sensors that exist.
type SensorLookup interface {
	ListByIDs(ctx context.Context, ids []int64) (map[int64]*models.Sensor, error)
}

// SensorRepository defines the interface for sensor data operations
type SensorRepository interface {
	database.Repository
	SensorLookup
	Create(ctx context.Context, sensor *models.Sensor) error
	Get(ctx context.Context, id int64) (*models.Sensor, error)
	Update(ctx context.Context, sensor *models.Sensor) error
	List(ctx context.Context, filters models.SensorFilters) (int64, []*models.Sensor, error)
	// CreateMissing inserts a sensor for every id in ids that does not exist yet
	// and returns the full id->sensor map, all within tx.
	CreateMissing(ctx context.Context, ids []int64, sensorType models.SensorType, tx database.Transaction) (map[int64]*models.Sensor, error)
	DeleteTx(ctx context.Context, id int64, tx database.Transaction) error
}

// EventRepository defines the interface for event operations
type EventRepository interface {
	database.Repository
	Create(ctx context.Context, event *models.Event) error
	Get(ctx context.Context, id int64) (*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filters models.EventFilters) (int64, []*models.Event, error)
	// BulkCreate inserts all events atomically and returns how many were written.
	BulkCreate(ctx context.Context, events []*models.Event) (int, error)
	DeleteBySensorID(ctx context.Context, sensorID int64, tx database.Transaction) (int64, error)
}

// UploadArchive keeps the raw bytes of ingestion uploads.
type UploadArchive interface {
	Store(ctx context.Context, upload *models.ArchivedUpload) error
}
