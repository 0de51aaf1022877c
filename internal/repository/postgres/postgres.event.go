package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/itsatony/w4b_v3/server/sensorhub/internal/database"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/errors"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const (
	eventColumns = `id, sensor_id, name, temperature, humidity, created_at`

	// DefaultBatchSize is the number of rows per INSERT statement in BulkCreate.
	DefaultBatchSize = 100
)

var eventOrdering = map[string]string{
	"id":          "id",
	"created_at":  "created_at",
	"temperature": "temperature",
	"humidity":    "humidity",
}

type EventRepo struct {
	PostgresBaseRepo
	batchSize int
}

func NewEventRepository(db database.DB, batchSize int) *EventRepo {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &EventRepo{PostgresBaseRepo: PostgresBaseRepo{db: db}, batchSize: batchSize}
}

func (r *EventRepo) Create(ctx context.Context, event *models.Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	query := r.rebind(`
		INSERT INTO events (sensor_id, name, temperature, humidity, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`)

	err := r.db.GetDB().GetContext(ctx, &event.ID, query,
		event.SensorID, event.Name, event.Temperature, event.Humidity, event.CreatedAt)
	if err != nil {
		return writeError("failed to create event", err)
	}
	return nil
}

func (r *EventRepo) Get(ctx context.Context, id int64) (*models.Event, error) {
	event := &models.Event{}
	query := r.rebind(`SELECT ` + eventColumns + ` FROM events WHERE id = ?`)

	err := r.db.GetDB().GetContext(ctx, event, query, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("event not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get event", err)
	}
	return event, nil
}

func (r *EventRepo) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events SET
			sensor_id = :sensor_id,
			name = :name,
			temperature = :temperature,
			humidity = :humidity
		WHERE id = :id`

	result, err := r.db.GetDB().NamedExecContext(ctx, query, event)
	if err != nil {
		return writeError("failed to update event", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("event not found", nil)
	}

	return nil
}

func (r *EventRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.GetDB().ExecContext(ctx, r.rebind(`DELETE FROM events WHERE id = ?`), id)
	if err != nil {
		return errors.NewDatabaseError("failed to delete event", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("event not found", nil)
	}

	return nil
}

func (r *EventRepo) List(ctx context.Context, filters models.EventFilters) (int64, []*models.Event, error) {
	filters.Clamp()

	where := ` WHERE 1=1`
	args := []interface{}{}
	if filters.SensorID != nil {
		where += ` AND sensor_id = ?`
		args = append(args, *filters.SensorID)
	}
	if filters.TemperatureMin != nil {
		where += ` AND temperature >= ?`
		args = append(args, *filters.TemperatureMin)
	}
	if filters.TemperatureMax != nil {
		where += ` AND temperature <= ?`
		args = append(args, *filters.TemperatureMax)
	}
	if filters.HumidityMin != nil {
		where += ` AND humidity >= ?`
		args = append(args, *filters.HumidityMin)
	}
	if filters.HumidityMax != nil {
		where += ` AND humidity <= ?`
		args = append(args, *filters.HumidityMax)
	}

	var count int64
	if err := r.db.GetDB().GetContext(ctx, &count, r.rebind(`SELECT COUNT(*) FROM events`+where), args...); err != nil {
		return 0, nil, errors.NewDatabaseError("failed to count events", err)
	}

	query := `SELECT ` + eventColumns + ` FROM events` + where +
		orderClause(filters.Ordering, eventOrdering, "-created_at") + ` LIMIT ? OFFSET ?`
	args = append(args, filters.Limit, filters.Offset)

	events := []*models.Event{}
	if err := r.db.GetDB().SelectContext(ctx, &events, r.rebind(query), args...); err != nil {
		return 0, nil, errors.NewDatabaseError("failed to list events", err)
	}

	return count, events, nil
}

// BulkCreate inserts events in batches inside a single transaction. Either every
// event is written or none is.
func (r *EventRepo) BulkCreate(ctx context.Context, events []*models.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	tx, err := r.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() // no-op once committed

	query := `
		INSERT INTO events (sensor_id, name, temperature, humidity, created_at)
		VALUES (:sensor_id, :name, :temperature, :humidity, :created_at)`

	for start := 0; start < len(events); start += r.batchSize {
		end := start + r.batchSize
		if end > len(events) {
			end = len(events)
		}
		if _, err := tx.NamedExecContext(ctx, query, events[start:end]); err != nil {
			return 0, writeError("failed to bulk insert events", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewDatabaseError("failed to commit bulk insert", err)
	}

	nuts.L.Infof("[EventRepo] Bulk inserted %d events", len(events))
	return len(events), nil
}

// DeleteBySensorID removes all events of a sensor within tx and returns how many were removed.
func (r *EventRepo) DeleteBySensorID(ctx context.Context, sensorID int64, tx database.Transaction) (int64, error) {
	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM events WHERE sensor_id = ?`), sensorID)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to delete events", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewDatabaseError("failed to get rows affected", err)
	}
	return rows, nil
}
