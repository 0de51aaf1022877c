package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/itsatony/w4b_v3/server/sensorhub/internal/database"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/errors"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/models"
	"github.com/jmoiron/sqlx"
	nuts "github.com/vaudience/go-nuts"
)

const sensorColumns = `id, name, sensor_type, created_at`

var sensorOrdering = map[string]string{
	"id":         "id",
	"name":       "name",
	"created_at": "created_at",
}

type SensorRepo struct {
	PostgresBaseRepo
}

func NewSensorRepository(db database.DB) *SensorRepo {
	repo := &PostgresBaseRepo{db: db}
	return &SensorRepo{PostgresBaseRepo: *repo}
}

func (r *SensorRepo) Create(ctx context.Context, sensor *models.Sensor) error {
	if sensor.CreatedAt.IsZero() {
		sensor.CreatedAt = time.Now().UTC()
	}
	query := r.rebind(`INSERT INTO sensors (name, sensor_type, created_at) VALUES (?, ?, ?) RETURNING id`)

	err := r.db.GetDB().GetContext(ctx, &sensor.ID, query, sensor.Name, sensor.SensorType, sensor.CreatedAt)
	if err != nil {
		return writeError("failed to create sensor", err)
	}
	return nil
}

func (r *SensorRepo) Get(ctx context.Context, id int64) (*models.Sensor, error) {
	sensor := &models.Sensor{}
	query := r.rebind(`SELECT ` + sensorColumns + ` FROM sensors WHERE id = ?`)

	err := r.db.GetDB().GetContext(ctx, sensor, query, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("sensor not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get sensor", err)
	}
	return sensor, nil
}

// Update writes name and sensor_type. created_at is never changed.
func (r *SensorRepo) Update(ctx context.Context, sensor *models.Sensor) error {
	query := `UPDATE sensors SET name = :name, sensor_type = :sensor_type WHERE id = :id`

	result, err := r.db.GetDB().NamedExecContext(ctx, query, sensor)
	if err != nil {
		return writeError("failed to update sensor", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("sensor not found", nil)
	}

	return nil
}

func (r *SensorRepo) List(ctx context.Context, filters models.SensorFilters) (int64, []*models.Sensor, error) {
	filters.Clamp()

	where := ` WHERE 1=1`
	args := []interface{}{}
	if search := strings.TrimSpace(filters.Search); search != "" {
		where += ` AND LOWER(name) LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(strings.ToLower(search))+"%")
	}

	var count int64
	if err := r.db.GetDB().GetContext(ctx, &count, r.rebind(`SELECT COUNT(*) FROM sensors`+where), args...); err != nil {
		return 0, nil, errors.NewDatabaseError("failed to count sensors", err)
	}

	query := `SELECT ` + sensorColumns + ` FROM sensors` + where +
		orderClause(filters.Ordering, sensorOrdering, "id") + ` LIMIT ? OFFSET ?`
	args = append(args, filters.Limit, filters.Offset)

	sensors := []*models.Sensor{}
	if err := r.db.GetDB().SelectContext(ctx, &sensors, r.rebind(query), args...); err != nil {
		return 0, nil, errors.NewDatabaseError("failed to list sensors", err)
	}

	return count, sensors, nil
}

// ListByIDs returns the sensors among ids that exist, keyed by id.
func (r *SensorRepo) ListByIDs(ctx context.Context, ids []int64) (map[int64]*models.Sensor, error) {
	return listByIDs(ctx, r.db.GetDB(), ids)
}

type selecter interface {
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Rebind(query string) string
}

func listByIDs(ctx context.Context, q selecter, ids []int64) (map[int64]*models.Sensor, error) {
	found := make(map[int64]*models.Sensor, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	query, args, err := sqlx.In(`SELECT `+sensorColumns+` FROM sensors WHERE id IN (?)`, ids)
	if err != nil {
		return nil, errors.NewInternalError("failed to build sensor lookup", err)
	}

	sensors := []*models.Sensor{}
	if err := q.SelectContext(ctx, &sensors, q.Rebind(query), args...); err != nil {
		return nil, errors.NewDatabaseError("failed to look up sensors", err)
	}
	for _, s := range sensors {
		found[s.ID] = s
	}
	return found, nil
}

// CreateMissing creates "auto_sensor_<id>" sensors for ids not present yet, in ascending id order.
func (r *SensorRepo) CreateMissing(ctx context.Context, ids []int64, sensorType models.SensorType, tx database.Transaction) (map[int64]*models.Sensor, error) {
	found, err := listByIDs(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	missing := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return found, nil
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })

	now := time.Now().UTC()
	insert := tx.Rebind(`INSERT INTO sensors (id, name, sensor_type, created_at) VALUES (?, ?, ?, ?)`)
	for _, id := range missing {
		sensor := &models.Sensor{
			ID:         id,
			Name:       fmt.Sprintf("auto_sensor_%d", id),
			SensorType: sensorType,
			CreatedAt:  now,
		}
		if _, err := tx.ExecContext(ctx, insert, sensor.ID, sensor.Name, sensor.SensorType, sensor.CreatedAt); err != nil {
			return nil, writeError("failed to auto-create sensor", err)
		}
		found[id] = sensor
	}

	// explicit ids bypass the serial sequence, move it past them
	if r.db.Dialect() == database.DriverPostgres {
		if _, err := tx.ExecContext(ctx, `SELECT setval(pg_get_serial_sequence('sensors', 'id'), (SELECT MAX(id) FROM sensors))`); err != nil {
			return nil, errors.NewDatabaseError("failed to advance sensor id sequence", err)
		}
	}

	nuts.L.Infof("[SensorRepo] Auto-created %d sensors", len(missing))
	return found, nil
}

func (r *SensorRepo) DeleteTx(ctx context.Context, id int64, tx database.Transaction) error {
	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM sensors WHERE id = ?`), id)
	if err != nil {
		return errors.NewDatabaseError("failed to delete sensor", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("sensor not found", nil)
	}

	return nil
}
