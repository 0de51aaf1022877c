package ingest

import (
	"context"
	"fmt"

	"github.com/itsatony/w4b_v3/server/sensorhub/internal/config"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/models"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/repository"
)

// SensorResolver maps referenced sensor ids to the sensors events may attach to.
// Ids missing from the result are treated as unknown sensors.
type SensorResolver interface {
	Resolve(ctx context.Context, ids []int64) (map[int64]*models.Sensor, error)
}

// LookupResolver only returns sensors that already exist.
type LookupResolver struct {
	lookup repository.SensorLookup
}

func NewLookupResolver(lookup repository.SensorLookup) *LookupResolver {
	return &LookupResolver{lookup: lookup}
}

func (r *LookupResolver) Resolve(ctx context.Context, ids []int64) (map[int64]*models.Sensor, error) {
	return r.lookup.ListByIDs(ctx, ids)
}

// AutoCreateResolver resolves known sensors through lookup and creates the
// missing ones in one transaction, so each id resolves.
type AutoCreateResolver struct {
	lookup     repository.SensorLookup
	sensors    repository.SensorRepository
	sensorType models.SensorType
}

func NewAutoCreateResolver(lookup repository.SensorLookup, sensors repository.SensorRepository, sensorType models.SensorType) *AutoCreateResolver {
	return &AutoCreateResolver{lookup: lookup, sensors: sensors, sensorType: sensorType}
}

func (r *AutoCreateResolver) Resolve(ctx context.Context, ids []int64) (map[int64]*models.Sensor, error) {
	found, err := r.lookup.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	var missing []int64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return found, nil
	}

	tx, err := r.sensors.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() // no-op once committed

	created, err := r.sensors.CreateMissing(ctx, missing, r.sensorType, tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit auto-created sensors: %w", err)
	}
	for id, sensor := range created {
		found[id] = sensor
	}
	return found, nil
}

// NewResolver picks the strategy named by the ingest.sensor_resolution setting.
// lookup may be a cache in front of sensors.
func NewResolver(strategy string, lookup repository.SensorLookup, sensors repository.SensorRepository, sensorType models.SensorType) (SensorResolver, error) {
	switch strategy {
	case "", config.ResolutionReject:
		return NewLookupResolver(lookup), nil
	case config.ResolutionAutoCreate:
		if !sensorType.Valid() {
			return nil, fmt.Errorf("invalid default sensor type %d", sensorType)
		}
		return NewAutoCreateResolver(lookup, sensors, sensorType), nil
	default:
		return nil, fmt.Errorf("unknown sensor resolution strategy %q", strategy)
	}
}
