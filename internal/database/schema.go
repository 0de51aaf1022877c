package database

import (
	"context"
	"fmt"

	nuts "github.com/vaudience/go-nuts"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS sensors (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(500) NOT NULL,
		sensor_type SMALLINT NOT NULL CHECK (sensor_type IN (1, 2, 3)),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id BIGSERIAL PRIMARY KEY,
		sensor_id BIGINT NOT NULL REFERENCES sensors(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		temperature DOUBLE PRECISION NULL,
		humidity DOUBLE PRECISION NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT temperature_range CHECK (temperature >= -200 AND temperature <= 200),
		CONSTRAINT humidity_range CHECK (humidity >= 0 AND humidity <= 100)
	)`,
	`CREATE INDEX IF NOT EXISTS events_sensor_created_idx ON events (sensor_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS events_temperature_idx ON events (temperature)`,
	`CREATE INDEX IF NOT EXISTS events_humidity_idx ON events (humidity)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS sensors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name VARCHAR(500) NOT NULL,
		sensor_type INTEGER NOT NULL CHECK (sensor_type IN (1, 2, 3)),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sensor_id INTEGER NOT NULL REFERENCES sensors(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		temperature REAL NULL,
		humidity REAL NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT temperature_range CHECK (temperature >= -200 AND temperature <= 200),
		CONSTRAINT humidity_range CHECK (humidity >= 0 AND humidity <= 100)
	)`,
	`CREATE INDEX IF NOT EXISTS events_sensor_created_idx ON events (sensor_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS events_temperature_idx ON events (temperature)`,
	`CREATE INDEX IF NOT EXISTS events_humidity_idx ON events (humidity)`,
}

// EnsureSchema creates the sensors and events tables and their indexes if missing.
func EnsureSchema(ctx context.Context, db DB) error {
	statements := postgresSchema
	if db.Dialect() == DriverSQLite {
		statements = sqliteSchema
	}
	for _, stmt := range statements {
		if _, err := db.GetDB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error ensuring schema: %w", err)
		}
	}
	nuts.L.Infof("[Database] Schema ready (%s)", db.Dialect())
	return nil
}
