package testutil

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/itsatony/w4b_v3/server/sensorhub/internal/database"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/models"
)

// SetupDB opens an embedded database under t.TempDir with the schema applied.
func SetupDB(t testing.TB) database.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "sensorhub.db"))
	if err != nil {
		t.Fatalf("database.OpenSQLite: %v", err)
	}
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("database.EnsureSchema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// SeedSensors inserts sensors with the given ids, named "sensor_<id>".
func SeedSensors(t testing.TB, db database.DB, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		_, err := db.GetDB().Exec(
			`INSERT INTO sensors (id, name, sensor_type) VALUES (?, ?, ?)`,
			id, "sensor_"+strconv.FormatInt(id, 10), models.SensorTypeOne,
		)
		if err != nil {
			t.Fatalf("seed sensor %d: %v", id, err)
		}
	}
}

// CountEvents returns the number of stored events.
func CountEvents(t testing.TB, db database.DB) int {
	t.Helper()
	var n int
	if err := db.GetDB().Get(&n, `SELECT COUNT(*) FROM events`); err != nil {
		t.Fatalf("count events: %v", err)
	}
	return n
}

// CountSensors returns the number of stored sensors.
func CountSensors(t testing.TB, db database.DB) int {
	t.Helper()
	var n int
	if err := db.GetDB().Get(&n, `SELECT COUNT(*) FROM sensors`); err != nil {
		t.Fatalf("count sensors: %v", err)
	}
	return n
}
