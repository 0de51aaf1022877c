package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/itsatony/w4b_v3/server/sensorhub/internal/config"
)

func openTestDB(t *testing.T) DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := EnsureSchema(ctx, db); err != nil {
			t.Fatalf("EnsureSchema() run %d error = %v", i+1, err)
		}
	}
	if db.Dialect() != DriverSQLite {
		t.Errorf("Dialect() = %q, want %q", db.Dialect(), DriverSQLite)
	}
}

func TestEnsureSchema_Constraints(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	if err := EnsureSchema(ctx, db); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	sqlDB := db.GetDB()

	if _, err := sqlDB.ExecContext(ctx, `INSERT INTO sensors (name, sensor_type) VALUES ('bad', 7)`); err == nil {
		t.Error("insert with sensor_type 7 succeeded, want CHECK failure")
	}
	if _, err := sqlDB.ExecContext(ctx, `INSERT INTO sensors (id, name, sensor_type) VALUES (1, 's', 1)`); err != nil {
		t.Fatalf("insert sensor error = %v", err)
	}
	if _, err := sqlDB.ExecContext(ctx, `INSERT INTO events (sensor_id, name, temperature) VALUES (1, 'e', 250)`); err == nil {
		t.Error("insert with temperature 250 succeeded, want CHECK failure")
	}
	if _, err := sqlDB.ExecContext(ctx, `INSERT INTO events (sensor_id, name, humidity) VALUES (99, 'e', 10)`); err == nil {
		t.Error("insert with unknown sensor succeeded, want foreign key failure")
	}
	if _, err := sqlDB.ExecContext(ctx, `INSERT INTO events (sensor_id, name, humidity) VALUES (1, 'e', 10)`); err != nil {
		t.Fatalf("insert event error = %v", err)
	}
	if _, err := sqlDB.ExecContext(ctx, `DELETE FROM sensors WHERE id = 1`); err != nil {
		t.Fatalf("delete sensor error = %v", err)
	}
	var n int
	if err := sqlDB.GetContext(ctx, &n, `SELECT COUNT(*) FROM events`); err != nil {
		t.Fatalf("count events error = %v", err)
	}
	if n != 0 {
		t.Errorf("events after cascade delete = %d, want 0", n)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open(config.DatabaseConfig{Driver: "mysql"}); err == nil {
		t.Error("Open(mysql) error = nil, want error")
	}
}
