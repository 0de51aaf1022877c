package testutil

import (
	"time"

	"github.com/itsatony/w4b_v3/server/sensorhub/internal/config"
)

// Config returns a configuration suited for in-process tests.
func Config() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			ShutdownTimeout: time.Second,
		},
		Database: config.DatabaseConfig{Driver: "sqlite"},
		Ingest: config.IngestConfig{
			MaxUploadSize:     5 * 1024 * 1024,
			BatchSize:         100,
			SensorResolution:  config.ResolutionReject,
			DefaultSensorType: 1,
		},
		Redis:      config.RedisConfig{TTL: time.Minute},
		Monitoring: config.MonitoringConfig{LogLevel: "info"},
	}
}
