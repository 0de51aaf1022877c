package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is prepended to every environment override, e.g. SENSORHUB_DATABASE__HOST.
const EnvPrefix = "SENSORHUB"

// Config holds all configuration for the service
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Ingest     IngestConfig     `mapstructure:"ingest"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig selects the SQL driver and its connection settings.
// Driver is one of "postgres" (lib/pq), "pgx" (pgx stdlib) or "sqlite" (modernc).
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	SSLMode      string `mapstructure:"sslmode"`
	Path         string `mapstructure:"path"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// RedisConfig configures the optional sensor lookup cache. An empty Host disables it.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type IngestConfig struct {
	MaxUploadSize     int64  `mapstructure:"max_upload_size"`
	BatchSize         int    `mapstructure:"batch_size"`
	SensorResolution  string `mapstructure:"sensor_resolution"`
	DefaultSensorType int    `mapstructure:"default_sensor_type"`
}

// ArchiveConfig configures where raw uploads are kept. An empty Backend disables archiving.
type ArchiveConfig struct {
	Backend  string `mapstructure:"backend"`
	BasePath string `mapstructure:"base_path"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
	// Retention prunes local archives older than this. Zero keeps everything.
	Retention time.Duration `mapstructure:"retention"`
}

type AuthConfig struct {
	BearerToken string `mapstructure:"bearer_token"`
}

type MonitoringConfig struct {
	LogLevel string `mapstructure:"log_level"`
}

const (
	ResolutionReject     = "reject"
	ResolutionAutoCreate = "autocreate"

	ArchiveLocal = "local"
	ArchiveS3    = "s3"
)

// Load initializes configuration from .env, environment variables and config file
func Load() (*Config, error) {
	_ = godotenv.Load() // ignore missing file

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	config.Ingest.SensorResolution = strings.ToLower(strings.TrimSpace(config.Ingest.SensorResolution))
	config.Archive.Backend = strings.ToLower(strings.TrimSpace(config.Archive.Backend))
	config.Database.Driver = strings.ToLower(strings.TrimSpace(config.Database.Driver))

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Addr returns the host:port string of the redis server.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Enabled reports whether the sensor cache should be used.
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "sensorhub")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "sensorhub")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "data/sensorhub.db")
	v.SetDefault("database.max_open_conns", 10)

	// Redis defaults
	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "5m")

	// Ingest defaults
	v.SetDefault("ingest.max_upload_size", 5*1024*1024) // 5MB
	v.SetDefault("ingest.batch_size", 100)
	v.SetDefault("ingest.sensor_resolution", ResolutionReject)
	v.SetDefault("ingest.default_sensor_type", 1)

	// Archive defaults
	v.SetDefault("archive.backend", "")
	v.SetDefault("archive.base_path", "data/uploads")
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.prefix", "uploads")
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("archive.endpoint", "")
	v.SetDefault("archive.retention", "0s")

	v.SetDefault("auth.bearer_token", "")
	v.SetDefault("monitoring.log_level", "info")
}

func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case "postgres", "pgx":
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required for driver %s", config.Database.Driver)
		}
	case "sqlite":
		if config.Database.Path == "" {
			return fmt.Errorf("database path is required for driver sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}

	if config.Ingest.MaxUploadSize <= 0 {
		return fmt.Errorf("ingest max_upload_size must be > 0")
	}
	if config.Ingest.BatchSize <= 0 {
		return fmt.Errorf("ingest batch_size must be > 0")
	}
	switch config.Ingest.SensorResolution {
	case ResolutionReject, ResolutionAutoCreate:
	default:
		return fmt.Errorf("unsupported sensor_resolution %q", config.Ingest.SensorResolution)
	}
	if config.Ingest.DefaultSensorType < 1 || config.Ingest.DefaultSensorType > 3 {
		return fmt.Errorf("default_sensor_type must be 1, 2 or 3")
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(config.Monitoring.LogLevel)); err != nil {
		return fmt.Errorf("unsupported monitoring log_level %q", config.Monitoring.LogLevel)
	}

	switch config.Archive.Backend {
	case "":
	case ArchiveLocal:
		if config.Archive.Retention < 0 {
			return fmt.Errorf("archive retention must not be negative")
		}
		if config.Archive.BasePath == "" {
			return fmt.Errorf("archive base_path is required for the local backend")
		}
	case ArchiveS3:
		if config.Archive.Bucket == "" {
			return fmt.Errorf("archive bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unsupported archive backend %q", config.Archive.Backend)
	}
	return nil
}
