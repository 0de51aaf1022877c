package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/itsatony/w4b_v3/server/sensorhub/api"
	"github.com/itsatony/w4b_v3/server/sensorhub/api/middleware"
	"github.com/itsatony/w4b_v3/server/sensorhub/api/resources"
	_ "github.com/itsatony/w4b_v3/server/sensorhub/docs"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/cleanup"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/config"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/database"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/hubservice"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/ingest"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/models"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/monitoring"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/repository"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/repository/cache"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/repository/files"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/repository/postgres"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/repository/s3"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	db         database.DB
	redis      *redis.Client
	hubservice *hubservice.HubService
	monitoring *monitoring.Service
	logger     *zap.SugaredLogger
	stop       context.CancelFunc
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	return &Server{
		config:     cfg,
		monitoring: monitoring.NewService(),
	}
}

// Start wires all components, begins listening and blocks until shutdown.
func (s *Server) Start() error {
	handler, err := s.Build(context.Background())
	if err != nil {
		return err
	}

	s.srv = &http.Server{
		Addr:         s.config.ListenAddr(),
		Handler:      handler,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	return s.waitForShutdown(errCh)
}

// Build opens every backing store and returns the complete HTTP handler.
func (s *Server) Build(ctx context.Context) (http.Handler, error) {
	ctx, s.stop = context.WithCancel(ctx)

	db, err := database.Open(s.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if err := database.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	sensors := postgres.NewSensorRepository(db)
	events := postgres.NewEventRepository(db, s.config.Ingest.BatchSize)

	logger, err := newLogger(s.config.Monitoring.LogLevel)
	if err != nil {
		return nil, err
	}
	s.logger = logger

	s.hubservice = hubservice.New(sensors, events)
	s.hubservice.Logger = logger
	if err := s.hubservice.Validate(); err != nil {
		return nil, err
	}

	var lookup repository.SensorLookup = sensors
	if sensorCache := s.initCache(ctx, sensors); sensorCache != nil {
		lookup = sensorCache
		s.hubservice.Cache = sensorCache
	}

	resolver, err := ingest.NewResolver(s.config.Ingest.SensorResolution, lookup, sensors,
		models.SensorType(s.config.Ingest.DefaultSensorType))
	if err != nil {
		return nil, err
	}

	opts := []ingest.Option{ingest.WithMetrics(s.monitoring), ingest.WithLogger(logger)}
	archive, err := s.initArchive(ctx)
	if err != nil {
		return nil, err
	}
	if archive != nil {
		opts = append(opts, ingest.WithArchive(archive))
	}
	ingester := ingest.New(resolver, ingest.NewWriter(events).WithRecheck(sensors), opts...)

	s.setupCleanupHandlers()

	res := resources.NewResources(s.hubservice, ingester, s.config.Ingest.MaxUploadSize)
	res.SetHealthCheck(s.handleHealth())
	res.SetMetrics(s.handleMetrics())
	router := api.NewRouter(res, middleware.BearerConfig{Token: s.config.Auth.BearerToken})

	var handler http.Handler = router
	handler = handlers.CORS(
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)(handler)
	handler = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(handler)
	handler = handlers.CombinedLoggingHandler(os.Stdout, handler)
	return handler, nil
}

func (s *Server) initCache(ctx context.Context, next repository.SensorLookup) *cache.SensorCache {
	if !s.config.Redis.Enabled() {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     s.config.Redis.Addr(),
		Password: s.config.Redis.Password,
		DB:       s.config.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// The cache falls back to the database per request, so an unreachable redis is not fatal.
		nuts.L.Warnf("[Server] Redis at %s not reachable: %v", s.config.Redis.Addr(), err)
	}

	s.redis = client
	nuts.L.Infof("[Server] Sensor cache enabled (%s, ttl %v)", s.config.Redis.Addr(), s.config.Redis.TTL)
	return cache.NewSensorCache(client, next, s.config.Redis.TTL)
}

func (s *Server) initArchive(ctx context.Context) (repository.UploadArchive, error) {
	switch s.config.Archive.Backend {
	case config.ArchiveLocal:
		repo, err := files.NewFileRepository(files.FileConfig{BasePath: s.config.Archive.BasePath})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize upload archive: %w", err)
		}
		nuts.L.Infof("[Server] Archiving uploads below %s", s.config.Archive.BasePath)
		if s.config.Archive.Retention > 0 {
			go pruneArchive(ctx, repo, s.config.Archive.Retention, time.Hour)
		}
		return repo, nil
	case config.ArchiveS3:
		repo, err := s3.NewObjectRepository(ctx, s.config.Archive)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize upload archive: %w", err)
		}
		nuts.L.Infof("[Server] Archiving uploads to s3://%s/%s", s.config.Archive.Bucket, s.config.Archive.Prefix)
		return repo, nil
	}
	return nil, nil
}

// newLogger builds the leveled logger used by request handling code.
func newLogger(level string) (*zap.SugaredLogger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.Sugar(), nil
}

// pruneArchive deletes archived uploads older than retention every interval until ctx ends.
func pruneArchive(ctx context.Context, repo *files.FileRepo, retention, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := repo.DeleteOldFiles(ctx, time.Now().Add(-retention)); err != nil && ctx.Err() == nil {
			nuts.L.Warnf("[Server] Archive pruning failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown(errCh <-chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		s.close()
		return fmt.Errorf("error starting server: %w", err)
	}

	nuts.L.Infof("[Server] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	s.close()

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// Close releases the database and redis connections.
func (s *Server) Close() {
	s.close()
}

func (s *Server) close() {
	if s.stop != nil {
		s.stop()
	}
	if s.logger != nil {
		_ = s.logger.Sync()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			nuts.L.Warnf("[Server] Failed to close redis client: %v", err)
		}
		s.redis = nil
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			nuts.L.Warnf("[Server] Failed to close database: %v", err)
		}
		s.db = nil
	}
}

// handleHealth reports the version and whether the database answers.
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			nuts.L.Errorf("[Server] Health check failed: %v", err)
			status, code = "unavailable", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"status": status, "version": nuts.GetVersion()})
	}
}

// handleMetrics returns a snapshot of the monitoring counters.
func (s *Server) handleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"uptime_seconds": int64(s.monitoring.Uptime().Seconds()),
			"counters":       s.monitoring.Snapshot(),
		})
	}
}

func (s *Server) setupCleanupHandlers() {
	s.hubservice.Cleanup.OnCleanup(cleanup.EventSensorDeleted, func(id string) {
		nuts.L.Infof("[Cleanup] Sensor %s and all associated events deleted", id)
		s.monitoring.RecordEvent("sensor_deletion", map[string]string{
			"sensor_id": id,
		})
	})
}
