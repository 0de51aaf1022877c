package main

import (
	"fmt"
	"log"
	"os"

	tm "github.com/buger/goterm"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/config"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/server"
	nuts "github.com/vaudience/go-nuts"
)

func main() {
	ClearConsole()
	DrawLogo()
	nuts.InitVersion()
	nuts.L.Infof("[Main] Starting Sensor Hub v%s", nuts.GetVersion())

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	for _, line := range startupSummary(cfg) {
		nuts.L.Infof("[Main] %s", line)
	}

	srv := server.New(cfg)
	if err := srv.Start(); err != nil {
		nuts.L.Errorf("[Main] Server error: %v", err)
		os.Exit(1)
	}
}

// startupSummary describes the resolved storage, cache, archive and auth setup.
func startupSummary(cfg *config.Config) []string {
	database := cfg.Database.Driver
	if cfg.Database.Driver == "sqlite" {
		database += " (" + cfg.Database.Path + ")"
	} else {
		database += fmt.Sprintf(" (%s:%d/%s)", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
	}

	cache := "disabled"
	if cfg.Redis.Enabled() {
		cache = fmt.Sprintf("redis %s, ttl %v", cfg.Redis.Addr(), cfg.Redis.TTL)
	}

	archive := "disabled"
	switch cfg.Archive.Backend {
	case config.ArchiveLocal:
		archive = "local " + cfg.Archive.BasePath
		if cfg.Archive.Retention > 0 {
			archive += fmt.Sprintf(", retention %v", cfg.Archive.Retention)
		}
	case config.ArchiveS3:
		archive = "s3://" + cfg.Archive.Bucket + "/" + cfg.Archive.Prefix
	}

	auth := "open"
	if cfg.Auth.BearerToken != "" {
		auth = "bearer token"
	}

	return []string{
		"Database: " + database,
		fmt.Sprintf("Ingest: sensor resolution %s, batch size %d, max upload %d bytes",
			cfg.Ingest.SensorResolution, cfg.Ingest.BatchSize, cfg.Ingest.MaxUploadSize),
		"Sensor cache: " + cache,
		"Upload archive: " + archive,
		"Auth: " + auth,
	}
}

// ClearConsole clears the console screen.
func ClearConsole() {
	tm.Clear()
	tm.MoveCursor(1, 1)
	tm.Flush()
}

func DrawLogo() {
	fmt.Println()
	lines := []string{
		"   _____                            __  __      __  ",
		"  / ___/___  ____  _________  _____/ / / /_  __/ /_ ",
		"  \\__ \\/ _ \\/ __ \\/ ___/ __ \\/ ___/ /_/ / / / / __ \\",
		" ___/ /  __/ / / (__  ) /_/ / /  / __  / /_/ / /_/ /",
		"/____/\\___/_/ /_/____/\\____/_/  /_/ /_/\\__,_/_.___/ ",
		"......................................................  " + nuts.GetVersion(),
	}

	for _, line := range lines {
		fmt.Println(line)
	}
}
