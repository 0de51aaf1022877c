package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/itsatony/w4b_v3/server/sensorhub/internal/errors"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const (
	defaultPermissions = 0755
	defaultDateFormat  = "20060102_150405"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileConfig holds configuration for the file storage
type FileConfig struct {
	BasePath string
}

// FileRepo keeps raw ingestion uploads on local disk.
type FileRepo struct {
	config FileConfig
}

// NewFileRepository creates a new file storage repository
func NewFileRepository(config FileConfig) (*FileRepo, error) {
	if err := createDirectoryIfNotExists(config.BasePath); err != nil {
		return nil, err
	}
	return &FileRepo{config: config}, nil
}

// Store writes the upload below BasePath and records the relative path in upload.Location.
func (r *FileRepo) Store(ctx context.Context, upload *models.ArchivedUpload) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	filePath := ArchiveKey(upload)
	if err := createDirectoryIfNotExists(filepath.Join(r.config.BasePath, filepath.Dir(filePath))); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(r.config.BasePath, filePath), upload.Data, 0644); err != nil {
		return errors.NewInternalError("failed to write upload", err)
	}
	upload.Location = filePath

	nuts.L.Infof("[FileRepo] Stored upload: %s", filePath)
	return nil
}

// DeleteOldFiles removes archived uploads last modified before the given time.
func (r *FileRepo) DeleteOldFiles(ctx context.Context, before time.Time) (int, error) {
	var deletedCount int
	err := filepath.Walk(r.config.BasePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if info.IsDir() {
			return nil
		}
		if info.ModTime().Before(before) {
			if err := os.Remove(path); err != nil {
				nuts.L.Errorf("[FileRepo] Failed to delete old file %s: %v", path, err)
				return nil
			}
			deletedCount++
		}
		return nil
	})

	if err != nil {
		return deletedCount, errors.NewInternalError("failed to delete old files", err)
	}

	nuts.L.Infof("[FileRepo] Deleted %d files older than %v", deletedCount, before)
	return deletedCount, nil
}

// ArchiveKey builds the slash separated location of an upload:
// yyyy/mm/dd/<timestamp>_<request id>_<sanitized filename>.
func ArchiveKey(upload *models.ArchivedUpload) string {
	received := upload.ReceivedAt.UTC()
	name := unsafeChars.ReplaceAllString(filepath.Base(upload.Filename), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "upload.json"
	}
	filename := fmt.Sprintf("%s_%s_%s",
		received.Format(defaultDateFormat),
		upload.RequestID,
		name,
	)
	return strings.Join([]string{
		received.Format("2006"),
		received.Format("01"),
		received.Format("02"),
		filename,
	}, "/")
}

func createDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		err := os.MkdirAll(path, defaultPermissions)
		if err != nil {
			return errors.NewInternalError("failed to create directory", err)
		}
	}
	return nil
}
