package files

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/itsatony/w4b_v3/server/sensorhub/internal/models"
)

func TestArchiveKey(t *testing.T) {
	upload := &models.ArchivedUpload{
		RequestID:  "req_abc",
		Filename:   "../weird name!.JSON",
		ReceivedAt: time.Date(2024, 3, 7, 9, 5, 1, 0, time.UTC),
	}
	want := "2024/03/07/20240307_090501_req_abc_weird_name_.JSON"
	if got := ArchiveKey(upload); got != want {
		t.Errorf("ArchiveKey() = %q, want %q", got, want)
	}
}

func TestFileRepo_StoreAndPrune(t *testing.T) {
	base := t.TempDir()
	repo, err := NewFileRepository(FileConfig{BasePath: filepath.Join(base, "uploads")})
	if err != nil {
		t.Fatalf("NewFileRepository() error = %v", err)
	}
	ctx := context.Background()

	upload := &models.ArchivedUpload{
		RequestID:  "req_1",
		Filename:   "events.json",
		Data:       []byte(`[{"sensor_id":1}]`),
		ReceivedAt: time.Now(),
	}
	if err := repo.Store(ctx, upload); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if upload.Location == "" {
		t.Fatal("Store() left Location empty")
	}

	data, err := os.ReadFile(filepath.Join(base, "uploads", filepath.FromSlash(upload.Location)))
	if err != nil {
		t.Fatalf("read stored upload: %v", err)
	}
	if string(data) != `[{"sensor_id":1}]` {
		t.Errorf("stored data = %q", data)
	}

	n, err := repo.DeleteOldFiles(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("DeleteOldFiles() error = %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteOldFiles() = %d, want 1", n)
	}
}
