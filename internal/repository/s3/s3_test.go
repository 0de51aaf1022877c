package s3

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/models"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	if in.Body != nil {
		f.body, _ = io.ReadAll(in.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestObjectRepo_Store(t *testing.T) {
	fake := &fakeS3{}
	repo := newObjectRepo(fake, "hub-archive", "uploads")

	upload := &models.ArchivedUpload{
		RequestID:  "req_x",
		Filename:   "batch.json",
		Data:       []byte(`[]`),
		ReceivedAt: time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
	}
	if err := repo.Store(context.Background(), upload); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	wantKey := "uploads/2024/12/31/20241231_235959_req_x_batch.json"
	if got := aws.ToString(fake.input.Key); got != wantKey {
		t.Errorf("Key = %q, want %q", got, wantKey)
	}
	if got := aws.ToString(fake.input.Bucket); got != "hub-archive" {
		t.Errorf("Bucket = %q, want hub-archive", got)
	}
	if string(fake.body) != "[]" {
		t.Errorf("Body = %q, want []", fake.body)
	}
	if fake.input.Metadata["request-id"] != "req_x" {
		t.Errorf("Metadata = %v, want request-id req_x", fake.input.Metadata)
	}
	if upload.Location != "s3://hub-archive/"+wantKey {
		t.Errorf("Location = %q", upload.Location)
	}
}

func TestObjectRepo_StoreError(t *testing.T) {
	repo := newObjectRepo(&fakeS3{err: errors.New("denied")}, "b", "")
	upload := &models.ArchivedUpload{RequestID: "r", Filename: "f.json", ReceivedAt: time.Now()}
	if err := repo.Store(context.Background(), upload); err == nil {
		t.Error("Store() error = nil, want error")
	}
	if upload.Location != "" {
		t.Errorf("Location = %q after failure, want empty", upload.Location)
	}
}
