package s3

import (
	"bytes"
	"context"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/config"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/errors"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/models"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/repository/files"
	nuts "github.com/vaudience/go-nuts"
)

// putObjectAPI is the subset of *s3.Client the archive needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ObjectRepo keeps raw ingestion uploads in an S3 compatible bucket.
type ObjectRepo struct {
	client putObjectAPI
	bucket string
	prefix string
}

// NewObjectRepository builds an S3 client from the default credential chain.
// A non-empty Endpoint switches to path-style addressing for S3 compatible stores.
func NewObjectRepository(ctx context.Context, cfg config.ArchiveConfig) (*ObjectRepo, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, errors.NewInternalError("failed to load AWS configuration", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	nuts.L.Infof("[ObjectRepo] Archiving uploads to s3://%s/%s", cfg.Bucket, cfg.Prefix)
	return newObjectRepo(client, cfg.Bucket, cfg.Prefix), nil
}

func newObjectRepo(client putObjectAPI, bucket, prefix string) *ObjectRepo {
	return &ObjectRepo{client: client, bucket: bucket, prefix: prefix}
}

// Store uploads the raw bytes and records the s3:// location in upload.Location.
func (r *ObjectRepo) Store(ctx context.Context, upload *models.ArchivedUpload) error {
	key := path.Join(r.prefix, files.ArchiveKey(upload))

	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(upload.Data),
		ContentLength: aws.Int64(int64(len(upload.Data))),
		ContentType:   aws.String("application/json"),
		Metadata: map[string]string{
			"request-id":        upload.RequestID,
			"original-filename": upload.Filename,
		},
	})
	if err != nil {
		return errors.NewInternalError("failed to upload to object storage", err)
	}
	upload.Location = "s3://" + r.bucket + "/" + key

	nuts.L.Infof("[ObjectRepo] Stored upload: %s", upload.Location)
	return nil
}
