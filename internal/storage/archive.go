// Package storage keeps a best-effort S3 archive of finished exports so
// operators can retrieve a file after their browser session is gone.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pmani/ad-mosaic/internal/config"
)

const exportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// s3PutAPI is the slice of the S3 client the archiver uses.
type s3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver uploads finished export files to an S3 bucket.
type Archiver struct {
	client s3PutAPI
	bucket string
	now    func() time.Time
}

// NewArchiver builds an archiver from the export configuration. It returns
// nil when no bucket is configured; callers treat a nil archiver as
// archiving disabled.
func NewArchiver(ctx context.Context, cfg config.ExportConfig) (*Archiver, error) {
	if cfg.ArchiveS3Bucket == "" {
		return nil, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.ArchiveS3Region),
	}
	if profile := cfg.GetAWSProfile(); profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &Archiver{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.ArchiveS3Bucket,
		now:    time.Now,
	}, nil
}

// NewArchiverWithClient is for tests.
func NewArchiverWithClient(client s3PutAPI, bucket string) *Archiver {
	return &Archiver{client: client, bucket: bucket, now: time.Now}
}

// Archive stores one export file and returns its object key.
func (a *Archiver) Archive(ctx context.Context, filename string, data []byte) (string, error) {
	key := fmt.Sprintf("exports/%s/%s_%s",
		a.now().UTC().Format("2006/01/02"),
		a.now().UTC().Format("150405"),
		filename,
	)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &a.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: stringPtr(exportContentType),
	})
	if err != nil {
		return "", fmt.Errorf("archiving %s: %w", filename, err)
	}
	return key, nil
}

func stringPtr(s string) *string { return &s }
