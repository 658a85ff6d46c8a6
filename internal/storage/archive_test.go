package storage

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestArchive(t *testing.T) {
	fake := &fakeS3{}
	a := NewArchiverWithClient(fake, "export-bucket")
	a.now = func() time.Time { return time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC) }

	key, err := a.Archive(context.Background(), "ads_with_media.xlsx", []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, "exports/2026/08/29/103000_ads_with_media.xlsx", key)

	require.Len(t, fake.inputs, 1)
	in := fake.inputs[0]
	assert.Equal(t, "export-bucket", *in.Bucket)
	assert.Equal(t, key, *in.Key)
	assert.Equal(t, exportContentType, *in.ContentType)

	body, err := io.ReadAll(in.Body)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))
}

func TestArchiveUploadError(t *testing.T) {
	a := NewArchiverWithClient(&fakeS3{err: errors.New("denied")}, "export-bucket")
	_, err := a.Archive(context.Background(), "ads.xlsx", nil)
	require.Error(t, err)
}
