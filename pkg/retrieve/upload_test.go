package retrieve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/velarno/copper/pkg/errors"
)

func TestNewS3Uploader_Validation(t *testing.T) {
	tests := []struct {
		name  string
		cfg   S3Config
		field string
	}{
		{"no endpoint", S3Config{Bucket: "b", AccessKey: "a", SecretKey: "s"}, "upload.endpoint"},
		{"no bucket", S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"}, "upload.bucket"},
		{"no credentials", S3Config{Endpoint: "localhost:9000", Bucket: "b"}, "upload.access_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3Uploader(tt.cfg)
			require.Error(t, err)
			assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeInvalidRequest))
			assert.Equal(t, tt.field, cerrors.Field(err))
		})
	}
}

func TestNewS3Uploader(t *testing.T) {
	u, err := NewS3Uploader(S3Config{
		Endpoint:  "localhost:9000",
		Bucket:    "reanalysis",
		AccessKey: "minio",
		SecretKey: "minio123",
	})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", u.region)
	assert.Equal(t, "reanalysis", u.bucket)
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		key, path, want string
	}{
		{"era5/era5-run.nc", "/tmp/era5-run.nc", "era5/era5-run.nc"},
		{"/era5//x.nc", "/tmp/x.nc", "era5/x.nc"},
		{"../../etc/x.nc", "/tmp/x.nc", "etc/x.nc"},
		{"  ", "/tmp/x.nc", "x.nc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, objectKey(tt.key, tt.path))
	}
}
