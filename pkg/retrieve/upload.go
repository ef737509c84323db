// Copyright (c) 2025, The Copper Authors.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package retrieve

import (
	"context"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	cerrors "github.com/velarno/copper/pkg/errors"
)

// S3Config addresses an S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Uploader puts downloaded files into a bucket, creating it on first use.
type S3Uploader struct {
	client   *minio.Client
	bucket   string
	region   string
	initOnce sync.Once
	initErr  error
}

// NewS3Uploader validates cfg and builds the object-store client.
func NewS3Uploader(cfg S3Config) (*S3Uploader, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, cerrors.Validation("upload.endpoint", "is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, cerrors.Validation("upload.bucket", "is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, cerrors.Validation("upload.access_key", "access key and secret key are required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidRequest, "failed to init object store client", err)
	}

	return &S3Uploader{client: client, bucket: bucket, region: region}, nil
}

func (u *S3Uploader) ensureBucket(ctx context.Context) error {
	u.initOnce.Do(func() {
		exists, err := u.client.BucketExists(ctx, u.bucket)
		if err != nil {
			u.initErr = err
			return
		}
		if exists {
			return
		}
		u.initErr = u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{Region: u.region})
	})
	return u.initErr
}

// Upload stores localPath under key and returns bucket/key.
func (u *S3Uploader) Upload(ctx context.Context, key, localPath string) (string, error) {
	if err := u.ensureBucket(ctx); err != nil {
		return "", cerrors.Wrap(cerrors.ErrCodeUnavailable, "failed to prepare bucket", err)
	}

	key = objectKey(key, localPath)
	info, err := u.client.FPutObject(ctx, u.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return "", cerrors.WrapWithContext(cerrors.ErrCodeUnavailable, "upload failed", err,
			map[string]any{"bucket": u.bucket, "key": key})
	}
	return path.Join(info.Bucket, info.Key), nil
}

// objectKey cleans key, falling back to the file name.
func objectKey(key, localPath string) string {
	key = strings.Trim(path.Clean("/"+strings.TrimSpace(key)), "/")
	if key == "" || key == "." {
		return filepath.Base(localPath)
	}
	return key
}
