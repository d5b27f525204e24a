package storage

import (
	"bytes"
	"context"
	"fmt"

	"catalog/apperr"
	"catalog/models"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var _ Storage = (*S3)(nil)

type S3Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// PublicURL is prepended to keys to build asset URLs. Empty means
	// <endpoint>/<bucket>/<key>.
	PublicURL string
}

// S3 stores objects in any S3-compatible bucket (AWS, MinIO, R2, ...).
type S3 struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewS3(opts S3Options) (*S3, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	public := opts.PublicURL
	if public == "" {
		public = joinURL(client.EndpointURL().String(), opts.Bucket)
	}
	return &S3{client: client, bucket: opts.Bucket, publicURL: public}, nil
}

func (s *S3) Put(ctx context.Context, key string, data []byte, contentType string) (models.ImageAsset, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return models.ImageAsset{}, apperr.Storage(err, "put %s", key)
	}
	return models.ImageAsset{URL: joinURL(s.publicURL, key), StorageKey: key}, nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err == nil {
		return nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return nil
	}
	return apperr.Storage(err, "delete %s", key)
}
