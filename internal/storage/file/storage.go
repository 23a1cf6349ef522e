package file

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/aliskhannn/image-versioner/internal/model"
)

// aclHeader is sent as-is by minio-go instead of being turned into user metadata.
const aclHeader = "x-amz-acl"

// Storage provides an S3-compatible storage backend using MinIO.
// Buckets are chosen per call since notifications name their own bucket.
type Storage struct {
	client *minio.Client
}

// NewStorage creates a new Storage instance connected to the specified MinIO server.
func NewStorage(endpoint, accessKey, secretKey, region string, useSSL bool) (*Storage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	return &Storage{client: client}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *Storage) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// Get downloads an object and its content type.
func (s *Storage) Get(ctx context.Context, bucket, key string) (model.Object, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return model.Object{}, fmt.Errorf("failed to load %s/%s: %w", bucket, key, err)
	}
	defer obj.Close()

	// GetObject is lazy; Stat surfaces missing objects and access errors.
	info, err := obj.Stat()
	if err != nil {
		return model.Object{}, fmt.Errorf("failed to stat %s/%s: %w", bucket, key, err)
	}

	body, err := io.ReadAll(obj)
	if err != nil {
		return model.Object{}, fmt.Errorf("failed to read %s/%s: %w", bucket, key, err)
	}

	return model.Object{Body: body, ContentType: info.ContentType, Metadata: lowerKeys(info.UserMetadata)}, nil
}

// Put uploads body to bucket/key, overwriting any existing object.
func (s *Storage) Put(ctx context.Context, bucket, key string, body []byte, opts model.PutOptions) error {
	putOpts := minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		CacheControl: opts.CacheControl,
		Expires:      opts.Expires,
	}
	putOpts.UserMetadata = make(map[string]string, len(opts.Metadata)+1)
	for k, v := range opts.Metadata {
		putOpts.UserMetadata[k] = v
	}
	if opts.PublicRead {
		putOpts.UserMetadata[aclHeader] = "public-read"
	}

	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(body), int64(len(body)), putOpts)
	if err != nil {
		return fmt.Errorf("failed to save %s/%s: %w", bucket, key, err)
	}

	return nil
}

// lowerKeys normalises user metadata keys; MinIO returns them canonicalised
// ("Derivative-Version").
func lowerKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.ToLower(k)] = v
	}
	return out
}
