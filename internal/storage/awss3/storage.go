// Package awss3 is the AWS S3 storage backend.
package awss3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/aliskhannn/image-versioner/internal/model"
)

// api is the subset of the S3 client the storage uses.
type api interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Options configure the S3 client. Empty credentials fall back to the
// default AWS chain (environment, shared config, instance or Lambda role).
type Options struct {
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// Storage reads sources from and writes derivatives to S3.
type Storage struct {
	client api
}

// NewStorage loads the AWS configuration and creates the S3 client.
func NewStorage(ctx context.Context, o Options) (*Storage, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if o.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(o.Region))
	}
	if o.AccessKey != "" && o.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
		}
		so.UsePathStyle = o.UsePathStyle
	})

	return &Storage{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client api) *Storage {
	return &Storage{client: client}
}

// Get downloads an object and its content type.
func (s *Storage) Get(ctx context.Context, bucket, key string) (model.Object, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return model.Object{}, fmt.Errorf("failed to download %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return model.Object{}, fmt.Errorf("failed to read body for %s/%s: %w", bucket, key, err)
	}

	metadata := make(map[string]string, len(out.Metadata))
	for k, v := range out.Metadata {
		metadata[strings.ToLower(k)] = v
	}

	return model.Object{Body: body, ContentType: aws.ToString(out.ContentType), Metadata: metadata}, nil
}

// Put uploads body to bucket/key, overwriting any existing object.
func (s *Storage) Put(ctx context.Context, bucket, key string, body []byte, opts model.PutOptions) error {
	in := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(opts.ContentType),
	}
	if opts.CacheControl != "" {
		in.CacheControl = aws.String(opts.CacheControl)
	}
	if !opts.Expires.IsZero() {
		in.Expires = aws.Time(opts.Expires)
	}
	if opts.PublicRead {
		in.ACL = types.ObjectCannedACLPublicRead
	}
	if len(opts.Metadata) > 0 {
		in.Metadata = opts.Metadata
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("failed to upload %s/%s: %w", bucket, key, err)
	}

	return nil
}
