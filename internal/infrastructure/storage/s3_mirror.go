// Package storage mirrors rendered artifacts to S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/erp/orderprint/internal/infrastructure/config"
	"go.uber.org/zap"
)

const pdfContentType = "application/pdf"

// objectAPI is the subset of the S3 client the mirror calls
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3Mirror copies artifacts to a bucket under KeyPrefix.
// It is compatible with any S3-compatible storage (AWS S3, RustFS, MinIO, etc.)
type S3Mirror struct {
	client    objectAPI
	bucket    string
	keyPrefix string
	logger    *zap.Logger
}

// S3MirrorOption is a functional option for configuring S3Mirror
type S3MirrorOption func(*S3Mirror)

// WithLogger sets a custom logger for S3Mirror
func WithLogger(logger *zap.Logger) S3MirrorOption {
	return func(m *S3Mirror) {
		m.logger = logger
	}
}

// withClient replaces the S3 client, used by tests
func withClient(client objectAPI) S3MirrorOption {
	return func(m *S3Mirror) {
		m.client = client
	}
}

// NewS3Mirror creates a mirror from configuration.
func NewS3Mirror(cfg *config.MirrorConfig, opts ...S3MirrorOption) (*S3Mirror, error) {
	if cfg == nil {
		return nil, errors.New("mirror configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("mirror bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("mirror access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("mirror secret key is required")
	}

	m := &S3Mirror{
		bucket:    cfg.Bucket,
		keyPrefix: strings.Trim(cfg.KeyPrefix, "/"),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.client != nil {
		return m, nil
	}

	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	m.client = client
	return m, nil
}

func newClient(cfg *config.MirrorConfig) (*s3.Client, error) {
	endpoint, err := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// normalizeEndpoint adds the scheme to a bare host. An empty endpoint keeps
// the SDK's regional AWS endpoint.
func normalizeEndpoint(endpoint string, useSSL bool) (string, error) {
	if endpoint == "" {
		return "", nil
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if useSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return "", fmt.Errorf("invalid mirror endpoint: %w", err)
	}
	return endpoint, nil
}

// ObjectKey returns the bucket key for a storage-relative artifact path
func (m *S3Mirror) ObjectKey(relative string) string {
	relative = strings.TrimLeft(relative, "/")
	if m.keyPrefix == "" {
		return relative
	}
	return path.Join(m.keyPrefix, relative)
}

// Upload puts data under ObjectKey(key).
func (m *S3Mirror) Upload(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return errors.New("object key is required")
	}

	objectKey := m.ObjectKey(key)
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(pdfContentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", objectKey, err)
	}

	m.logger.Debug("Artifact mirrored",
		zap.String("bucket", m.bucket),
		zap.String("key", objectKey),
		zap.Int("size", len(data)),
	)
	return nil
}

// EnsureBucket creates the bucket if it doesn't exist.
// Call this during application startup to ensure the bucket is ready.
func (m *S3Mirror) EnsureBucket(ctx context.Context) error {
	_, err := m.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(m.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	m.logger.Info("Creating mirror bucket", zap.String("bucket", m.bucket))
	_, err = m.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(m.bucket),
	})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Bucket returns the bucket name
func (m *S3Mirror) Bucket() string {
	return m.bucket
}
