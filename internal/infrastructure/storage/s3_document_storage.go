// Package storage provides object storage implementations for application documents.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	vehicleregapp "github.com/roads-authority/backend/internal/application/vehiclereg"
	infraconfig "github.com/roads-authority/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Ensure S3DocumentStorage implements DocumentStorage
var _ vehicleregapp.DocumentStorage = (*S3DocumentStorage)(nil)

// S3DocumentStorage stores supporting documents in an S3-compatible bucket
// (AWS S3, MinIO, RustFS, etc.) using AWS SDK v2.
type S3DocumentStorage struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	endpoint  string
	publicURL string
	logger    *zap.Logger
}

// S3DocumentStorageOption is a functional option for configuring S3DocumentStorage
type S3DocumentStorageOption func(*S3DocumentStorage)

// WithLogger sets a custom logger for S3DocumentStorage
func WithLogger(logger *zap.Logger) S3DocumentStorageOption {
	return func(s *S3DocumentStorage) {
		s.logger = logger
	}
}

// NewS3DocumentStorage creates a new S3DocumentStorage from configuration.
// keyPrefix namespaces all stored objects inside the bucket.
func NewS3DocumentStorage(cfg *infraconfig.StorageConfig, keyPrefix string, opts ...S3DocumentStorageOption) (*S3DocumentStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}

	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000" // MinIO default
	}

	// Ensure endpoint has protocol
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}

	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid storage endpoint: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"", // session token (not used for static credentials)
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	storage := &S3DocumentStorage{
		client:    client,
		bucket:    cfg.Bucket,
		keyPrefix: strings.Trim(keyPrefix, "/"),
		endpoint:  endpoint,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		logger:    zap.NewNop(),
	}

	for _, opt := range opts {
		opt(storage)
	}

	return storage, nil
}

// Store uploads a document and returns the URL it is addressed under.
// Object keys carry a random UUID so concurrent submissions never collide.
func (s *S3DocumentStorage) Store(ctx context.Context, doc *vehicleregapp.DocumentUpload) (string, error) {
	if doc == nil || doc.Content == nil {
		return "", errors.New("document content is required")
	}

	key := s.objectKey(doc.Filename)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        doc.Content,
		ContentType: aws.String(doc.ContentType),
	}
	if doc.Size > 0 {
		input.ContentLength = aws.Int64(doc.Size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload document: %w", err)
	}

	s.logger.Debug("document stored",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int64("size", doc.Size))

	return s.documentURL(key), nil
}

// Delete removes a previously stored document by its URL
func (s *S3DocumentStorage) Delete(ctx context.Context, documentURL string) error {
	key, err := s.keyFromURL(documentURL)
	if err != nil {
		return err
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	return nil
}

// objectKey builds the bucket key for a new document. The original filename
// only contributes its extension; the rest of the name is never trusted.
func (s *S3DocumentStorage) objectKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	key := uuid.New().String() + ext
	if s.keyPrefix != "" {
		return s.keyPrefix + "/" + key
	}
	return key
}

// documentURL maps a bucket key to its externally visible URL
func (s *S3DocumentStorage) documentURL(key string) string {
	if s.publicURL != "" {
		return s.publicURL + "/" + key
	}
	return s.endpoint + "/" + s.bucket + "/" + key
}

// keyFromURL maps a document URL back to its bucket key
func (s *S3DocumentStorage) keyFromURL(documentURL string) (string, error) {
	if documentURL == "" {
		return "", errors.New("document URL is required")
	}

	var base string
	if s.publicURL != "" {
		base = s.publicURL + "/"
	} else {
		base = s.endpoint + "/" + s.bucket + "/"
	}

	if !strings.HasPrefix(documentURL, base) {
		return "", fmt.Errorf("document URL does not belong to this storage: %s", documentURL)
	}

	key := strings.TrimPrefix(documentURL, base)
	if key == "" {
		return "", errors.New("document URL carries no object key")
	}
	return key, nil
}

// GetBucket returns the bucket name
func (s *S3DocumentStorage) GetBucket() string {
	return s.bucket
}
