// Package blobstore stores receipt artifacts in an S3 bucket under durable
// public URLs.
package blobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
)

// Store is the narrow interface the pipeline and record service depend on.
type Store interface {
	// Put uploads a local file under the given object key and returns its
	// public URL.
	Put(ctx context.Context, localPath, key string) (string, error)
	// DeleteKey removes an object by key.
	DeleteKey(ctx context.Context, key string) error
	// Delete removes an object addressed by its public URL. It reports
	// false when the URL does not belong to the configured bucket.
	Delete(ctx context.Context, publicURL string) (bool, error)
}

// S3Store implements Store against S3 or an S3-compatible endpoint.
type S3Store struct {
	client *s3.Client
	cfg    *Config
}

// NewS3Store creates a blob store client and verifies bucket access.
func NewS3Store(ctx context.Context, cfg *Config) (*S3Store, error) {
	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	store := &S3Store{client: client, cfg: cfg}

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	}); err != nil {
		return nil, fmt.Errorf("bucket %s not accessible: %w", cfg.Bucket, err)
	}

	log.Infof("[BlobStore] Connected to bucket %s", cfg.Bucket)
	return store, nil
}

// Put uploads a local file and returns its public URL.
func (s *S3Store) Put(ctx context.Context, localPath, key string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", localPath, err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat file %s: %w", localPath, err)
	}

	contentType := getContentType(filepath.Ext(localPath))

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          file,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(fileInfo.Size()),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	log.Infof("[BlobStore] Uploaded s3://%s/%s (%d bytes)", s.cfg.Bucket, key, fileInfo.Size())
	return s.cfg.PublicURL(key), nil
}

// DeleteKey removes an object by key.
func (s *S3Store) DeleteKey(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Delete removes an object addressed by its public URL.
func (s *S3Store) Delete(ctx context.Context, publicURL string) (bool, error) {
	key := s.cfg.KeyFromURL(publicURL)
	if key == "" {
		return false, nil
	}
	if err := s.DeleteKey(ctx, key); err != nil {
		return false, err
	}
	return true, nil
}

// getContentType maps a file extension to a MIME type
func getContentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
