package blobstore

import (
	"fmt"
	"strings"

	"github.com/smartscan-app/smartscan/internal/pkg/env"
)

// Config holds the S3 connection settings for the receipt blob store.
type Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	// EndpointURL is set for S3-compatible providers; empty means AWS.
	EndpointURL string
	// PublicBaseURL is the host blobs are served from. Public URLs have
	// the shape <PublicBaseURL>/<Bucket>/<key>.
	PublicBaseURL string
}

// LoadConfig reads the blob store settings from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Region:          env.GetEnv("S3_REGION", "ap-northeast-1"),
		Bucket:          env.GetEnv("S3_BUCKET", "smartscan-receipts"),
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		PublicBaseURL:   env.GetEnv("S3_PUBLIC_BASE_URL", ""),
	}

	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set")
	}

	if cfg.PublicBaseURL == "" {
		if cfg.EndpointURL != "" {
			cfg.PublicBaseURL = cfg.EndpointURL
		} else {
			cfg.PublicBaseURL = fmt.Sprintf("https://s3.%s.amazonaws.com", cfg.Region)
		}
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	return cfg, nil
}

// PublicURL returns the durable public URL for an object key.
func (c *Config) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", c.PublicBaseURL, c.Bucket, key)
}

// KeyFromURL recovers the object key from a public URL: the key is
// whatever follows the bucket name. Returns "" when the URL does not
// reference this bucket. Records store the key directly; this derivation
// exists for rows written before the key column was added.
func (c *Config) KeyFromURL(publicURL string) string {
	marker := c.Bucket + "/"
	idx := strings.Index(publicURL, marker)
	if idx == -1 {
		return ""
	}
	return publicURL[idx+len(marker):]
}
