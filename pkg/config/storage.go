package config

import (
	"fmt"
	"strings"
)

// StorageConfig describes the S3-compatible object storage used for product images.
// Missing credentials leave uploads unconfigured.
type StorageConfig struct {
	Endpoint       string      `koanf:"endpoint"`
	Region         string      `koanf:"region"`
	AccessKey      string      `koanf:"accesskey"`
	SecretKey      string      `koanf:"secretkey"`
	UsePathStyle   bool        `koanf:"pathstyle"`
	PublicURL      string      `koanf:"publicurl"`
	Bucket         string      `koanf:"bucket"`
	MaxUploadBytes int64       `koanf:"maxuploadbytes"`
	Retry          RetryConfig `koanf:"retry"`
}

const (
	defaultBucket         = "product-images"
	defaultRegion         = "us-east-1"
	defaultMaxUploadBytes = 10 << 20
)

// Configured reports whether object storage credentials were supplied.
func (c *StorageConfig) Configured() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != ""
}

// String returns a string representation of the storage configuration. Secrets are masked.
func (c *StorageConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Object Storage ---\n")
	b.WriteString(fmt.Sprintf("  endpoint: %s\n", orNotConfigured(c.Endpoint)))
	b.WriteString(fmt.Sprintf("  region: %s\n", c.Region))
	b.WriteString(fmt.Sprintf("  accesskey: %s\n", mask(c.AccessKey)))
	b.WriteString(fmt.Sprintf("  secretkey: %s\n", mask(c.SecretKey)))
	b.WriteString(fmt.Sprintf("  pathstyle: %t\n", c.UsePathStyle))
	b.WriteString(fmt.Sprintf("  publicurl: %s\n", c.PublicURL))
	b.WriteString(fmt.Sprintf("  bucket: %s\n", c.Bucket))
	b.WriteString(fmt.Sprintf("  maxuploadbytes: %d\n", c.MaxUploadBytes))
	b.WriteString(c.Retry.String())
	return b.String()
}

func (c *StorageConfig) Validate() error {
	if c.Bucket == "" {
		c.Bucket = defaultBucket
	}
	if c.Region == "" {
		c.Region = defaultRegion
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = defaultMaxUploadBytes
	}
	if c.PublicURL == "" {
		c.PublicURL = c.Endpoint
	}
	if c.Endpoint != "" && !strings.HasPrefix(c.Endpoint, "http://") && !strings.HasPrefix(c.Endpoint, "https://") {
		return fmt.Errorf("storage endpoint must start with 'http://' or 'https://': %s", c.Endpoint)
	}
	return c.Retry.Validate()
}

func orNotConfigured(v string) string {
	if v == "" {
		return "<not configured>"
	}
	return v
}

func mask(v string) string {
	if v == "" {
		return "<not configured>"
	}
	return "****"
}
