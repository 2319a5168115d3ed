package mediastore

import (
	"strings"

	"github.com/ourstoryourvoice/osov/internal/pkg/env"
)

// Config holds the object storage settings for uploaded story and event images
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	EndpointURL     string
	PublicURL       string
}

// LoadConfig reads the S3_* variables
func LoadConfig() *Config {
	cfg := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		Bucket:          env.GetEnv("S3_BUCKET", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT", ""),
		PublicURL:       strings.TrimRight(env.GetEnv("S3_PUBLIC_URL", ""), "/"),
	}
	if cfg.PublicURL == "" && cfg.Bucket != "" {
		if cfg.EndpointURL != "" {
			cfg.PublicURL = strings.TrimRight(cfg.EndpointURL, "/") + "/" + cfg.Bucket
		} else {
			cfg.PublicURL = "https://" + cfg.Bucket + ".s3." + cfg.Region + ".amazonaws.com"
		}
	}
	return cfg
}

// IsEnabled is false until a bucket and credentials are configured
func (c *Config) IsEnabled() bool {
	return c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}
