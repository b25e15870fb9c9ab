package config

import (
	"fmt"
	"time"
)

// Image host providers.
const (
	ImageProviderCloudflare = "cloudflare"
	ImageProviderS3         = "s3"
)

// ImagesConfig configures where photos are uploaded and how retrieval URLs are signed.
type ImagesConfig struct {
	Provider     string `yaml:"provider" env:"SMARTCOOK_IMAGES_PROVIDER"`
	SignedURLTTL string `yaml:"signed_url_ttl"`
	Variant      string `yaml:"variant"`

	// Cloudflare Images
	AccountID   string `yaml:"account_id" env:"CLOUDFLARE_ACCOUNT_ID"`
	AccountHash string `yaml:"account_hash" env:"CLOUDFLARE_ACCOUNT_HASH"`
	APIToken    string `yaml:"api_token" env:"CLOUDFLARE_IMAGE_API_TOKEN"`
	SigningKey  string `yaml:"signing_key" env:"CLOUDFLARE_IMAGES_KEY"`

	// S3 or S3-compatible object storage
	Bucket         string `yaml:"bucket" env:"SMARTCOOK_S3_BUCKET"`
	Region         string `yaml:"region" env:"SMARTCOOK_S3_REGION"`
	Endpoint       string `yaml:"endpoint" env:"SMARTCOOK_S3_ENDPOINT"`
	AccessKeyID    string `yaml:"access_key_id" env:"AWS_ACCESS_KEY_ID"`
	SecretKey      string `yaml:"secret_key" env:"AWS_SECRET_ACCESS_KEY"`
	ForcePathStyle bool   `yaml:"force_path_style"`
}

// GetSignedURLTTL returns the lifetime of signed retrieval URLs.
func (c ImagesConfig) GetSignedURLTTL() time.Duration {
	return parseDuration(c.SignedURLTTL, time.Hour)
}

func (c ImagesConfig) validate() error {
	switch c.Provider {
	case ImageProviderCloudflare:
		if c.AccountID == "" || c.APIToken == "" {
			return fmt.Errorf("cloudflare images requires account_id and api_token")
		}
	case ImageProviderS3:
		if c.Bucket == "" || c.Region == "" {
			return fmt.Errorf("s3 images requires bucket and region")
		}
	default:
		return fmt.Errorf("invalid images provider: %s (valid: %s, %s)", c.Provider, ImageProviderCloudflare, ImageProviderS3)
	}
	return nil
}
