// Package images talks to the image host that stores photo binaries: it hands out
// one-time upload URLs and time-limited signed retrieval URLs.
package images

import (
	"context"
	"errors"
	"fmt"
	"smartcook/internal/config"
)

var (
	// ErrUploadURL is returned when the host refuses to issue an upload URL.
	ErrUploadURL = errors.New("failed to get upload URL")
	// ErrNotConfigured is returned when signing credentials are missing.
	ErrNotConfigured = errors.New("image host not configured")
)

// DefaultVariant is the delivery variant used when none is requested.
const DefaultVariant = "public"

// Upload is a one-time upload slot.
type Upload struct {
	ImageID   string `json:"imageId"`
	UploadURL string `json:"uploadURL"`
}

// Host issues upload and retrieval URLs.
type Host interface {
	DirectUpload(ctx context.Context, metadata map[string]any) (Upload, error)
	SignedURL(ctx context.Context, imageID, variant string) (string, error)
}

// New selects the host named by cfg.Provider.
func New(ctx context.Context, cfg config.ImagesConfig) (Host, error) {
	switch cfg.Provider {
	case config.ImageProviderCloudflare:
		return NewCloudflare(cfg), nil
	case config.ImageProviderS3:
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown images provider %q", cfg.Provider)
	}
}
