package images

import (
	"context"
	"fmt"
	"smartcook/internal/config"
	"smartcook/internal/logging"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3 implements Host with presigned object storage URLs. Variants map to key prefixes
// other than the default, which is the original upload.
type S3 struct {
	bucket  string
	presign *s3.PresignClient
	ttl     time.Duration
	newID   func() string
}

// NewS3 builds an S3 host. Static credentials are used when both keys are set,
// otherwise the default AWS credential chain applies.
func NewS3(ctx context.Context, cfg config.ImagesConfig) (*S3, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, fmt.Errorf("%w: s3 bucket and region are required", ErrNotConfigured)
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return &S3{
		bucket:  cfg.Bucket,
		presign: s3.NewPresignClient(client),
		ttl:     cfg.GetSignedURLTTL(),
		newID:   uuid.NewString,
	}, nil
}

func (s *S3) key(imageID, variant string) string {
	if variant == "" || variant == DefaultVariant {
		return "images/" + imageID
	}
	return "images/" + variant + "/" + imageID
}

// DirectUpload returns a presigned PUT for a fresh object key.
func (s *S3) DirectUpload(ctx context.Context, metadata map[string]any) (Upload, error) {
	id := s.newID()

	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = fmt.Sprint(v)
	}

	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(s.key(id, "")),
		Metadata: meta,
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		logging.Get(logging.CategoryImages).Error("Presign PUT failed: %v", err)
		return Upload{}, fmt.Errorf("%w: %v", ErrUploadURL, err)
	}
	return Upload{ImageID: id, UploadURL: req.URL}, nil
}

// SignedURL returns a presigned GET for the image.
func (s *S3) SignedURL(ctx context.Context, imageID, variant string) (string, error) {
	if imageID == "" {
		return "", fmt.Errorf("image id is required")
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(imageID, variant)),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}
