// Package storage hands out presigned upload URLs for user media.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/oggyb/elite-matchmaking/internal/config"
)

var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// ErrUnsupportedType is returned for content types that are not images.
var ErrUnsupportedType = errors.New("unsupported content type")

// Upload is a presigned PUT plus the URL the object will be served from.
type Upload struct {
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expires_in"`
}

// Presigner signs S3 PUT requests. No network call is made to sign.
type Presigner struct {
	client   *s3.PresignClient
	bucket   string
	region   string
	endpoint string
	expiry   time.Duration
}

// NewPresigner loads AWS configuration for the configured region. Static keys
// are used when provided; otherwise the default credential chain applies.
func NewPresigner(ctx context.Context, cfg *config.Config) (*Presigner, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3.Region),
	}
	if cfg.S3.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
			o.UsePathStyle = true
		}
	})

	expiry := cfg.S3.URLExpiry
	if expiry <= 0 {
		expiry = 5 * time.Minute
	}

	return &Presigner{
		client:   s3.NewPresignClient(client),
		bucket:   cfg.S3.Bucket,
		region:   cfg.S3.Region,
		endpoint: strings.TrimRight(cfg.S3.Endpoint, "/"),
		expiry:   expiry,
	}, nil
}

// PresignImage returns an upload slot under prefix (e.g. "profiles/<id>").
func (p *Presigner) PresignImage(ctx context.Context, prefix, contentType string) (*Upload, error) {
	ext, ok := allowedImageTypes[strings.ToLower(contentType)]
	if !ok {
		return nil, ErrUnsupportedType
	}

	key := fmt.Sprintf("%s/%s.%s", strings.Trim(prefix, "/"), uuid.NewString(), ext)

	req, err := p.client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = p.expiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	return &Upload{
		UploadURL: req.URL,
		PublicURL: p.publicURL(key),
		Key:       key,
		ExpiresIn: int(p.expiry.Seconds()),
	}, nil
}

func (p *Presigner) publicURL(key string) string {
	if p.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", p.endpoint, p.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.bucket, p.region, key)
}
