// Package storage keeps profile photos in S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const MaxAvatarBytes = 5 << 20

var ErrUnsupportedImage = errors.New("unsupported image type")

var avatarExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// ObjectPutter is the slice of the S3 client the store uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	PublicURL       string
	AccessKeyID     string
	SecretAccessKey string
}

type AvatarStore struct {
	client    ObjectPutter
	bucket    string
	publicURL string
}

// NewS3AvatarStore loads AWS configuration the default way. A custom
// endpoint switches to path-style addressing for MinIO and friends.
func NewS3AvatarStore(ctx context.Context, cfg S3Config) (*AvatarStore, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	loadOptions := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOptions = append(loadOptions, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return NewAvatarStore(client, bucket, publicURL), nil
}

func NewAvatarStore(client ObjectPutter, bucket, publicURL string) *AvatarStore {
	return &AvatarStore{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

// Put uploads a new avatar object for accountID and returns its public URL.
// Each upload gets a fresh key so cached URLs never show a stale image.
func (s *AvatarStore) Put(ctx context.Context, accountID uuid.UUID, contentType string, body io.Reader) (string, error) {
	ext, ok := avatarExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, contentType)
	}

	key := fmt.Sprintf("avatars/%s/%s.%s", accountID, uuid.NewString(), ext)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	return s.publicURL + "/" + key, nil
}
