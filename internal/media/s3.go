package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	appconfig "github.com/anthemlabs/anthem-api/internal/config"
)

// presignExpiry is how long presigned GET URLs stay valid when no CDN
// domain is configured.
const presignExpiry = 24 * time.Hour

// S3Store uploads media under a configured key prefix and returns either
// CDN-domain URLs or presigned URLs.
type S3Store struct {
	client       *s3.Client
	presign      *s3.PresignClient
	bucket       string
	prefix       string
	publicDomain string
	region       string
}

// NewS3Store builds the S3 backend and verifies the configured credentials
// once via STS GetCallerIdentity. Credential or configuration failure here
// is fatal to startup by design.
func NewS3Store(ctx context.Context, cfg appconfig.StorageConfig, logger *slog.Logger) (*S3Store, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 storage requires a bucket")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	identity, err := sts.NewFromConfig(awsCfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("s3 credential verification failed: %w", err)
	}
	logger.Info("s3 storage enabled",
		"bucket", cfg.S3Bucket,
		"region", cfg.AWSRegion,
		"identity", aws.ToString(identity.Arn))

	client := s3.NewFromConfig(awsCfg)

	return &S3Store{
		client:       client,
		presign:      s3.NewPresignClient(client),
		bucket:       cfg.S3Bucket,
		prefix:       strings.Trim(cfg.S3Prefix, "/"),
		publicDomain: strings.TrimRight(cfg.S3PublicDomain, "/"),
		region:       cfg.AWSRegion,
	}, nil
}

// Name identifies the backend.
func (s *S3Store) Name() string { return "s3" }

// Bucket returns the configured bucket for health reporting.
func (s *S3Store) Bucket() string { return s.bucket }

// Region returns the configured region for health reporting.
func (s *S3Store) Region() string { return s.region }

// CDN describes how URLs are produced: the CDN domain, or "presigned".
func (s *S3Store) CDN() string {
	if s.publicDomain != "" {
		return s.publicDomain
	}
	return "presigned"
}

// Save uploads the content under the key prefix and returns its URL.
func (s *S3Store) Save(
	ctx context.Context,
	r io.Reader,
	key string,
	contentType string,
) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	fullKey := s.objectKey(key)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(fullKey),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return s.urlForKey(ctx, fullKey)
}

// SaveUploadAudit uploads the original input file as an audit copy.
func (s *S3Store) SaveUploadAudit(ctx context.Context, localPath, key, contentType string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open upload for audit copy: %w", err)
	}
	defer func() { _ = f.Close() }()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload audit copy %s: %w", key, err)
	}
	return nil
}

// Ping checks live bucket connectivity.
func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %s unreachable: %w", s.bucket, err)
	}
	return nil
}

func (s *S3Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

// urlForKey prefers the CDN domain when configured, falling back to a
// time-limited presigned URL.
func (s *S3Store) urlForKey(ctx context.Context, fullKey string) (string, error) {
	if s.publicDomain != "" {
		return s.publicDomain + "/" + fullKey, nil
	}

	presigned, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fullKey),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", fullKey, err)
	}
	return presigned.URL, nil
}
