package sink

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ternarybob/sitescreen/internal/common"
)

// S3BlobStore uploads screenshots to an S3-compatible bucket
type S3BlobStore struct {
	client  *s3.Client
	bucket  string
	prefix  string
	baseURL string
}

// NewS3BlobStore creates a store from blob configuration
func NewS3BlobStore(ctx context.Context, cfg common.S3Config) (*S3BlobStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket name is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("S3 region is required")
	}

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(cfg.Region))
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3BlobStore{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  strings.Trim(cfg.Prefix, "/"),
		baseURL: publicBaseURL(cfg),
	}, nil
}

// publicBaseURL is where uploaded keys can be fetched from without credentials
func publicBaseURL(cfg common.S3Config) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	if cfg.Endpoint != "" {
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}

// objectKey files screenshots under prefix/YYYY/MM/
func (s *S3BlobStore) objectKey(name string, now time.Time) string {
	return path.Join(s.prefix, fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", int(now.Month())), name)
}

// Upload puts the file and returns its public URL
func (s *S3BlobStore) Upload(ctx context.Context, localPath string, name string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	key := s.objectKey(name, time.Now())
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload screenshot to S3: %w", err)
	}

	return s.baseURL + "/" + key, nil
}
