// utils/r2.go
package utils

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	appconfig "bonus-hunt-service/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter is the part of the S3 client R2Store needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// R2Store uploads hunt archives to a Cloudflare R2 bucket through the S3 API.
type R2Store struct {
	client     ObjectPutter
	bucket     string
	cdnBaseURL string
}

func NewR2Store(ctx context.Context, cfg appconfig.R2) (*R2Store, error) {
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
	return NewR2StoreWithClient(client, cfg.Bucket, cfg.CDNBaseURL, endpoint), nil
}

// NewR2StoreWithClient wraps an existing client. Public URLs use cdnBaseURL, or the bucket endpoint when empty.
func NewR2StoreWithClient(client ObjectPutter, bucket, cdnBaseURL, endpoint string) *R2Store {
	if cdnBaseURL == "" {
		cdnBaseURL = endpoint + "/" + bucket
	}
	return &R2Store{
		client:     client,
		bucket:     bucket,
		cdnBaseURL: strings.TrimRight(cdnBaseURL, "/"),
	}
}

// Upload stores body under key and returns its public URL.
func (s *R2Store) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}

	return fmt.Sprintf("%s/%s", s.cdnBaseURL, key), nil
}
