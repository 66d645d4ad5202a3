package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Store keeps objects in an S3 bucket.
type S3Store struct {
	client  S3API
	bucket  string
	baseURL string
}

// NewS3Store creates an S3-backed store using the default AWS credential
// chain. baseURL is the public prefix objects are served from; when empty
// the virtual-hosted bucket URL is used.
func NewS3Store(ctx context.Context, bucket, region, baseURL string) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return NewS3StoreWithClient(s3.NewFromConfig(cfg), bucket, baseURL), nil
}

// NewS3StoreWithClient wraps an existing client.
func NewS3StoreWithClient(client S3API, bucket, baseURL string) *S3Store {
	return &S3Store{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}
}

// Put uploads data under key and returns its public URL.
func (s *S3Store) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("putting object to S3 bucket %s: %w", s.bucket, err)
	}
	return s.baseURL + "/" + key, nil
}

// Ping checks that the bucket is reachable with the current credentials.
func (s *S3Store) Ping(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("HeadBucket %s: %w", s.bucket, err)
	}
	return nil
}

// Name identifies the backend in health output.
func (s *S3Store) Name() string { return "s3://" + s.bucket }
