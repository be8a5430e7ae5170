package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"photoshare/internal/observability"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Options configures an S3Store.
type S3Options struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint overrides the AWS endpoint, e.g. for MinIO. Path-style
	// addressing is used when it is set.
	Endpoint   string
	PublicRead bool
}

// S3Store keeps objects in a single S3 bucket.
type S3Store struct {
	bucket     string
	region     string
	endpoint   string
	publicRead bool
	client     *s3.S3
	uploader   *s3manager.Uploader
}

// NewS3Store opens an AWS session. Static credentials are used when given,
// otherwise the SDK's default chain applies.
func NewS3Store(opts S3Options) (*S3Store, error) {
	awsConfig := aws.NewConfig().
		WithRegion(opts.Region).
		WithMaxRetries(3)
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		awsConfig = awsConfig.WithCredentials(credentials.NewStaticCredentials(opts.AccessKeyID, opts.SecretAccessKey, ""))
	}
	if opts.Endpoint != "" {
		awsConfig = awsConfig.WithEndpoint(opts.Endpoint).WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}

	return &S3Store{
		bucket:     opts.Bucket,
		region:     opts.Region,
		endpoint:   strings.TrimRight(opts.Endpoint, "/"),
		publicRead: opts.PublicRead,
		client:     s3.New(sess),
		uploader:   s3manager.NewUploader(sess),
	}, nil
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, body []byte) (url string, err error) {
	ctx, span := observability.StartStorageSpan(ctx, "s3", "put", key)
	defer func() { observability.EndSpan(span, err) }()

	key, err = cleanKey(key)
	if err != nil {
		return "", err
	}

	input := &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	}
	if s.publicRead {
		input.ACL = aws.String("public-read")
	}

	if _, err := s.uploader.UploadWithContext(ctx, input); err != nil {
		return "", fmt.Errorf("upload %s to bucket %s: %w", key, s.bucket, err)
	}
	return s.URL(key), nil
}

func (s *S3Store) Delete(ctx context.Context, key string) (err error) {
	ctx, span := observability.StartStorageSpan(ctx, "s3", "delete", key)
	defer func() { observability.EndSpan(span, err) }()

	key, err = cleanKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s from bucket %s: %w", key, s.bucket, err)
	}
	return nil
}

// URL is the public address of key.
func (s *S3Store) URL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
