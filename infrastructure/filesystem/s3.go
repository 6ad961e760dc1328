package filesystem

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3BlobStore uploads evidence photos to an S3 bucket.
type S3BlobStore struct {
	client     *s3.Client
	bucket     string
	prefix     string
	publicBase string
}

// NewS3BlobStore builds the store with the default AWS credential chain.
// publicBase overrides the generated object URL base (e.g. a CloudFront
// distribution); empty means the plain S3 URL.
func NewS3BlobStore(ctx context.Context, bucket, prefix, publicBase string) (*S3BlobStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &S3BlobStore{
		client:     s3.NewFromConfig(cfg),
		bucket:     bucket,
		prefix:     strings.Trim(prefix, "/"),
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

func (s *S3BlobStore) Upload(ctx context.Context, data []byte, contentType, fileName string) (string, error) {
	key := fileName
	if s.prefix != "" {
		key = s.prefix + "/" + fileName
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s in bucket %s: %w", key, s.bucket, err)
	}

	if s.publicBase != "" {
		return s.publicBase + "/" + key, nil
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key), nil
}
