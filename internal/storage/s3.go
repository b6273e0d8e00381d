package storage

import (
	"context"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// GetObjectAPI is the interface for the S3 GetObject operation.
// Used for testing with mock implementations.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store reads messages that an SES receipt rule saved to S3.
type S3Store struct {
	client GetObjectAPI
}

// NewS3 creates an S3Store. The client is safe to share across invocations.
func NewS3(client GetObjectAPI) *S3Store {
	return &S3Store{client: client}
}

// Get downloads the object body.
func (s *S3Store) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	slog.Debug("fetching message from s3", "bucket", bucket, "key", key)

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fetchError(bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fetchError(bucket, key, err)
	}
	return data, nil
}

// Name returns the store name.
func (s *S3Store) Name() string {
	return "s3"
}
