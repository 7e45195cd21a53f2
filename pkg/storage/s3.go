package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client this store uses. *s3.Client
// satisfies it; tests substitute an in-memory fake.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3 is an object-per-key bucket store. It has no change feed, so it does
// not implement Watchable: cells backed by it see other contexts' writes
// only on re-initialization.
type S3 struct {
	client S3API
	bucket string
	prefix string
}

// S3Option configures an S3 store.
type S3Option func(*S3)

// WithS3Prefix sets the object key prefix. Default: "kv/".
func WithS3Prefix(prefix string) S3Option {
	return func(s *S3) {
		s.prefix = prefix
	}
}

// NewS3 creates a store writing objects into bucket.
func NewS3(client S3API, bucket string, opts ...S3Option) *S3 {
	s := &S3{
		client: client,
		bucket: bucket,
		prefix: "kv/",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *S3) objectKey(key string) string {
	return s.prefix + key
}

// Get implements Store.
func (s *S3) Get(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("s3 get %q: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, fmt.Errorf("s3 read %q: %w", key, err)
	}
	return data, true, nil
}

// Set implements Store.
func (s *S3) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(value),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 put %q: %w", key, err)
	}
	return nil
}

// Delete implements Store. S3 deletion of a missing object already
// succeeds, matching the store contract.
func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %q: %w", key, err)
	}
	return nil
}

// Close implements Store. The injected client may be shared and stays open.
func (s *S3) Close() error {
	return nil
}
