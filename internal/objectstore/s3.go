// Package objectstore wraps the S3 data bucket: object reads for the
// pipeline, presigned write handles for the upload surface, and prefix
// deletion for teardown.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client used by the Store.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// PresignAPI is the subset of the S3 presign client used by the Store.
type PresignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Store provides bucket-scoped object operations.
type Store struct {
	client    S3API
	presigner PresignAPI
	bucket    string
}

// Option configures a Store.
type Option func(*Store)

// WithPresigner sets a custom presign client (useful for testing).
func WithPresigner(p PresignAPI) Option {
	return func(s *Store) { s.presigner = p }
}

// New creates a Store for the given bucket.
func New(client S3API, bucket string, opts ...Option) *Store {
	s := &Store{client: client, bucket: bucket}
	for _, o := range opts {
		o(s)
	}
	if s.presigner == nil {
		if c, ok := client.(*s3.Client); ok {
			s.presigner = s3.NewPresignClient(c)
		}
	}
	return s
}

// Bucket returns the bucket name the store is bound to.
func (s *Store) Bucket() string {
	return s.bucket
}

// Get downloads one object's content.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: getting %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("objectstore: reading %s: %w", key, err)
	}
	return data, nil
}

// PresignPut returns a presigned PUT URL for the given key.
func (s *Store) PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (string, error) {
	if s.presigner == nil {
		return "", fmt.Errorf("objectstore: no presign client configured")
	}
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		ContentType: &contentType,
	}, func(o *s3.PresignOptions) {
		o.Expires = expiry
	})
	if err != nil {
		return "", fmt.Errorf("objectstore: presigning %s: %w", key, err)
	}
	return req.URL, nil
}

// DeletePrefix removes every object under prefix and returns the count.
func (s *Store) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	deleted := 0
	var token *string

	for {
		page, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            &s.bucket,
			Prefix:            &prefix,
			ContinuationToken: token,
		})
		if err != nil {
			return deleted, fmt.Errorf("objectstore: listing %s: %w", prefix, err)
		}

		if len(page.Contents) > 0 {
			objects := make([]s3types.ObjectIdentifier, 0, len(page.Contents))
			for _, obj := range page.Contents {
				objects = append(objects, s3types.ObjectIdentifier{Key: obj.Key})
			}
			_, err = s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: &s.bucket,
				Delete: &s3types.Delete{Objects: objects},
			})
			if err != nil {
				return deleted, fmt.Errorf("objectstore: deleting under %s: %w", prefix, err)
			}
			deleted += len(objects)
		}

		if !aws.ToBool(page.IsTruncated) {
			break
		}
		token = page.NextContinuationToken
	}
	return deleted, nil
}
