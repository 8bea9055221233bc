// Package s3kv implements kv.Store on an S3-compatible object store
// (AWS S3, MinIO). Keys map to object keys; Update relies on ETag
// conditional writes, retrying a bounded number of times when another
// writer got in between.
package s3kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/digivault/digivault/internal/kv"
)

// maxCASAttempts bounds the Update retry loop; with a single logical owner
// session contention is rare and short.
const maxCASAttempts = 5

type Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string // e.g. http://127.0.0.1:9000/ for MinIO
	AccessKey    string
	SecretKey    string
}

type Store struct {
	client *s3.Client
	bucket string
}

// New builds an S3 client for the configured endpoint and returns a Store.
// Path-style addressing is used so MinIO works out of the box.
func New(ctx context.Context, cfg Config) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config error: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	v, _, err := s.getWithETag(ctx, key)
	return v, err
}

func (s *Store) getWithETag(ctx context.Context, key string) ([]byte, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, "", kv.ErrNotFound
		}
		return nil, "", fmt.Errorf("get object error: %w", err)
	}
	defer out.Body.Close()

	v, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read object error: %w", err)
	}
	return v, aws.ToString(out.ETag), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(value),
	})
	if err != nil {
		return fmt.Errorf("put object error: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object error: %w", err)
	}
	return nil
}

func (s *Store) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects error: %w", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// Update implements the read-modify-write with conditional writes: both the
// replacement put and the remove delete carry the ETag from the read, so
// they only succeed if the object is unchanged since then. Otherwise the
// whole cycle is retried with the fresh value.
func (s *Store) Update(ctx context.Context, key string, fn kv.UpdateFunc) error {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		cur, etag, err := s.getWithETag(ctx, key)
		if err != nil {
			return err
		}

		next, err := fn(cur)
		if err != nil {
			if errors.Is(err, kv.ErrRemove) {
				_, derr := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
					Bucket:  aws.String(s.bucket),
					Key:     aws.String(key),
					IfMatch: aws.String(etag),
				})
				if derr == nil {
					return nil
				}
				if !isPreconditionFailed(derr) && !isNotFound(derr) {
					return fmt.Errorf("conditional delete error: %w", derr)
				}
				// somebody else removed or rewrote the object first;
				// reread so fn decides against the current state
				continue
			}
			return err
		}

		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:  aws.String(s.bucket),
			Key:     aws.String(key),
			Body:    bytes.NewReader(next),
			IfMatch: aws.String(etag),
		})
		if err == nil {
			return nil
		}
		if !isPreconditionFailed(err) {
			return fmt.Errorf("conditional put error: %w", err)
		}
		// somebody else won the race, reread and retry
	}
	return fmt.Errorf("update %q: too many concurrent writers", key)
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	// only GetObject carries the typed NoSuchKey; other operations report
	// the bare code
	return apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey"
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed"
}
