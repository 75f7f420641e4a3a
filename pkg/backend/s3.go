package backend

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
)

const defaultS3Timeout = 30 * time.Second

// S3API is the subset of the S3 client used by the object-store backend.
type S3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3 implements FileSystem over an object store. Paths have the form
// "bucket/key"; the bucket itself and every key prefix that has objects below
// it behave as directories.
type S3 struct {
	client  S3API
	timeout time.Duration
}

// NewS3 returns an object-store backend. A zero timeout selects the default
// per-request timeout.
func NewS3(client S3API, timeout time.Duration) *S3 {
	if timeout <= 0 {
		timeout = defaultS3Timeout
	}
	return &S3{client: client, timeout: timeout}
}

func splitBucket(path string) (bucket, key string) {
	path = strings.TrimPrefix(path, "s3://")
	path = strings.Trim(path, "/")
	if idx := strings.IndexByte(path, '/'); idx >= 0 {
		return path[:idx], path[idx+1:]
	}
	return path, ""
}

// classify separates answered requests from a backend that cannot be reached.
func (b *S3) classify(op, path string, err error) error {
	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) {
		if respErr.HTTPStatusCode() >= http.StatusInternalServerError {
			return unavailable(op, path, err)
		}
		return errors.Wrapf(err, "%s %s", op, path)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return errors.Wrapf(err, "%s %s", op, path)
	}
	return unavailable(op, path, err)
}

func (b *S3) Exists(path string) (bool, error) {
	bucket, key := splitBucket(path)
	if bucket == "" {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	if key == "" {
		_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
		if err != nil {
			if err = b.classify("exists", path, err); IsUnavailable(err) {
				return false, err
			}
			return false, nil
		}
		return true, nil
	}

	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if err = b.classify("exists", path, err); IsUnavailable(err) {
		return false, err
	}

	return b.hasChildren(ctx, path, bucket, key)
}

func (b *S3) IsDir(path string) (bool, error) {
	bucket, key := splitBucket(path)
	if bucket == "" {
		return false, nil
	}
	if key == "" {
		// Bucket names are directories.
		return true, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	return b.hasChildren(ctx, path, bucket, key)
}

func (b *S3) hasChildren(ctx context.Context, path, bucket, key string) (bool, error) {
	out, err := b.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(key + "/"),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		if err = b.classify("isdir", path, err); IsUnavailable(err) {
			return false, err
		}
		return false, nil
	}
	return aws.ToInt32(out.KeyCount) > 0 || len(out.Contents) > 0 || len(out.CommonPrefixes) > 0, nil
}

func (b *S3) ListDir(path string) ([]string, error) {
	bucket, key := splitBucket(path)
	if bucket == "" {
		return nil, notFound("listdir", path)
	}

	prefix := ""
	if key != "" {
		prefix = key + "/"
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	seen := map[string]bool{}
	names := []string{}
	found := false
	add := func(name string) {
		found = true
		name = strings.TrimSuffix(strings.TrimPrefix(name, prefix), "/")
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, b.classify("listdir", path, err)
		}
		for _, cp := range page.CommonPrefixes {
			add(aws.ToString(cp.Prefix))
		}
		for _, obj := range page.Contents {
			add(aws.ToString(obj.Key))
		}
	}

	if !found && key != "" {
		// A prefix without objects is not a directory, it may be a plain object.
		return nil, notDir("listdir", path)
	}

	return names, nil
}
