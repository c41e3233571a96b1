// Package s3store implements an AWS S3 storage backend.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/discochess/tablebase/internal/store"
)

// Compile-time checks.
var (
	_ store.Store  = (*Store)(nil)
	_ store.Object = (*Object)(nil)
)

// Client is the subset of the S3 API used by the store.
type Client interface {
	s3.ListObjectsV2APIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store is an AWS S3 storage backend.
// Directories are emulated with "/"-delimited key prefixes.
type Store struct {
	client Client
	bucket string
	prefix string
}

// New creates a new S3 store.
// The bucket must already exist.
func New(ctx context.Context, bucketName string, opts ...Option) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	s := &Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucketName,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Option configures a Store.
type Option func(*Store) error

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(s *Store) error {
		s.prefix = strings.TrimSuffix(prefix, "/")
		if s.prefix != "" {
			s.prefix += "/"
		}
		return nil
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(s *Store) error {
		cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
		if err != nil {
			return fmt.Errorf("loading AWS config with region: %w", err)
		}
		s.client = s3.NewFromConfig(cfg)
		return nil
	}
}

// WithEndpoint sets a custom endpoint (for S3-compatible services like MinIO).
func WithEndpoint(endpoint string) Option {
	return func(s *Store) error {
		cfg, err := config.LoadDefaultConfig(context.Background())
		if err != nil {
			return fmt.Errorf("loading AWS config for endpoint: %w", err)
		}
		s.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
		return nil
	}
}

// WithClient replaces the S3 client.
func WithClient(c Client) Option {
	return func(s *Store) error {
		s.client = c
		return nil
	}
}

// ReadDir lists the keys and common prefixes directly below dir.
func (s *Store) ReadDir(ctx context.Context, dir string) ([]store.Entry, error) {
	// Check for cancellation before starting.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	prefix := s.dirKey(dir)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var entries []store.Entry
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", prefix, err)
		}
		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			if name != "" {
				entries = append(entries, store.Entry{Name: name, Dir: true})
			}
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name != "" && !strings.HasSuffix(name, "/") {
				entries = append(entries, store.Entry{Name: name})
			}
		}
	}

	if len(entries) == 0 && strings.Trim(dir, "/") != "" {
		return nil, fmt.Errorf("%s: %w", dir, store.ErrNotFound)
	}
	return entries, nil
}

// Open returns a handle reading the named key with ranged GETs.
func (s *Store) Open(ctx context.Context, name string) (store.Object, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	key := s.objectKey(name)
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		var nsk *types.NoSuchKey
		if errors.As(err, &nf) || errors.As(err, &nsk) {
			return nil, fmt.Errorf("%s: %w", name, store.ErrNotFound)
		}
		return nil, fmt.Errorf("head object: %w", err)
	}

	return &Object{
		client: s.client,
		bucket: s.bucket,
		key:    key,
		size:   aws.ToInt64(head.ContentLength),
	}, nil
}

// Close releases resources.
func (s *Store) Close() error {
	// S3 client doesn't need explicit closing.
	return nil
}

// objectKey returns the full key for a file name.
func (s *Store) objectKey(name string) string {
	return s.prefix + strings.TrimPrefix(name, "/")
}

// dirKey returns the listing prefix for a directory.
func (s *Store) dirKey(dir string) string {
	dir = strings.Trim(dir, "/")
	if dir == "" {
		return s.prefix
	}
	return s.prefix + dir + "/"
}

// Object is an S3 object read with ranged GETs.
type Object struct {
	client Client
	bucket string
	key    string
	size   int64
}

// ReadRange reads n bytes at off.
func (o *Object) ReadRange(ctx context.Context, off, n int64) ([]byte, error) {
	if off+n > o.size {
		return nil, io.ErrUnexpectedEOF
	}
	if n == 0 {
		return []byte{}, nil
	}

	result, err := o.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
		Range:  aws.String(byteRange(off, n)),
	})
	if err != nil {
		return nil, fmt.Errorf("reading range: %w", err)
	}
	defer result.Body.Close()

	buf := make([]byte, n)
	if _, err := io.ReadFull(result.Body, buf); err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return buf, nil
}

// Size returns the object size.
func (o *Object) Size() int64 {
	return o.size
}

// Close is a no-op.
func (o *Object) Close() error {
	return nil
}

// byteRange formats an inclusive HTTP Range header value.
func byteRange(off, n int64) string {
	return fmt.Sprintf("bytes=%d-%d", off, off+n-1)
}
