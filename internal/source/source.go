// Package source opens input tables from a local directory or an S3 prefix.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrNotFound reports a table that does not exist in the source.
var ErrNotFound = errors.New("table not found")

// Source opens named input tables.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	String() string
}

// S3API is the subset of the S3 client used by S3Source.
type S3API interface {
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Option configures a Source built by New.
type Option func(*options)

type options struct {
	s3Client S3API
}

// WithS3Client sets a custom S3 client (useful for testing).
func WithS3Client(c S3API) Option {
	return func(o *options) { o.s3Client = c }
}

// New returns a source for uri: "s3://bucket/prefix" or a directory path.
func New(ctx context.Context, uri string, opts ...Option) (Source, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if rest, ok := strings.CutPrefix(uri, "s3://"); ok {
		bucket, prefix, _ := strings.Cut(rest, "/")
		return NewS3Source(ctx, bucket, prefix, o.s3Client)
	}
	return NewDir(uri)
}

// Dir reads tables from a local directory.
type Dir struct {
	root string
}

// NewDir creates a directory source.
func NewDir(root string) (*Dir, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("opening source dir %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source %s is not a directory", root)
	}
	return &Dir{root: root}, nil
}

// Open implements Source.
func (d *Dir) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(d.root, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	return f, nil
}

func (d *Dir) String() string { return d.root }

// S3Source reads tables from objects under a bucket prefix.
type S3Source struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Source creates an S3 source. A nil client loads the default AWS
// configuration.
func NewS3Source(ctx context.Context, bucket, prefix string, client S3API) (*S3Source, error) {
	if bucket == "" {
		return nil, fmt.Errorf("S3 bucket name required")
	}
	if client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		client = s3.NewFromConfig(cfg)
	}
	return &S3Source{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

// Open implements Source.
func (s *S3Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := strings.TrimLeft(s.prefix+"/"+name, "/")
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting s3://%s/%s: %w", s.bucket, key, err)
	}
	return out.Body, nil
}

func (s *S3Source) String() string {
	return "s3://" + s.bucket + "/" + s.prefix
}
