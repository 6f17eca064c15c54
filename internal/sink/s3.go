package sink

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used by S3Sink.
type S3API interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads the table as CSV.
// Key format: {prefix}/{runID}/features.csv
type S3Sink struct {
	client     S3API
	bucketName string
	prefix     string
}

// NewS3Sink creates an S3 sink. A nil client loads the default AWS
// configuration.
func NewS3Sink(ctx context.Context, bucketName, prefix string, client S3API) (*S3Sink, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("S3 bucket name required")
	}
	if client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		client = s3.NewFromConfig(cfg)
	}
	return &S3Sink{
		client:     client,
		bucketName: bucketName,
		prefix:     strings.TrimRight(prefix, "/"),
	}, nil
}

// Name returns the sink identifier.
func (s *S3Sink) Name() string { return "s3" }

// Key returns the object key a run is written to.
func (s *S3Sink) Key(runID string) string {
	if runID == "" {
		runID = "adhoc"
	}
	return strings.TrimLeft(fmt.Sprintf("%s/%s/features.csv", s.prefix, runID), "/")
}

// Write uploads the table.
func (s *S3Sink) Write(ctx context.Context, t Table) error {
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, t); err != nil {
		return fmt.Errorf("encoding table: %w", err)
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(s.Key(t.RunID)),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("putting table to S3: %w", err)
	}
	return nil
}
