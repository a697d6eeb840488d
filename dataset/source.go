package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrNotFound is returned when the dataset path does not exist.
var ErrNotFound = errors.New("dataset not found")

// Source reads dataset files from some storage.
type Source interface {
	// Stat returns the modification time of path.
	Stat(ctx context.Context, path string) (time.Time, error)
	// Open returns the contents of path. The caller closes it.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// ── Local files ─────────────────────────────────────────────────────────────

// FileSource reads from the local filesystem.
type FileSource struct{}

func (FileSource) Stat(_ context.Context, path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, wrapNotFound(path, err)
	}
	return info.ModTime(), nil
}

func (FileSource) Open(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapNotFound(path, err)
	}
	return f, nil
}

func wrapNotFound(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return fmt.Errorf("failed to access %s: %w", path, err)
}

// ── S3 ──────────────────────────────────────────────────────────────────────

// S3API is the subset of the S3 client the source uses.
type S3API interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads s3://bucket/key paths.
type S3Source struct {
	Client S3API
}

// NewS3Source builds an S3Source from the default AWS credential chain.
func NewS3Source(ctx context.Context) (*S3Source, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &S3Source{Client: s3.NewFromConfig(cfg)}, nil
}

// ParseS3Path splits "s3://bucket/key" into bucket and key.
func ParseS3Path(path string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(path, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 path: %q", path)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 path needs bucket and key: %q", path)
	}
	return bucket, key, nil
}

func (s *S3Source) Stat(ctx context.Context, path string) (time.Time, error) {
	bucket, key, err := ParseS3Path(path)
	if err != nil {
		return time.Time{}, err
	}
	out, err := s.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return time.Time{}, wrapS3Error(path, err)
	}
	return aws.ToTime(out.LastModified), nil
}

func (s *S3Source) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	bucket, key, err := ParseS3Path(path)
	if err != nil {
		return nil, err
	}
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapS3Error(path, err)
	}
	return out.Body, nil
}

func wrapS3Error(path string, err error) error {
	var notFound *types.NotFound
	var noKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noKey) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return fmt.Errorf("failed to read %s: %w", path, err)
}

// ── Dispatch ────────────────────────────────────────────────────────────────

// MultiSource sends s3:// paths to S3 and everything else to Local.
// S3 may be nil when no s3 paths are expected.
type MultiSource struct {
	Local Source
	S3    Source
}

func (m MultiSource) pick(path string) (Source, error) {
	if strings.HasPrefix(path, "s3://") {
		if m.S3 == nil {
			return nil, fmt.Errorf("no s3 source configured for %s", path)
		}
		return m.S3, nil
	}
	if m.Local == nil {
		return FileSource{}, nil
	}
	return m.Local, nil
}

func (m MultiSource) Stat(ctx context.Context, path string) (time.Time, error) {
	src, err := m.pick(path)
	if err != nil {
		return time.Time{}, err
	}
	return src.Stat(ctx, path)
}

func (m MultiSource) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	src, err := m.pick(path)
	if err != nil {
		return nil, err
	}
	return src.Open(ctx, path)
}
