package document

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/diewo77/go-retail/internal/config"
)

// Storage persists rendered documents and returns where they went.
type Storage interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// NewStorage picks the backend named in cfg.
func NewStorage(cfg config.DocumentsConfig) (Storage, error) {
	switch cfg.Backend {
	case "s3":
		sess, err := session.NewSession(&aws.Config{Region: aws.String(cfg.S3Region)})
		if err != nil {
			return nil, fmt.Errorf("aws session: %w", err)
		}
		return NewS3Storage(s3manager.NewUploader(sess), cfg.S3Bucket, cfg.S3Prefix), nil
	case "", "local":
		return LocalStorage{Dir: cfg.Dir}, nil
	default:
		return nil, fmt.Errorf("unknown documents backend %q", cfg.Backend)
	}
}

// LocalStorage writes documents into Dir, creating it on first use.
type LocalStorage struct {
	Dir string
}

func (s LocalStorage) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", s.Dir, err)
	}
	p := filepath.Join(s.Dir, filepath.Base(name))
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", p, err)
	}
	return p, nil
}

type uploader interface {
	UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// S3Storage uploads documents to a bucket under an optional key prefix.
type S3Storage struct {
	up     uploader
	bucket string
	prefix string
}

func NewS3Storage(up uploader, bucket, prefix string) *S3Storage {
	return &S3Storage{up: up, bucket: bucket, prefix: prefix}
}

func (s *S3Storage) Save(ctx context.Context, name string, data []byte) (string, error) {
	key := path.Join(s.prefix, name)
	out, err := s.up.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("upload s3://%s/%s: %w", s.bucket, key, err)
	}
	return out.Location, nil
}
