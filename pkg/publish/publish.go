package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/karrick/godirwalk"
	"go.uber.org/zap"

	"github.com/slipway-dev/slipway"
)

// S3API is the slice of the S3 client the publisher needs. *s3.Client
// satisfies it.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Publisher uploads a built dist directory to an S3 bucket.
type Publisher struct {
	client S3API
	bucket string
	prefix string
	logger *zap.Logger
}

// New creates a Publisher targeting bucket. prefix, if non-empty, is
// prepended to every object key.
func New(client S3API, bucket, prefix string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

// Publish walks dir and uploads every regular file, keyed by its
// forward-slash path relative to dir. It returns the number of files
// uploaded.
func (p *Publisher) Publish(ctx context.Context, dir string) (int, error) {
	if _, err := os.Stat(dir); err != nil {
		return 0, fmt.Errorf("publish: %w", err)
	}

	uploaded := 0
	err := godirwalk.Walk(dir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !de.IsRegular() {
				return nil
			}

			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			key := p.key(rel)
			if err := p.upload(ctx, path, key); err != nil {
				return err
			}

			p.logger.Info("uploaded", zap.String("key", key))
			uploaded++
			return nil
		},
	})
	if err != nil {
		return uploaded, fmt.Errorf("publish: %w", err)
	}
	return uploaded, nil
}

func (p *Publisher) upload(ctx context.Context, path, key string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return err
	}

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(stat.Size()),
		ContentType:   aws.String(slipway.ContentTypeFor(path)),
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}

func (p *Publisher) key(rel string) string {
	key := filepath.ToSlash(rel)
	if p.prefix != "" {
		key = p.prefix + "/" + key
	}
	return key
}
