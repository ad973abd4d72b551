// Package hooks provides ready-made post-completion hooks for the
// lifecycle controller: archiving finished outputs to S3-compatible
// storage and publishing completion events to NATS.
package hooks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/jkshenton/jasp/pkg/engine"
	"github.com/jkshenton/jasp/pkg/lifecycle"
)

// archiveTimeout bounds one hook invocation; a hook failure propagates
// to the caller, so a hung upload must not hang the whole run.
const archiveTimeout = 5 * time.Minute

// ArchiveConfig configures the S3 archive hook.
type ArchiveConfig struct {
	// Bucket is the destination bucket (required).
	Bucket string

	// Prefix is prepended to every uploaded key.
	Prefix string

	// Region is the AWS region. Optional; the SDK's default chain
	// applies when empty.
	Region string

	// Endpoint is a custom endpoint for S3-compatible stores (MinIO
	// and friends). Leave empty for AWS S3.
	Endpoint string

	// AccessKeyID and SecretAccessKey are explicit credentials. When
	// empty the SDK default chain is used.
	AccessKeyID     string
	SecretAccessKey string

	// ForcePathStyle forces path-style URLs, required by most
	// S3-compatible stores.
	ForcePathStyle bool
}

// Archiver uploads a finished job's outputs to object storage.
type Archiver struct {
	client *s3.Client
	cfg    ArchiveConfig
	log    *zap.Logger
}

// archivedFiles are the outputs worth keeping after harvest.
var archivedFiles = []string{
	engine.ArchiveFile,
	engine.LogFile,
	engine.ResultFile,
	engine.InputFile,
}

// NewArchiver builds the S3 client. A nil logger is replaced with a
// no-op one.
func NewArchiver(ctx context.Context, cfg ArchiveConfig, log *zap.Logger) (*Archiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive: bucket is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("archive: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	return &Archiver{client: client, cfg: cfg, log: log}, nil
}

// Hook returns a lifecycle.Hook that uploads the finished outputs.
// Keys are <prefix>/<dir base>/<file>. Missing files are skipped; a
// finished multi-image job has no top-level result snapshot.
func (a *Archiver) Hook() lifecycle.Hook {
	return func(h *lifecycle.Handle) error {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()

		dir := h.Dir
		base := filepath.Base(dir)

		for _, name := range archivedFiles {
			path := filepath.Join(dir, name)
			f, err := os.Open(path)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return fmt.Errorf("archive %s: %w", name, err)
			}

			key := filepath.ToSlash(filepath.Join(a.cfg.Prefix, base, name))
			_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
				Bucket: aws.String(a.cfg.Bucket),
				Key:    aws.String(key),
				Body:   f,
			})
			_ = f.Close()
			if err != nil {
				return fmt.Errorf("archive %s to s3://%s/%s: %w", name, a.cfg.Bucket, key, err)
			}
			a.log.Info("archived output",
				zap.String("file", name),
				zap.String("bucket", a.cfg.Bucket),
				zap.String("key", key))
		}
		return nil
	}
}
