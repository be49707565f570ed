// Package reliability keeps runs.db healthy and ships run reports off-box.
package reliability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/aristath/celrisk/internal/config"
	"github.com/aristath/celrisk/internal/domain"
)

// ObjectUploader uploads one object. *manager.Uploader satisfies it.
type ObjectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// NewS3Uploader builds an uploader for AWS S3 or any S3-compatible endpoint
// (Cloudflare R2, MinIO). Static credentials are used when configured,
// otherwise the default AWS credential chain applies.
func NewS3Uploader(ctx context.Context, cfg *config.ArchiveConfig) (*manager.Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return manager.NewUploader(client), nil
}

// ArchiveService uploads run reports as JSON objects.
type ArchiveService struct {
	uploader ObjectUploader
	bucket   string
	prefix   string
	log      zerolog.Logger
}

// RunReport is the archived form of a run.
type RunReport struct {
	ArchivedAt time.Time   `json:"archived_at"`
	Run        *domain.Run `json:"run"`
}

// NewArchiveService creates a new archive service
func NewArchiveService(uploader ObjectUploader, bucket, prefix string, log zerolog.Logger) *ArchiveService {
	return &ArchiveService{
		uploader: uploader,
		bucket:   bucket,
		prefix:   prefix,
		log:      log.With().Str("service", "run_archive").Logger(),
	}
}

// Bucket returns the destination bucket.
func (s *ArchiveService) Bucket() string {
	return s.bucket
}

// ObjectKey returns <prefix>/<yyyy>/<mm>/<dd>/<run id>.json for the run's creation date.
func (s *ArchiveService) ObjectKey(run *domain.Run) string {
	return path.Join(s.prefix, run.CreatedAt.UTC().Format("2006/01/02"), run.ID+".json")
}

// ArchiveRun uploads one run report and returns its object key.
func (s *ArchiveService) ArchiveRun(ctx context.Context, run *domain.Run) (string, error) {
	body, err := json.MarshalIndent(RunReport{ArchivedAt: time.Now().UTC(), Run: run}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run %s: %w", run.ID, err)
	}

	key := s.ObjectKey(run)
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload run %s: %w", run.ID, err)
	}

	s.log.Debug().
		Str("run_id", run.ID).
		Str("key", key).
		Int("bytes", len(body)).
		Msg("Run archived")

	return key, nil
}
